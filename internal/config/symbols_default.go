package config

// defaultTrackedSymbols is used when no tracked_symbols_path is configured,
// mirroring the symbol count of original_source's nasdaq100_symbols.json.
var defaultTrackedSymbols = []string{
	"AAPL", "MSFT", "AMZN", "GOOGL", "GOOG", "META", "NVDA", "TSLA", "AVGO", "PEP",
	"COST", "ADBE", "CSCO", "NFLX", "AMD", "INTC", "TXN", "QCOM", "INTU", "HON",
	"AMGN", "SBUX", "GILD", "MDLZ", "BKNG", "ADP", "ISRG", "REGN", "VRTX", "ADI",
	"LRCX", "PANW", "MU", "PYPL", "SNPS", "CDNS", "KLAC", "MAR", "ORLY", "CSX",
	"MNST", "ASML", "CTAS", "ABNB", "CHTR", "MRVL", "FTNT", "PCAR", "NXPI", "PAYX",
	"AEP", "ROST", "ODFL", "KDP", "EXC", "KHC", "CPRT", "DXCM", "FAST", "BKR",
	"EA", "VRSK", "XEL", "GEHC", "CTSH", "DDOG", "TTD", "CCEP", "ANSS", "ON",
	"ZS", "FANG", "BIIB", "WBD", "MCHP", "WDAY", "GFS", "TEAM", "DASH", "ILMN",
	"CDW", "MDB", "CRWD", "SIRI", "LULU", "IDXX", "EBAY", "ALGN", "WBA", "SGEN",
	"JD", "ENPH", "MRNA", "SPLK", "DLTR", "RIVN", "LCID", "VRSN", "SWKS", "ZM",
}
