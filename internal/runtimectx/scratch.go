package runtimectx

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// scratchConfig is the shape written to the per-session scratch file for
// legacy tool implementations that read process-wide configuration instead
// of taking an explicit context argument.
type scratchConfig struct {
	TodayDate      string `yaml:"TODAY_DATE"`
	ModelSignature string `yaml:"MODEL_SIGNATURE"`
	TradingDayID   string `yaml:"TRADING_DAY_ID"`
}

// ScratchWriter isolates each session's scratch configuration under its own
// file path so two concurrent DayExecutors can never collide.
type ScratchWriter struct {
	dir string
}

// NewScratchWriter roots the scratch directory under the runtime home.
func NewScratchWriter(homeRoot string) *ScratchWriter {
	return &ScratchWriter{dir: filepath.Join(homeRoot, "scratch")}
}

// Write creates the scratch file for ctx and returns its path. The path is
// unique per (job, model, date): two concurrent sessions cannot collide.
func (w *ScratchWriter) Write(ctx Context) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s-%s.yaml", ctx.JobID.String(), ctx.ModelSignature, ctx.Date.Format("2006-01-02"))
	path := filepath.Join(w.dir, name)

	cfg := scratchConfig{
		TodayDate:      ctx.Date.Format("2006-01-02"),
		ModelSignature: ctx.ModelSignature,
		TradingDayID:   ctx.TradingDayID.String(),
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal scratch config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write scratch config: %w", err)
	}

	return path, nil
}

// Remove deletes the scratch file, tolerating one that is already gone.
func (w *ScratchWriter) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove scratch config: %w", err)
	}
	return nil
}
