package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList is a JSON-encoded []string column, used for Job.Models and Job.Warnings.
type StringList []string

// Value implements driver.Valuer for storage as a JSON text column
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to unmarshal string list: %w", err)
	}
	*l = out
	return nil
}

// DateList is a JSON-encoded list of calendar dates, used for Job.DateRange.
type DateList []time.Time

// Value implements driver.Valuer for storage as a JSON text column
func (l DateList) Value() (driver.Value, error) {
	raw := make([]string, len(l))
	for i, d := range l {
		raw[i] = d.Format("2006-01-02")
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal date list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *DateList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type for DateList: %T", value)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	var strs []string
	if err := json.Unmarshal(raw, &strs); err != nil {
		return fmt.Errorf("failed to unmarshal date list: %w", err)
	}
	dates := make([]time.Time, len(strs))
	for i, s := range strs {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return fmt.Errorf("failed to parse date %q: %w", s, err)
		}
		dates[i] = d
	}
	*l = dates
	return nil
}
