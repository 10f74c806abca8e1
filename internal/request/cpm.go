package request

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/iwvelando/mix-optimizer/internal/media"
	"gopkg.in/yaml.v3"
)

// CPMEntry accepts either a bare CPM number or a {cpm, max_spend} record.
type CPMEntry struct {
	Value    float64  `json:"cpm" yaml:"cpm"`
	MaxSpend *float64 `json:"max_spend,omitempty" yaml:"max_spend,omitempty"`
}

// CPM converts the entry into its engine shape.
func (e CPMEntry) CPM() media.CPM {
	return media.CPM{CPM: e.Value, MaxSpend: e.MaxSpend}
}

type cpmRecord struct {
	CPM      float64  `json:"cpm" yaml:"cpm"`
	MaxSpend *float64 `json:"max_spend" yaml:"max_spend"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *CPMEntry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		var v float64
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return fmt.Errorf("cpm must be a number or a record: %w", err)
		}
		*e = CPMEntry{Value: v}
		return nil
	}
	var record cpmRecord
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return err
	}
	*e = CPMEntry{Value: record.CPM, MaxSpend: record.MaxSpend}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *CPMEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("cpm must be a number or a record: %w", err)
		}
		*e = CPMEntry{Value: v}
		return nil
	}
	var record cpmRecord
	if err := node.Decode(&record); err != nil {
		return err
	}
	*e = CPMEntry{Value: record.CPM, MaxSpend: record.MaxSpend}
	return nil
}
