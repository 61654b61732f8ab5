package models

import (
	"fmt"
	"strings"
)

// PrizeTable is the ordered list of prize slots for a campaign.
// A label listed k times in a table of N slots is drawn with probability k/N.
type PrizeTable []string

// DefaultPrizeTable is used when no table is configured
var DefaultPrizeTable = PrizeTable{
	"ELECTROMENOR",
	"DETERGENTE",
	"REGALO SORPRESA",
	"REGALO SORPRESA",
	"REGALO SORPRESA",
	"DETERGENTE",
}

// Validate checks the table is non-empty and has no blank slots
func (t PrizeTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("prize table is empty")
	}
	for i, label := range t {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("prize table slot %d is blank", i)
		}
	}
	return nil
}

// Labels returns the distinct labels in table order
func (t PrizeTable) Labels() []string {
	seen := make(map[string]bool, len(t))
	labels := make([]string, 0, len(t))
	for _, label := range t {
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	return labels
}

// Weight returns the probability of drawing label
func (t PrizeTable) Weight(label string) float64 {
	if len(t) == 0 {
		return 0
	}
	count := 0
	for _, l := range t {
		if l == label {
			count++
		}
	}
	return float64(count) / float64(len(t))
}

// Contains reports whether index points at label in the table
func (t PrizeTable) Contains(label string, index int) bool {
	return index >= 0 && index < len(t) && t[index] == label
}

// ParsePrizeTable splits a comma-separated list of labels, trimming whitespace
func ParsePrizeTable(raw string) PrizeTable {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	table := make(PrizeTable, 0, len(parts))
	for _, part := range parts {
		table = append(table, strings.TrimSpace(part))
	}
	return table
}
