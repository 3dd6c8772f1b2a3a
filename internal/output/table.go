// Package output renders CLI results for humans and machines.
package output

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/quotaguard/quotaguard/internal/core"
)

// Format identifies a supported output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format name from a CLI flag.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatTable, FormatJSON:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", name)
	}
}

// FormatRules renders the stored rules in the requested format.
func FormatRules(rules []core.Rule, format Format) (string, error) {
	if format == FormatJSON {
		payload, err := json.MarshalIndent(rules, "", "  ")
		if err != nil {
			return "", err
		}
		return string(payload), nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Path", "Product", "Hourly", "Daily", "Monthly"})

	for _, r := range rules {
		t.AppendRow(table.Row{
			r.Path,
			r.ProductName,
			r.HourlyLimit,
			r.DailyLimit,
			r.MonthlyLimit,
		})
	}

	if len(rules) > 0 {
		t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d rules", len(rules))})
	}

	return t.Render(), nil
}
