// Package report renders fare tables for terminals, browsers and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/alex-user-go/farescan/internal/search/types"
)

// Format names accepted by Write.
const (
	FormatText = "text"
	FormatHTML = "html"
	FormatJSON = "json"
)

var columns = []string{"Date", "Cabin", "Fare Type", "Total Value", "Airline"}

// Write renders table in the named format.
func Write(w io.Writer, format string, table *types.FareTable) error {
	switch strings.ToLower(format) {
	case FormatText, "table", "":
		return WriteText(w, table)
	case FormatHTML:
		return WriteHTML(w, table)
	case FormatJSON:
		return WriteJSON(w, table)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteText renders an aligned plain-text table followed by the run summary.
func WriteText(w io.Writer, table *types.FareTable) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	fmt.Fprintln(tw, strings.Repeat("-", 10)+"\t"+strings.Repeat("-", 8)+"\t"+strings.Repeat("-", 12)+"\t"+strings.Repeat("-", 11)+"\t"+strings.Repeat("-", 7))
	for _, r := range table.Rows() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Date, r.Cabin, r.FareType, r.TotalValue, r.Airline)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if table.Empty() {
		if _, err := fmt.Fprintln(w, "no fares found"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, summaryLine(table.Summary))
	return err
}

// WriteJSON writes the table with its rows pre-rendered.
func WriteJSON(w io.Writer, table *types.FareTable) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Rows        []types.Row      `json:"rows"`
		Summary     types.RunSummary `json:"summary"`
		GeneratedAt string           `json:"generated_at"`
	}{
		Rows:        table.Rows(),
		Summary:     table.Summary,
		GeneratedAt: table.GeneratedAt.Format("2006-01-02 15:04:05"),
	})
}

func summaryLine(s types.RunSummary) string {
	line := fmt.Sprintf("%d dates queried, %d failed, %d malformed, %d fares compared",
		s.Requested, s.TransportFailures, s.Malformed, s.Records)
	if s.PersistFailed {
		line += " (responses not saved)"
	}
	return line
}
