package report

import (
	_ "embed"
	"html/template"
	"io"

	"github.com/alex-user-go/farescan/internal/search/types"
)

//go:embed report.html.tmpl
var htmlSource string

var htmlTemplate = template.Must(template.New("report").Parse(htmlSource))

type htmlView struct {
	Columns     []string
	Rows        []types.Row
	Summary     string
	GeneratedAt string
}

// WriteHTML renders a standalone page with client-side sortable columns.
func WriteHTML(w io.Writer, table *types.FareTable) error {
	return htmlTemplate.Execute(w, htmlView{
		Columns:     columns,
		Rows:        table.Rows(),
		Summary:     summaryLine(table.Summary),
		GeneratedAt: table.GeneratedAt.Format("2006-01-02 15:04:05"),
	})
}
