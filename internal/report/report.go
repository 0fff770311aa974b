// Package report renders the incident history as PDF and XLSX downloads.
package report

import (
	"time"

	"profsafe-backend/internal/store"
)

// Rows per page. The first page also carries the title and school block.
const (
	FirstPageRows = 16
	PageRows      = 20
)

// Data is the input of every report format.
type Data struct {
	School      store.School
	Alerts      []store.AlertRecord
	GeneratedAt time.Time
	Layout      string
	Origin      string
}

func (d Data) generated() string {
	layout := d.Layout
	if layout == "" {
		layout = "2006-01-02 15:04:05"
	}
	return d.GeneratedAt.Format(layout)
}

func (d Data) resolvedCount() int {
	n := 0
	for _, a := range d.Alerts {
		if a.Resolved {
			n++
		}
	}
	return n
}

// Page is a half-open [Start, End) range of rows.
type Page struct {
	Start int
	End   int
}

// Paginate splits n rows into pages holding first rows on the first page and
// rest rows on each following page. Zero rows still yield one empty page.
func Paginate(n, first, rest int) []Page {
	if first <= 0 {
		first = 1
	}
	if rest <= 0 {
		rest = first
	}
	if n <= 0 {
		return []Page{{}}
	}

	end := min(first, n)
	pages := []Page{{Start: 0, End: end}}
	for end < n {
		start := end
		end = min(start+rest, n)
		pages = append(pages, Page{Start: start, End: end})
	}
	return pages
}

func statusLabel(a store.AlertRecord) string {
	if a.Resolved {
		return "Resolvido"
	}
	return "Pendente"
}
