package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfTitle   = "PROF-SAFE 24 - Relatório de Ocorrências"
	pdfEmpty   = "Nenhum alerta registrado no período."
	pdfMargin  = 15.0
	rowHeight  = 6.0
	descMaxLen = 110
)

var (
	columnTitles = []string{"#", "Professor(a)", "Sala", "Data/Hora", "Status"}
	columnWidths = []float64{10, 60, 30, 45, 35}
)

// BuildPDF renders an A4 incident report.
func BuildPDF(data Data) ([]byte, error) {
	pdf := render(data)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func render(data Data) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AliasNbPages("{nb}")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("Página %d/{nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(pdfTitle))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	header := fmt.Sprintf("Gerado em: %s | Total: %d | Resolvidos: %d", data.generated(), len(data.Alerts), data.resolvedCount())
	if data.Origin != "" {
		header += " | Origem: " + data.Origin
	}
	pdf.Cell(0, rowHeight, tr(header))
	pdf.Ln(rowHeight)

	for _, line := range schoolLines(data) {
		pdf.Cell(0, rowHeight, tr(line))
		pdf.Ln(rowHeight - 1)
	}
	pdf.Ln(4)

	if len(data.Alerts) == 0 {
		pdf.Cell(0, rowHeight, tr(pdfEmpty))
		return pdf
	}

	for i, page := range Paginate(len(data.Alerts), FirstPageRows, PageRows) {
		if i > 0 {
			pdf.AddPage()
		}
		tableHeader(pdf, tr)
		for n := page.Start; n < page.End; n++ {
			tableRow(pdf, tr, n+1, data)
		}
	}
	return pdf
}

func schoolLines(data Data) []string {
	var lines []string
	s := data.School
	if s.Name != "" {
		lines = append(lines, "Escola: "+s.Name)
	}
	if s.CNPJ != "" {
		lines = append(lines, "CNPJ: "+s.CNPJ)
	}
	if s.Address != "" {
		lines = append(lines, "Endereço: "+s.Address)
	}
	if s.Phone != "" {
		lines = append(lines, "Contato: "+s.Phone)
	}
	return lines
}

func tableHeader(pdf *gofpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Arial", "B", 10)
	for i, title := range columnTitles {
		pdf.CellFormat(columnWidths[i], rowHeight+1, tr(title), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
}

func tableRow(pdf *gofpdf.Fpdf, tr func(string) string, num int, data Data) {
	a := data.Alerts[num-1]
	cells := []string{strconv.Itoa(num), a.Teacher, a.Room, a.Timestamp, statusLabel(a)}
	for i, v := range cells {
		align := "L"
		if i == 0 {
			align = "C"
		}
		pdf.CellFormat(columnWidths[i], rowHeight, tr(v), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	desc := fmt.Sprintf("%s / %s: %s", a.Type, a.Urgency, truncate(a.Description, descMaxLen))
	pdf.CellFormat(totalWidth(), rowHeight, tr(desc), "LRB", 0, "L", false, 0, "")
	pdf.Ln(-1)
}

func totalWidth() float64 {
	var w float64
	for _, c := range columnWidths {
		w += c
	}
	return w
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
