package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// BuildXLSX renders the report as a workbook with a summary sheet and one row
// per alert.
func BuildXLSX(data Data) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "resumo"
	alertsSheet := "alertas"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	if _, err := f.NewSheet(alertsSheet); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}

	_ = f.SetCellValue(summarySheet, "A1", pdfTitle)
	summary := [][2]any{
		{"Escola", data.School.Name},
		{"CNPJ", data.School.CNPJ},
		{"Endereço", data.School.Address},
		{"Contato", data.School.Phone},
		{"Gerado em", data.generated()},
		{"Total de alertas", len(data.Alerts)},
		{"Resolvidos", data.resolvedCount()},
		{"Pendentes", len(data.Alerts) - data.resolvedCount()},
	}
	for i, kv := range summary {
		row := i + 3
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), kv[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), kv[1])
	}

	headers := []string{"#", "ID", "Professor(a)", "Sala", "Tipo", "Urgência", "Descrição", "Data/Hora", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(alertsSheet, cell, h)
	}
	for i, a := range data.Alerts {
		values := []any{i + 1, a.ID, a.Teacher, a.Room, a.Type, a.Urgency, a.Description, a.Timestamp, statusLabel(a)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(alertsSheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
