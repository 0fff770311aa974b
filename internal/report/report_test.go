package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"profsafe-backend/internal/store"
)

func sampleData(n int) Data {
	alerts := make([]store.AlertRecord, n)
	for i := range alerts {
		alerts[i] = store.AlertRecord{
			ID:          fmt.Sprintf("id-%d", i),
			Teacher:     "Ana",
			Room:        fmt.Sprintf("%d", 100+i),
			Description: "Simulação de incêndio",
			Type:        store.DefaultType,
			Urgency:     store.DefaultUrgency,
			Timestamp:   "2025-05-01 09:00:00",
			Resolved:    i%2 == 0,
		}
	}
	return Data{
		School:      store.School{Name: "Escola Estadual", CNPJ: "00.000.000/0001-00"},
		Alerts:      alerts,
		GeneratedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		Origin:      "central",
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		pages []Page
	}{
		{"empty", 0, []Page{{}}},
		{"fits first page", 3, []Page{{0, 3}}},
		{"exact first page", 4, []Page{{0, 4}}},
		{"spills", 5, []Page{{0, 4}, {4, 5}}},
		{"many", 15, []Page{{0, 4}, {4, 10}, {10, 15}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.pages, Paginate(tt.n, 4, 6))
		})
	}
}

func TestPaginate_CoversEveryRowOnce(t *testing.T) {
	pages := Paginate(101, FirstPageRows, PageRows)
	next := 0
	for _, p := range pages {
		assert.Equal(t, next, p.Start)
		assert.LessOrEqual(t, p.End-p.Start, PageRows)
		next = p.End
	}
	assert.Equal(t, 101, next)
}

func TestBuildPDF_Empty(t *testing.T) {
	out, err := BuildPDF(sampleData(0))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, 1, render(sampleData(0)).PageCount())
}

func TestBuildPDF_PageCount(t *testing.T) {
	tests := []struct {
		alerts int
		pages  int
	}{
		{1, 1},
		{FirstPageRows, 1},
		{FirstPageRows + 1, 2},
		{FirstPageRows + PageRows, 2},
		{FirstPageRows + PageRows + 1, 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d alerts", tt.alerts), func(t *testing.T) {
			pdf := render(sampleData(tt.alerts))
			require.NoError(t, pdf.Error())
			assert.Equal(t, tt.pages, pdf.PageCount())
		})
	}

	out, err := BuildPDF(sampleData(40))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestBuildXLSX(t *testing.T) {
	out, err := BuildXLSX(sampleData(3))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"resumo", "alertas"}, f.GetSheetList())

	name, err := f.GetCellValue("resumo", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Escola Estadual", name)

	rows, err := f.GetRows("alertas")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Professor(a)", rows[0][2])
	assert.Equal(t, "101", rows[2][3])
	assert.Equal(t, "Resolvido", rows[1][8])
	assert.Equal(t, "Pendente", rows[2][8])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 5))
}
