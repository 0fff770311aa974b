package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"profsafe-backend/internal/metrics"
	"profsafe-backend/internal/report"
)

const (
	pdfFilename  = "relatorio_prof_safe24.pdf"
	xlsxFilename = "relatorio_prof_safe24.xlsx"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (h *Handler) reportData(c *gin.Context) report.Data {
	return report.Data{
		School:      h.store.School(),
		Alerts:      h.store.List(),
		GeneratedAt: h.now().In(h.loc),
		Layout:      h.layout,
		Origin:      c.Request.Host,
	}
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
}

func renderFailed(c *gin.Context, format string, err error, start time.Time) {
	log.Printf("failed to render %s report: %v", format, err)
	metrics.ObserveReport(format, metrics.ResultError, time.Since(start))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render report"})
}

// GetReportPDF handles GET /report.pdf. Output is cached per store revision
// and request host, since the origin line prints the host.
func (h *Handler) GetReportPDF(c *gin.Context) {
	start := time.Now()
	key := fmt.Sprintf("pdf:%d:%s", h.store.Revision(), c.Request.Host)

	if cached, ok := h.reports.Get(key); ok {
		metrics.ObserveReport("pdf", metrics.ResultSuccess, time.Since(start))
		attachment(c, pdfFilename)
		c.Data(http.StatusOK, "application/pdf", cached.([]byte))
		return
	}

	out, err := report.BuildPDF(h.reportData(c))
	if err != nil {
		renderFailed(c, "pdf", err, start)
		return
	}
	h.reports.Set(key, out, cache.DefaultExpiration)
	metrics.ObserveReport("pdf", metrics.ResultSuccess, time.Since(start))

	attachment(c, pdfFilename)
	c.Data(http.StatusOK, "application/pdf", out)
}

// GetReportXLSX handles GET /report.xlsx.
func (h *Handler) GetReportXLSX(c *gin.Context) {
	start := time.Now()
	out, err := report.BuildXLSX(h.reportData(c))
	if err != nil {
		renderFailed(c, "xlsx", err, start)
		return
	}
	metrics.ObserveReport("xlsx", metrics.ResultSuccess, time.Since(start))

	attachment(c, xlsxFilename)
	c.Data(http.StatusOK, xlsxMIME, out)
}
