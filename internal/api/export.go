package api

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"billingcb/internal/exporter"
	"billingcb/internal/logger"
	"billingcb/internal/report"
)

// ExportBillingCSV 导出筛选后的账单 CSV
// GET /api/workbooks/:id/export.csv
func (h *Handler) ExportBillingCSV(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	records := report.Filter(snap.Billing, filterCriteria(c))

	c.Header("Content-Disposition", buildContentDisposition(snap.Filename, "billing", "csv"))
	c.Header("Content-Type", "text/csv; charset="+string(h.encoding))
	if err := exporter.WriteBillingCSV(c.Writer, records, h.encoding); err != nil {
		logger.FromContext(c.Request.Context()).Error("billing csv export failed", "id", snap.ID, "error", err)
	}
}

// ExportContractsCSV 导出合同 CSV
// GET /api/workbooks/:id/contracts.csv
func (h *Handler) ExportContractsCSV(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	contracts := report.FilterContracts(snap.Contracts, c.Query("client"), c.Query("businessHead"))

	c.Header("Content-Disposition", buildContentDisposition(snap.Filename, "contracts", "csv"))
	c.Header("Content-Type", "text/csv; charset="+string(h.encoding))
	if err := exporter.WriteContractsCSV(c.Writer, contracts, h.encoding); err != nil {
		logger.FromContext(c.Request.Context()).Error("contracts csv export failed", "id", snap.ID, "error", err)
	}
}

// ExportWorkbook 导出 Excel（筛选后的账单 + 合同 + 负责人汇总）
// GET /api/workbooks/:id/export.xlsx
func (h *Handler) ExportWorkbook(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	file, err := exporter.BuildWorkbook(exporter.WorkbookOptions{
		Billing:   report.Filter(snap.Billing, filterCriteria(c)),
		Contracts: snap.Contracts,
		Progress:  exporter.LogProgress(logger.FromContext(c.Request.Context()).With("id", snap.ID)),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导出失败: " + err.Error()})
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", buildContentDisposition(snap.Filename, "billing", "xlsx"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := file.Write(c.Writer); err != nil {
		logger.FromContext(c.Request.Context()).Error("xlsx export failed", "id", snap.ID, "error", err)
	}
}

// buildContentDisposition ASCII 文件名 + RFC 5987 UTF-8 文件名
func buildContentDisposition(source, kind, ext string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." {
		base = "workbook"
	}
	utf8Name := fmt.Sprintf("%s-%s.%s", base, kind, ext)

	ascii := make([]rune, 0, len(base))
	for _, r := range base {
		if r < 0x80 && r != '"' && r != '\\' {
			ascii = append(ascii, r)
		} else {
			ascii = append(ascii, '_')
		}
	}
	fallback := fmt.Sprintf("%s-%s.%s", string(ascii), kind, ext)
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", fallback, url.PathEscape(utf8Name))
}
