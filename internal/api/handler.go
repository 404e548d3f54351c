// Package api 账单工作簿 HTTP 接口
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"billingcb/internal/exporter"
	"billingcb/internal/importer"
	"billingcb/internal/store"
)

// Options 处理器选项
type Options struct {
	MaxUploadMB int
	CSVEncoding exporter.Encoding
}

// Handler API 处理器
type Handler struct {
	store       *store.MemoryStore
	coordinator *importer.Coordinator
	maxUpload   int64
	encoding    exporter.Encoding
	started     time.Time
}

// NewHandler 创建 API 处理器
func NewHandler(st *store.MemoryStore, coordinator *importer.Coordinator, opts Options) *Handler {
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 32
	}
	if opts.CSVEncoding == "" {
		opts.CSVEncoding = exporter.EncodingUTF8
	}
	return &Handler{
		store:       st,
		coordinator: coordinator,
		maxUpload:   int64(opts.MaxUploadMB) << 20,
		encoding:    opts.CSVEncoding,
		started:     time.Now(),
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 上传工作簿
	router.POST("/workbooks", h.Upload)
	router.POST("/workbooks/stream", h.UploadStream)

	wb := router.Group("/workbooks/:id")
	{
		wb.GET("", h.GetWorkbook)
		wb.DELETE("", h.DeleteWorkbook)

		// 明细与筛选项
		wb.GET("/billing", h.ListBilling)
		wb.GET("/contracts", h.ListContracts)
		wb.GET("/filters", h.GetFilters)

		// 汇总
		wb.GET("/summary/:kind", h.Summary)

		// 导出
		wb.GET("/export.csv", h.ExportBillingCSV)
		wb.GET("/export.xlsx", h.ExportWorkbook)
		wb.GET("/contracts.csv", h.ExportContractsCSV)
	}
}
