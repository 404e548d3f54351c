package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"billingcb/internal/importer"
	"billingcb/internal/logger"
	"billingcb/internal/model"
	"billingcb/internal/report"
	"billingcb/internal/store"
)

// Upload 上传并解析工作簿，返回快照概要
// POST /api/workbooks
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	fh, err := c.FormFile("file")
	if err != nil {
		h.writeFormError(c, err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败"})
		return
	}
	defer f.Close()

	snap, err := h.coordinator.Ingest(c.Request.Context(), f, fh.Filename)
	if err != nil {
		writeIngestError(c, err)
		return
	}
	h.store.Put(snap)
	c.JSON(http.StatusCreated, snap.Summary())
}

// writeFormError 上传体超限返回 413，其余按缺少文件处理
func (h *Handler) writeFormError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("文件超过 %d MB", h.maxUpload>>20)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
}

// UploadStream 上传并解析工作簿（SSE 流式进度）
// POST /api/workbooks/stream
func (h *Handler) UploadStream(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	fh, err := c.FormFile("file")
	if err != nil {
		h.writeFormError(c, err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败"})
		return
	}
	defer f.Close()

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	progress := make(chan importer.ProgressEvent, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range progress {
			b, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", b)
			flusher.Flush()
		}
	}()

	_, err = h.coordinator.IngestWithCommit(c.Request.Context(), f, fh.Filename, progress, h.store.Put)
	close(progress)
	<-done
	if err != nil {
		logger.FromContext(c.Request.Context()).Warn("streamed ingest failed", "file", fh.Filename, "error", err)
	}
}

// GetWorkbook 快照概要
// GET /api/workbooks/:id
func (h *Handler) GetWorkbook(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap.Summary())
}

// DeleteWorkbook 删除快照
// DELETE /api/workbooks/:id
func (h *Handler) DeleteWorkbook(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	h.store.Delete(snap.ID)
	c.Status(http.StatusNoContent)
}

// ListBilling 筛选后的账单明细
// GET /api/workbooks/:id/billing?businessHead=&consultant=&client=&fiscalYear=
func (h *Handler) ListBilling(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	criteria := filterCriteria(c)
	records := report.Filter(snap.Billing, criteria)
	c.JSON(http.StatusOK, gin.H{
		"filter":  criteria,
		"total":   len(records),
		"records": records,
	})
}

// ListContracts 合同明细
// GET /api/workbooks/:id/contracts?client=&businessHead=
func (h *Handler) ListContracts(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	contracts := report.FilterContracts(snap.Contracts, c.Query("client"), c.Query("businessHead"))
	rows := make([]model.Utilization, 0, len(contracts))
	for _, ct := range contracts {
		rows = append(rows, ct.WithUtilization())
	}
	c.JSON(http.StatusOK, gin.H{
		"total":     len(rows),
		"contracts": rows,
	})
}

// GetFilters 筛选器可选值与财年列表
// GET /api/workbooks/:id/filters
func (h *Handler) GetFilters(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.Lists{
		BusinessHeads: snap.BusinessHeads,
		Consultants:   snap.Consultants,
		Clients:       snap.Clients,
		FiscalPeriods: snap.FiscalPeriods,
	})
}

// snapshot 按路径参数 id 取快照；不存在时写 404
func (h *Handler) snapshot(c *gin.Context) (*model.Snapshot, bool) {
	snap, err := h.store.Get(c.Param("id"))
	if errors.Is(err, store.ErrSnapshotNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "工作簿不存在或已过期"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取工作簿失败"})
		return nil, false
	}
	return snap, true
}

// filterCriteria 查询参数可重复，也可逗号分隔
func filterCriteria(c *gin.Context) model.FilterCriteria {
	return model.FilterCriteria{
		BusinessHeads: queryList(c, "businessHead"),
		Consultants:   queryList(c, "consultant"),
		Clients:       queryList(c, "client"),
		FiscalYear:    strings.TrimSpace(c.Query("fiscalYear")),
	}
}

func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
