package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized    bool   `json:"initialized"`    // 是否已上传过工作簿
	SnapshotCount  int    `json:"snapshotCount"`  // 未过期快照数
	LatestID       string `json:"latestId"`       // 最近一次上传的快照
	LatestFile     string `json:"latestFile"`     // 最近一次上传的文件名
	LastImportTime string `json:"lastImportTime"` // 最后导入时间
	Uptime         string `json:"uptime"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		SnapshotCount: h.store.Count(),
		Uptime:        time.Since(h.started).Round(time.Second).String(),
	}
	if snap, err := h.store.Latest(); err == nil {
		resp.Initialized = true
		resp.LatestID = snap.ID
		resp.LatestFile = snap.Filename
		resp.LastImportTime = snap.LoadedAt.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}
