package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"billingcb/internal/report"
)

// Summary 筛选后的汇总视图
// GET /api/workbooks/:id/summary/:kind
// kind: monthly | hierarchy | quarterly | annual | consultants | businessHeads | contracts
func (h *Handler) Summary(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	kind := c.Param("kind")
	if kind == "contracts" {
		contracts := report.FilterContracts(snap.Contracts, c.Query("client"), c.Query("businessHead"))
		c.JSON(http.StatusOK, gin.H{"kind": kind, "rows": report.ContractSummary(contracts)})
		return
	}

	records := report.Filter(snap.Billing, filterCriteria(c))
	var rows any
	switch kind {
	case "monthly":
		rows = report.ByMonth(records)
	case "hierarchy":
		rows = report.ByHierarchy(records)
	case "quarterly":
		rows = report.ByQuarter(records)
	case "annual":
		rows = report.ByFiscalYear(records)
	case "consultants":
		top, err := strconv.Atoi(c.DefaultQuery("top", "0"))
		if err != nil || top < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top 必须为非负整数"})
			return
		}
		if top > 0 {
			rows = report.TopConsultants(records, top)
		} else {
			rows = report.ByConsultant(records)
		}
	case "businessHeads":
		rows = report.ByBusinessHead(records)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "未知的汇总类型: " + kind})
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "records": len(records), "rows": rows})
}
