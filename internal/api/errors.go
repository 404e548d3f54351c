package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"billingcb/internal/logger"
	"billingcb/internal/parser"
	"billingcb/internal/workbook"
)

// writeIngestError 把导入错误映射为 HTTP 响应
func writeIngestError(c *gin.Context, err error) {
	var (
		missingSheet  *workbook.MissingSheetError
		missingColumn *parser.MissingColumnError
		malformed     *parser.MalformedBillingSheetError
	)
	switch {
	case errors.As(err, &missingSheet):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":       "缺少必需的 sheet",
			"detail":      err.Error(),
			"missing":     missingSheet.Missing,
			"available":   missingSheet.Available,
			"suggestions": missingSheet.Suggestions,
		})
	case errors.As(err, &missingColumn):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "缺少必需的列",
			"detail":   err.Error(),
			"required": missingColumn.Required,
			"found":    missingColumn.Found,
		})
	case errors.As(err, &malformed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "无法解析账单 sheet",
			"detail":   err.Error(),
			"attempts": malformed.Attempts,
			"headers":  malformed.Headers,
		})
	case errors.Is(err, workbook.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的文件格式，请上传 .xlsx 或 .xls"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "导入已取消"})
	default:
		logger.FromContext(c.Request.Context()).Error("ingest failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导入失败: " + err.Error()})
	}
}
