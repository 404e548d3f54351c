package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"billingcb/internal/model"
	"billingcb/internal/report"
)

const (
	SheetBilling   = "Billing"
	SheetContracts = "Contracts"
	SheetSummary   = "Summary"
)

// ProgressEvent XLSX 导出阶段：start → billing → contracts → summary → done
type ProgressEvent struct {
	Stage   string
	Percent int
	Rows    int // 本阶段写入的数据行数
}

// LogProgress 把导出阶段写入 debug 日志
func LogProgress(l *slog.Logger) func(ProgressEvent) {
	return func(e ProgressEvent) {
		l.Debug("xlsx export progress", "stage", e.Stage, "percent", e.Percent, "rows", e.Rows)
	}
}

// WorkbookOptions XLSX 导出内容
type WorkbookOptions struct {
	Billing   []model.BillingRecord
	Contracts []model.ContractRecord
	Progress  func(ProgressEvent)
}

// BuildWorkbook 生成包含账单、合同、负责人汇总三个 sheet 的工作簿
func BuildWorkbook(opts WorkbookOptions) (*excelize.File, error) {
	emit := func(stage string, percent, rows int) {
		if opts.Progress != nil {
			opts.Progress(ProgressEvent{Stage: stage, Percent: percent, Rows: rows})
		}
	}
	f := excelize.NewFile()
	emit("start", 0, 0)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create amount style: %w", err)
	}

	billingRows := make([][]any, 0, len(opts.Billing))
	for _, r := range opts.Billing {
		billingRows = append(billingRows, []any{
			r.BusinessHead, r.Consultant, r.Client, r.Date.Format(dateLayout),
			r.TotalAmount.InexactFloat64(), r.NetAmount.InexactFloat64(), r.BilledDays.InexactFloat64(),
			r.FiscalYear, string(r.FiscalQuarter), r.YearMonth,
		})
	}
	if err := writeSheet(f, SheetBilling, BillingHeader, billingRows, headerStyle, amountStyle, "E", "F"); err != nil {
		_ = f.Close()
		return nil, err
	}
	emit("billing", 40, len(billingRows))

	contractRows := make([][]any, 0, len(opts.Contracts))
	for _, c := range opts.Contracts {
		var pct any = ""
		if v, ok := c.UtilizationPct(); ok {
			pct = v
		}
		contractRows = append(contractRows, []any{
			c.Client, c.WorkType, c.PONumber, c.BusinessHead,
			c.TotalValue.InexactFloat64(), c.Balance.InexactFloat64(), pct,
		})
	}
	if err := writeSheet(f, SheetContracts, ContractHeader, contractRows, headerStyle, amountStyle, "E", "F"); err != nil {
		_ = f.Close()
		return nil, err
	}
	emit("contracts", 70, len(contractRows))

	summaryRows := [][]any{}
	for _, h := range report.ByBusinessHead(opts.Billing) {
		summaryRows = append(summaryRows, []any{
			h.BusinessHead, h.Consultants, h.Clients,
			h.TotalAmount.InexactFloat64(), h.NetAmount.InexactFloat64(),
		})
	}
	summaryHeader := []string{"business_head", "consultants", "clients", "total_amount", "net_amount"}
	if err := writeSheet(f, SheetSummary, summaryHeader, summaryRows, headerStyle, amountStyle, "D", "E"); err != nil {
		_ = f.Close()
		return nil, err
	}
	emit("summary", 90, len(summaryRows))

	if err := f.DeleteSheet("Sheet1"); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(SheetBilling); err == nil {
		f.SetActiveSheet(idx)
	}
	emit("done", 100, len(billingRows)+len(contractRows)+len(summaryRows))
	return f, nil
}

// WriteWorkbook 生成并写出 XLSX
func WriteWorkbook(w io.Writer, opts WorkbookOptions) error {
	f, err := BuildWorkbook(opts)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle, amountStyle int, amountCols ...string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", sheet, err)
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, sheet, err)
		}
	}
	if len(rows) > 0 {
		for _, col := range amountCols {
			if err := f.SetCellStyle(sheet, col+"2", fmt.Sprintf("%s%d", col, len(rows)+1), amountStyle); err != nil {
				return fmt.Errorf("failed to style %s of %s: %w", col, sheet, err)
			}
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
