package importer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"billingcb/internal/logger"
	"billingcb/internal/model"
	"billingcb/internal/parser"
	"billingcb/internal/report"
	"billingcb/internal/workbook"
)

// Options 导入选项
type Options struct {
	ContractsSheet string // 合同 sheet 逻辑名
	BillingSheet   string // 顾问账单 sheet 逻辑名
	PreviewRows    int
	SampleRows     int
	UnknownLabel   string
	Now            func() time.Time // 处理时间，用于补齐缺失日期
}

// DefaultOptions 默认导入选项
func DefaultOptions() Options {
	return Options{
		ContractsSheet: "Contracts",
		BillingSheet:   "Consultant Billing",
		PreviewRows:    parser.PreviewRows,
		SampleRows:     parser.SampleRows,
		UnknownLabel:   model.UnknownLabel,
		Now:            time.Now,
	}
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`    // start/info/done/error
	Message   string      `json:"message"` // 事件消息
	Data      interface{} `json:"data"`    // 附加数据
	Timestamp time.Time   `json:"timestamp"`
}

// Coordinator 导入协调器：定位 sheet → 解析合同 → 解析账单 → 生成快照
type Coordinator struct {
	opts Options
}

// NewCoordinator 创建导入协调器
func NewCoordinator(opts Options) *Coordinator {
	def := DefaultOptions()
	if opts.ContractsSheet == "" {
		opts.ContractsSheet = def.ContractsSheet
	}
	if opts.BillingSheet == "" {
		opts.BillingSheet = def.BillingSheet
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	return &Coordinator{opts: opts}
}

// Ingest 导入一个工作簿，返回不可变快照
func (c *Coordinator) Ingest(ctx context.Context, r io.Reader, filename string) (*model.Snapshot, error) {
	return c.IngestWithProgress(ctx, r, filename, nil)
}

// IngestWithProgress 同 Ingest，并向 progress 发送进度（通道满时丢弃）
func (c *Coordinator) IngestWithProgress(ctx context.Context, r io.Reader, filename string, progress chan<- ProgressEvent) (*model.Snapshot, error) {
	return c.IngestWithCommit(ctx, r, filename, progress, nil)
}

// IngestWithCommit 同 IngestWithProgress；成功时先调用 commit（如写入存储），再发送 done 事件
func (c *Coordinator) IngestWithCommit(ctx context.Context, r io.Reader, filename string, progress chan<- ProgressEvent, commit func(*model.Snapshot)) (*model.Snapshot, error) {
	log := logger.FromContext(ctx).With("file", filename)
	c.sendProgress(progress, "start", "开始导入工作簿", map[string]string{"filename": filename})

	snap, err := c.ingest(logger.ToContext(ctx, log), r, filename, progress)
	if err != nil {
		log.Error("ingest failed", "error", err)
		c.sendProgress(progress, "error", fmt.Sprintf("导入失败: %v", err), nil)
		return nil, err
	}
	if commit != nil {
		commit(snap)
	}
	c.sendProgress(progress, "done", "导入完成", snap.Summary())
	return snap, nil
}

func (c *Coordinator) ingest(ctx context.Context, r io.Reader, filename string, progress chan<- ProgressEvent) (*model.Snapshot, error) {
	log := logger.FromContext(ctx)
	started := c.opts.Now()

	wb, err := workbook.Open(ctx, r, filename)
	if err != nil {
		return nil, err
	}
	log.Info("workbook loaded", "format", wb.Format, "sheets", wb.SheetNames())

	sheets, err := workbook.LocateSheets(wb.SheetNames(), []string{c.opts.ContractsSheet, c.opts.BillingSheet})
	if err != nil {
		return nil, err
	}
	c.sendProgress(progress, "info", "已定位 sheet", sheets)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := &model.Snapshot{
		ID:       uuid.NewString(),
		Filename: filename,
		LoadedAt: started,
	}

	contracts, err := parser.NewContractParser().ParseWithDiagnostics(wb.Sheet(sheets[c.opts.ContractsSheet]).Grid())
	if err != nil {
		log.Warn("contract sheet degraded to empty", "error", err)
		snap.Warnings = append(snap.Warnings, err.Error())
	}
	snap.Contracts = contracts
	c.sendProgress(progress, "info", fmt.Sprintf("合同 %d 条", len(contracts)), nil)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cleaner := parser.NewCleaner(c.opts.Now, c.opts.SampleRows, c.opts.UnknownLabel, wb.Date1904)
	strategies := parser.DefaultStrategies(
		parser.NewBillingRecognizer(c.opts.PreviewRows),
		parser.NewPivotReconstructor(c.opts.UnknownLabel),
		cleaner,
	)
	draft, err := parser.ParseBilling(ctx, wb.Sheet(sheets[c.opts.BillingSheet]), strategies)
	if err != nil {
		return nil, err
	}
	snap.Layout = string(draft.Layout)
	snap.Strategy = draft.Strategy
	snap.Billing = draft.Records
	if draft.Degenerate {
		snap.Warnings = append(snap.Warnings, "billing hierarchy could not be recovered; rows reported under Unknown")
	}
	if draft.Dropped > 0 {
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("%d billing rows dropped for unparseable dates", draft.Dropped))
	}
	c.sendProgress(progress, "info", fmt.Sprintf("账单 %d 条（%s）", len(draft.Records), draft.Strategy), nil)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lists := report.Distinct(snap.Billing)
	snap.BusinessHeads = lists.BusinessHeads
	snap.Consultants = lists.Consultants
	snap.Clients = lists.Clients
	snap.FiscalPeriods = lists.FiscalPeriods

	log.Info("snapshot created",
		"id", snap.ID, "layout", snap.Layout, "strategy", snap.Strategy,
		"contracts", len(snap.Contracts), "billing", len(snap.Billing), "warnings", len(snap.Warnings))
	return snap, nil
}

func (c *Coordinator) sendProgress(ch chan<- ProgressEvent, typ, msg string, data interface{}) {
	if ch == nil {
		return
	}
	select {
	case ch <- ProgressEvent{Type: typ, Message: msg, Data: data, Timestamp: time.Now()}:
	default:
		// 通道已满，丢弃事件
	}
}
