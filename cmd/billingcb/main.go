package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"billingcb/internal/config"
	"billingcb/internal/exporter"
	"billingcb/internal/importer"
	"billingcb/internal/logger"
	"billingcb/internal/model"
	"billingcb/internal/report"
	"billingcb/internal/server"
)

var (
	port    = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode = flag.Bool("dev", false, "开发模式")
	dataDir = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")

	input      = flag.String("input", "", "一次性模式：解析工作簿并导出账单 CSV，不启动服务")
	out        = flag.String("out", "", "输出路径（.xlsx 导出 Excel，其余 CSV）；为空写 stdout，仅文件名时写入 <dataDir>/exports")
	bh         = flag.String("bh", "", "按业务负责人筛选（逗号分隔）")
	consultant = flag.String("consultant", "", "按顾问筛选（逗号分隔）")
	client     = flag.String("client", "", "按客户筛选（逗号分隔）")
	fy         = flag.String("fy", "", "按财年筛选，如 \"FY 2023-24\"")
)

func main() {
	flag.Parse()

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	logger.InitLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *input != "" {
		if err := runOnce(ctx, cfg); err != nil {
			logger.L.Error("one-shot export failed", "input", *input, "error", err)
			stop()
			os.Exit(1)
		}
		return
	}

	fmt.Println("==========================================")
	fmt.Println("  billingcb - 合同与顾问账单分析服务")
	fmt.Println("==========================================")

	// 确保数据目录存在
	if dir, err := config.EnsureDataDir(cfg); err != nil {
		logger.L.Warn("failed to create data dir", "error", err)
	} else {
		fmt.Printf("数据目录: %s\n", dir)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.L.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	go func() {
		fmt.Printf("服务启动中，监听 %s ...\n", srv.Addr())
		if err := srv.Run(); err != nil {
			logger.L.Error("server stopped", "error", err)
			stop()
		}
	}()
	fmt.Printf("接口地址: http://localhost:%d/api/status\n", cfg.Server.Port)
	fmt.Println("\n按 Ctrl+C 停止服务...")

	<-ctx.Done()

	fmt.Println("\n正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L.Warn("graceful shutdown failed", "error", err)
	}
}

// runOnce 解析 -input 指定的工作簿，打印概要并导出筛选后的账单（-out 以 .xlsx 结尾时导出 Excel，否则 CSV）
func runOnce(ctx context.Context, cfg *config.AppConfig) error {
	enc, err := exporter.ParseEncoding(cfg.Export.CSVEncoding)
	if err != nil {
		return err
	}

	f, err := os.Open(*input)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	snap, err := importer.NewCoordinator(server.IngestOptions(cfg)).Ingest(ctx, f, filepath.Base(*input))
	if err != nil {
		return err
	}

	criteria := model.FilterCriteria{
		BusinessHeads: splitList(*bh),
		Consultants:   splitList(*consultant),
		Clients:       splitList(*client),
		FiscalYear:    strings.TrimSpace(*fy),
	}
	records := report.Filter(snap.Billing, criteria)

	var w io.Writer = os.Stdout
	summaryOut := io.Writer(os.Stderr)
	asXLSX := false
	if *out != "" {
		path := *out
		if filepath.Base(path) == path {
			if _, err := config.EnsureDataDir(cfg); err != nil {
				return fmt.Errorf("failed to create data dir: %w", err)
			}
			path = config.GetDataPath(cfg, "exports", path)
		}
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer file.Close()
		w = file
		summaryOut = os.Stdout
		asXLSX = strings.EqualFold(filepath.Ext(path), ".xlsx")
		defer fmt.Fprintf(summaryOut, "已导出: %s\n", path)
	}

	printSummary(summaryOut, snap, records)
	if asXLSX {
		return exporter.WriteWorkbook(w, exporter.WorkbookOptions{
			Billing:   records,
			Contracts: snap.Contracts,
			Progress:  exporter.LogProgress(logger.L),
		})
	}
	return exporter.WriteBillingCSV(w, records, enc)
}

func printSummary(w io.Writer, snap *model.Snapshot, records []model.BillingRecord) {
	fmt.Fprintf(w, "文件: %s\n", snap.Filename)
	fmt.Fprintf(w, "账单布局: %s（策略 %s）\n", snap.Layout, snap.Strategy)
	fmt.Fprintf(w, "合同: %d 条  账单: %d 条  筛选后: %d 条\n", len(snap.Contracts), len(snap.Billing), len(records))
	for _, y := range report.ByFiscalYear(records) {
		fmt.Fprintf(w, "  %s  T=%s  N=%s\n", y.FiscalYear, y.TotalAmount.StringFixed(2), y.NetAmount.StringFixed(2))
	}
	for _, warning := range snap.Warnings {
		fmt.Fprintf(w, "警告: %s\n", warning)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
