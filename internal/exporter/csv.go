package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"billingcb/internal/model"
	"billingcb/internal/parser"
)

// Encoding CSV 字符编码
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1252 Encoding = "windows-1252"
)

// ParseEncoding 解析配置中的编码名，未知时报错
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "windows-1252", "cp1252", "latin1":
		return EncodingWindows1252, nil
	}
	return "", fmt.Errorf("unsupported csv encoding %q", s)
}

// BillingHeader 账单 CSV 表头
var BillingHeader = []string{
	"business_head", "consultant", "client", "date",
	"total_amount", "net_amount", "billed_days",
	"fiscal_year", "fiscal_quarter", "year_month",
}

// ContractHeader 合同 CSV 表头
var ContractHeader = []string{
	"client", "work_type", "po_number", "business_head",
	"total_value", "balance", "utilization_pct",
}

const dateLayout = "2006-01-02"

// WriteBillingCSV 写出账单记录
func WriteBillingCSV(w io.Writer, records []model.BillingRecord, enc Encoding) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.BusinessHead,
			r.Consultant,
			r.Client,
			r.Date.Format(dateLayout),
			r.TotalAmount.String(),
			r.NetAmount.String(),
			r.BilledDays.String(),
			r.FiscalYear,
			string(r.FiscalQuarter),
			r.YearMonth,
		})
	}
	return writeCSV(w, BillingHeader, rows, enc)
}

// WriteContractsCSV 写出合同记录；使用率无定义时留空
func WriteContractsCSV(w io.Writer, contracts []model.ContractRecord, enc Encoding) error {
	rows := make([][]string, 0, len(contracts))
	for _, c := range contracts {
		pct := ""
		if v, ok := c.UtilizationPct(); ok {
			pct = strconv.FormatFloat(v, 'f', 2, 64)
		}
		rows = append(rows, []string{
			c.Client,
			c.WorkType,
			c.PONumber,
			c.BusinessHead,
			c.TotalValue.String(),
			c.Balance.String(),
			pct,
		})
	}
	return writeCSV(w, ContractHeader, rows, enc)
}

// ReadBillingCSV 读回导出的账单 CSV，交由 Cleaner 重新规范化
func ReadBillingCSV(r io.Reader, enc Encoding) (*parser.RawTable, error) {
	reader := csv.NewReader(decodeReader(r, enc))
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(all) == 0 {
		return &parser.RawTable{}, nil
	}
	return &parser.RawTable{Headers: all[0], Rows: all[1:]}, nil
}

func writeCSV(w io.Writer, header []string, rows [][]string, enc Encoding) error {
	out, closeFn := encodeWriter(w, enc)
	cw := csv.NewWriter(out)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return closeFn()
}

func encodeWriter(w io.Writer, enc Encoding) (io.Writer, func() error) {
	if enc != EncodingWindows1252 {
		return w, func() error { return nil }
	}
	tw := transform.NewWriter(w, encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()))
	return tw, tw.Close
}

func decodeReader(r io.Reader, enc Encoding) io.Reader {
	if enc != EncodingWindows1252 {
		return r
	}
	return transform.NewReader(r, charmap.Windows1252.NewDecoder())
}
