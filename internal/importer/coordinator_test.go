package importer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"billingcb/internal/model"
	"billingcb/internal/parser"
	"billingcb/internal/workbook"
)

var fixedNow = time.Date(2024, time.June, 18, 9, 0, 0, 0, time.UTC)

func buildWorkbookWithRows(t *testing.T, sheets map[string][][]any, order ...string) *excelize.File {
	t.Helper()

	wb := excelize.NewFile()
	t.Cleanup(func() { _ = wb.Close() })
	defaultSheet := wb.GetSheetName(0)

	for _, name := range order {
		if _, err := wb.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for i, row := range sheets[name] {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			r := row
			if err := wb.SetSheetRow(name, cell, &r); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	if err := wb.DeleteSheet(defaultSheet); err != nil {
		t.Fatalf("delete default sheet: %v", err)
	}
	return wb
}

func toBuffer(t *testing.T, wb *excelize.File) *bytes.Buffer {
	t.Helper()
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func contractRows() [][]any {
	return [][]any{
		{"ID", "Client", "Work", "PO No.", "BH", "Total Value (F+V)", "Fixed Balance"},
		{1, "Acme", "Fixed", "PO-1", "RAVI", 1000, 250},
		{2, "Globex", "T&M", "PO-2", "ANITA", 500, 500},
	}
}

func newTestCoordinator() *Coordinator {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return fixedNow }
	return NewCoordinator(opts)
}

func TestIngest_PivotWorkbookWithIndent(t *testing.T) {
	t.Parallel()

	wb := buildWorkbookWithRows(t, map[string][][]any{
		"Contracts": contractRows(),
		"Consultant Billing": {
			{"Row Labels", "Apr-22", nil, "May-22", nil},
			{nil, "T Amt", "N Amt", "T Amt", "N Amt"},
			{"RAVI", 400, 360, 100, 90},
			{"Jane Doe", 300, 270, 100, 90},
			{"Acme", 300, 270, 100, 90},
			{"John Roe", 100, 90, nil, nil},
			{"Globex", 100, 90, nil, nil},
			{"Grand Total", 400, 360, 100, 90},
		},
	}, "Contracts", "Consultant Billing")

	consultantStyle, _ := wb.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "left", Indent: 1}})
	clientStyle, _ := wb.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "left", Indent: 2}})
	for _, cell := range []string{"A4", "A6"} {
		_ = wb.SetCellStyle("Consultant Billing", cell, cell, consultantStyle)
	}
	for _, cell := range []string{"A5", "A7"} {
		_ = wb.SetCellStyle("Consultant Billing", cell, cell, clientStyle)
	}

	snap, err := newTestCoordinator().Ingest(context.Background(), toBuffer(t, wb), "pivot.xlsx")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if snap.Layout != string(parser.LayoutPivot) || snap.Strategy != "pivot" {
		t.Fatalf("layout=%s strategy=%s", snap.Layout, snap.Strategy)
	}
	if len(snap.Contracts) != 2 || len(snap.Billing) != 3 {
		t.Fatalf("contracts=%d billing=%d", len(snap.Contracts), len(snap.Billing))
	}
	last := snap.Billing[2]
	if last.Consultant != "John Roe" || last.Client != "Globex" || last.TotalAmount.String() != "100" {
		t.Fatalf("last record=%+v", last)
	}
	if len(snap.Consultants) != 2 || len(snap.FiscalPeriods) != 1 || snap.FiscalPeriods[0] != "FY 2022-23" {
		t.Fatalf("lists: consultants=%v periods=%v", snap.Consultants, snap.FiscalPeriods)
	}
	if snap.ID == "" || !snap.LoadedAt.Equal(fixedNow) {
		t.Fatalf("id=%q loadedAt=%s", snap.ID, snap.LoadedAt)
	}
}

func TestIngest_FlatWorkbookWithDates(t *testing.T) {
	t.Parallel()

	wb := buildWorkbookWithRows(t, map[string][][]any{
		"Contract Register": contractRows(),
		"consultant billing 2023": {
			{"Business Head", "Consultant", "Client", "Date", "T Amt", "N Amt"},
			{"RAVI", "Jane", "Acme", time.Date(2023, time.April, 12, 0, 0, 0, 0, time.UTC), 100, 90},
			{"RAVI", "Jane", "Acme", "not a date", 100, 90},
			{"ANITA", "John", "Globex", "2023-07-01", 50, 45},
		},
	}, "Contract Register", "consultant billing 2023")

	snap, err := newTestCoordinator().Ingest(context.Background(), toBuffer(t, wb), "flat.xlsx")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if snap.Strategy != "flat" || len(snap.Billing) != 2 {
		t.Fatalf("strategy=%s billing=%+v", snap.Strategy, snap.Billing)
	}
	if snap.Billing[0].YearMonth != "2023-04" || snap.Billing[1].FiscalQuarter != model.Q2 {
		t.Fatalf("records=%+v", snap.Billing)
	}
	if len(snap.Warnings) != 1 {
		t.Fatalf("warnings=%v", snap.Warnings)
	}
}

func TestIngest_MissingSheets(t *testing.T) {
	t.Parallel()

	wb := buildWorkbookWithRows(t, map[string][][]any{
		"Sheet2": {{"a"}},
		"Data":   {{"b"}},
	}, "Sheet2", "Data")

	opts := DefaultOptions()
	opts.BillingSheet = "Billing Info"
	_, err := NewCoordinator(opts).Ingest(context.Background(), toBuffer(t, wb), "wrong.xlsx")
	var missing *workbook.MissingSheetError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSheetError, got %v", err)
	}
	if len(missing.Missing) != 2 || len(missing.Available) != 2 {
		t.Fatalf("missing=%v available=%v", missing.Missing, missing.Available)
	}
}

func TestIngest_MissingSheetsNamesBothLogicalSheets(t *testing.T) {
	t.Parallel()

	wb := buildWorkbookWithRows(t, map[string][][]any{
		"Contract":     contractRows(),
		"Billing Info": {{"Consultant", "T Amt"}, {"Jane", 10}},
	}, "Contract", "Billing Info")

	_, err := newTestCoordinator().Ingest(context.Background(), toBuffer(t, wb), "renamed.xlsx")
	var missing *workbook.MissingSheetError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSheetError, got %v", err)
	}
	if len(missing.Missing) != 2 || missing.Missing[0] != "Contracts" || missing.Missing[1] != "Consultant Billing" {
		t.Fatalf("missing=%v", missing.Missing)
	}
	if len(missing.Available) != 2 || missing.Available[0] != "Contract" || missing.Available[1] != "Billing Info" {
		t.Fatalf("available=%v", missing.Available)
	}
}

func TestIngest_MalformedContractsRecovered(t *testing.T) {
	t.Parallel()

	wb := buildWorkbookWithRows(t, map[string][][]any{
		"Contracts": {{"Foo", "Bar"}, {1, 2}},
		"Consultant Billing": {
			{"Consultant", "Date", "T Amt"},
			{"Jane", "2023-04-01", 10},
		},
	}, "Contracts", "Consultant Billing")

	progress := make(chan ProgressEvent, 32)
	snap, err := newTestCoordinator().IngestWithProgress(context.Background(), toBuffer(t, wb), "m.xlsx", progress)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(snap.Contracts) != 0 || len(snap.Warnings) != 1 {
		t.Fatalf("contracts=%d warnings=%v", len(snap.Contracts), snap.Warnings)
	}
	if snap.Billing[0].BusinessHead != model.UnknownLabel {
		t.Fatalf("record=%+v", snap.Billing[0])
	}
	close(progress)
	var last ProgressEvent
	for e := range progress {
		last = e
	}
	if last.Type != "done" {
		t.Fatalf("last progress event=%+v", last)
	}
}

func TestIngestWithCommit_CommitsBeforeDone(t *testing.T) {
	t.Parallel()

	wb := buildWorkbookWithRows(t, map[string][][]any{
		"Contracts": contractRows(),
		"Consultant Billing": {
			{"Consultant", "Date", "T Amt"},
			{"Jane", "2023-04-01", 10},
		},
	}, "Contracts", "Consultant Billing")

	progress := make(chan ProgressEvent, 32)
	queuedAtCommit := -1
	var committed *model.Snapshot
	snap, err := newTestCoordinator().IngestWithCommit(context.Background(), toBuffer(t, wb), "c.xlsx", progress, func(s *model.Snapshot) {
		committed = s
		queuedAtCommit = len(progress)
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if committed != snap {
		t.Fatalf("commit received %p, want %p", committed, snap)
	}
	close(progress)
	var events []ProgressEvent
	for e := range progress {
		events = append(events, e)
	}
	if len(events) == 0 || events[len(events)-1].Type != "done" || queuedAtCommit != len(events)-1 {
		t.Fatalf("queuedAtCommit=%d events=%d", queuedAtCommit, len(events))
	}
}

func TestIngest_EmptyBillingIsFatal(t *testing.T) {
	t.Parallel()

	wb := buildWorkbookWithRows(t, map[string][][]any{
		"Contracts":          contractRows(),
		"Consultant Billing": {{"Consultant", "T Amt"}},
	}, "Contracts", "Consultant Billing")

	_, err := newTestCoordinator().Ingest(context.Background(), toBuffer(t, wb), "empty.xlsx")
	var malformed *parser.MalformedBillingSheetError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedBillingSheetError, got %v", err)
	}
}

func TestIngest_Cancelled(t *testing.T) {
	t.Parallel()

	wb := buildWorkbookWithRows(t, map[string][][]any{
		"Contracts":          contractRows(),
		"Consultant Billing": {{"Consultant", "T Amt"}, {"Jane", 1}},
	}, "Contracts", "Consultant Billing")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestCoordinator().Ingest(ctx, toBuffer(t, wb), "c.xlsx"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
