package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"billingcb/internal/importer"
	"billingcb/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	opts := importer.DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) }
	h := NewHandler(store.NewMemoryStore(time.Hour), importer.NewCoordinator(opts), Options{MaxUploadMB: 1})

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r
}

func buildWorkbook(t *testing.T, sheets map[string][][]any, order ...string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	first := f.GetSheetName(0)
	for _, name := range order {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for i, row := range sheets[name] {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			r := row
			if err := f.SetSheetRow(name, cell, &r); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	if err := f.DeleteSheet(first); err != nil {
		t.Fatalf("delete sheet: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func billingWorkbook(t *testing.T) []byte {
	return buildWorkbook(t, map[string][][]any{
		"Contracts": {
			{"Client", "Work", "PO No.", "BH", "Total Value (F+V)", "Fixed Balance"},
			{"Acme", "Fixed", "PO-1", "RAVI", 1000, 250},
			{"Globex", "T&M", "PO-2", "ANITA", 0, 0},
		},
		"Consultant Billing": {
			{"Business Head", "Consultant", "Client", "Date", "T Amt", "N Amt"},
			{"RAVI", "Jane", "Acme", "2023-04-01", 100, 90},
			{"RAVI", "Jane", "Acme", "2023-05-01", 200, 180},
			{"ANITA", "John Roe", "Globex", "2024-05-01", 50, 45},
		},
	}, "Contracts", "Consultant Billing")
}

func uploadRequest(t *testing.T, path, filename string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func upload(t *testing.T, r http.Handler, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/workbooks", filename, data))
	return w
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func TestUploadAndQuery(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	w := upload(t, r, "billing.xlsx", billingWorkbook(t))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status=%d body=%s", w.Code, w.Body.String())
	}
	var summary struct {
		ID            string   `json:"id"`
		Strategy      string   `json:"strategy"`
		ContractCount int      `json:"contractCount"`
		BillingCount  int      `json:"billingCount"`
		FiscalPeriods []string `json:"fiscalPeriods"`
	}
	decode(t, w, &summary)
	if summary.ID == "" || summary.Strategy != "flat" || summary.ContractCount != 2 || summary.BillingCount != 3 {
		t.Fatalf("summary=%+v", summary)
	}
	if len(summary.FiscalPeriods) != 2 {
		t.Fatalf("fiscal periods=%v", summary.FiscalPeriods)
	}

	var billing struct {
		Total int `json:"total"`
	}
	decode(t, get(r, "/api/workbooks/"+summary.ID+"/billing?consultant=Jane&fiscalYear=FY+2023-24"), &billing)
	if billing.Total != 2 {
		t.Fatalf("filtered billing total=%d", billing.Total)
	}
	decode(t, get(r, "/api/workbooks/latest/billing?businessHead=RAVI,ANITA"), &billing)
	if billing.Total != 3 {
		t.Fatalf("latest billing total=%d", billing.Total)
	}

	var contracts struct {
		Contracts []struct {
			Client         string   `json:"client"`
			UtilizationPct *float64 `json:"utilizationPct"`
		} `json:"contracts"`
	}
	decode(t, get(r, "/api/workbooks/"+summary.ID+"/contracts"), &contracts)
	if len(contracts.Contracts) != 2 || *contracts.Contracts[0].UtilizationPct != 75 || contracts.Contracts[1].UtilizationPct != nil {
		t.Fatalf("contracts=%+v", contracts.Contracts)
	}

	var monthly struct {
		Rows []map[string]any `json:"rows"`
	}
	decode(t, get(r, "/api/workbooks/"+summary.ID+"/summary/monthly"), &monthly)
	if len(monthly.Rows) != 3 {
		t.Fatalf("monthly rows=%v", monthly.Rows)
	}
	decode(t, get(r, "/api/workbooks/"+summary.ID+"/summary/consultants?top=1"), &monthly)
	if len(monthly.Rows) != 1 {
		t.Fatalf("top consultants=%v", monthly.Rows)
	}

	csvResp := get(r, "/api/workbooks/"+summary.ID+"/export.csv?client=Globex")
	lines := strings.Split(strings.TrimSpace(csvResp.Body.String()), "\n")
	if csvResp.Code != http.StatusOK || len(lines) != 2 || !strings.HasPrefix(lines[0], "business_head,consultant,client,date") {
		t.Fatalf("csv status=%d body=%s", csvResp.Code, csvResp.Body.String())
	}
	if cd := csvResp.Header().Get("Content-Disposition"); !strings.Contains(cd, "billing-billing.csv") {
		t.Fatalf("content-disposition=%s", cd)
	}

	xlsx := get(r, "/api/workbooks/"+summary.ID+"/export.xlsx")
	if xlsx.Code != http.StatusOK || !bytes.HasPrefix(xlsx.Body.Bytes(), []byte("PK")) {
		t.Fatalf("xlsx status=%d", xlsx.Code)
	}

	var status StatusResponse
	decode(t, get(r, "/api/status"), &status)
	if !status.Initialized || status.LatestID != summary.ID || status.SnapshotCount != 1 {
		t.Fatalf("status=%+v", status)
	}
}

func TestUploadStream_SendsProgress(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/workbooks/stream", "billing.xlsx", billingWorkbook(t)))
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatalf("status=%d headers=%v", w.Code, w.Header())
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "data: ") || !strings.Contains(body, `"type":"done"`) {
		t.Fatalf("events=%s", body)
	}

	var status StatusResponse
	decode(t, get(r, "/api/status"), &status)
	if !status.Initialized || status.SnapshotCount != 1 {
		t.Fatalf("status=%+v", status)
	}

	var summary struct {
		Rows []struct {
			BusinessHead string `json:"businessHead"`
			POCount      int    `json:"poCount"`
		} `json:"rows"`
	}
	decode(t, get(r, "/api/workbooks/latest/summary/contracts?businessHead=ravi"), &summary)
	if len(summary.Rows) != 1 || summary.Rows[0].BusinessHead != "RAVI" || summary.Rows[0].POCount != 1 {
		t.Fatalf("contract summary=%+v", summary.Rows)
	}
}

func TestUpload_MissingSheets(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	data := buildWorkbook(t, map[string][][]any{
		"Sheet2": {{"a"}},
		"Data":   {{"b"}},
	}, "Sheet2", "Data")

	w := upload(t, r, "wrong.xlsx", data)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Missing   []string `json:"missing"`
		Available []string `json:"available"`
	}
	decode(t, w, &resp)
	if len(resp.Missing) != 2 || len(resp.Available) != 2 {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestUpload_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	if w := upload(t, r, "notes.txt", []byte("hello")); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestUpload_TooLarge(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	oversized := bytes.Repeat([]byte("x"), 2<<20)
	for _, path := range []string{"/api/workbooks", "/api/workbooks/stream"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, path, "big.xlsx", oversized))
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("%s status=%d body=%s", path, w.Code, w.Body.String())
		}
	}

	var status StatusResponse
	decode(t, get(r, "/api/status"), &status)
	if status.SnapshotCount != 0 {
		t.Fatalf("oversized upload must not be stored: %+v", status)
	}
}

func TestUpload_MissingFile(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/workbooks", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestUnknownWorkbookAndSummary(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	if w := get(r, "/api/workbooks/nope/billing"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id status=%d", w.Code)
	}
	if w := get(r, "/api/workbooks/latest/filters"); w.Code != http.StatusNotFound {
		t.Fatalf("no latest status=%d", w.Code)
	}

	if w := upload(t, r, "billing.xlsx", billingWorkbook(t)); w.Code != http.StatusCreated {
		t.Fatalf("upload status=%d", w.Code)
	}
	if w := get(r, "/api/workbooks/latest/summary/pie"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown kind status=%d", w.Code)
	}
	if w := get(r, "/api/workbooks/latest/summary/consultants?top=x"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad top status=%d", w.Code)
	}
}

func TestBuildContentDisposition(t *testing.T) {
	t.Parallel()

	got := buildContentDisposition("账单 2023.xlsx", "billing", "csv")
	want := "attachment; filename=\"__ 2023-billing.csv\"; filename*=UTF-8''%E8%B4%A6%E5%8D%95%202023-billing.csv"
	if got != want {
		t.Fatalf("content-disposition mismatch:\n got: %s\nwant: %s", got, want)
	}
}
