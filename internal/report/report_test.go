package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"billingcb/internal/fiscal"
	"billingcb/internal/model"
)

func rec(head, consultant, client string, y int, m time.Month, total, net int64) model.BillingRecord {
	d := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return model.BillingRecord{
		BusinessHead:  head,
		Consultant:    consultant,
		Client:        client,
		Date:          d,
		TotalAmount:   decimal.NewFromInt(total),
		NetAmount:     decimal.NewFromInt(net),
		FiscalYear:    fiscal.FiscalYear(d),
		FiscalQuarter: fiscal.Quarter(d),
		YearMonth:     fiscal.YearMonth(d),
	}
}

func sample() []model.BillingRecord {
	return []model.BillingRecord{
		rec("RAVI", "Jane", "Acme", 2022, time.April, 100, 90),
		rec("RAVI", "Jane", "Globex", 2022, time.May, 200, 180),
		rec("RAVI", "Jane", "Acme", 2023, time.February, 50, 40),
		rec("ANITA", "John", "Initech", 2023, time.April, 400, 300),
		rec("ANITA", "John", "Initech", 2022, time.April, 10, 10),
	}
}

func TestFilter_AndSemantics(t *testing.T) {
	t.Parallel()

	records := sample()
	got := Filter(records, model.FilterCriteria{BusinessHeads: []string{"RAVI"}, Clients: []string{"Acme"}})
	if len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	got = Filter(records, model.FilterCriteria{BusinessHeads: []string{"RAVI", "ANITA"}, FiscalYear: "FY 2022-23"})
	if len(got) != 4 {
		t.Fatalf("expected 4 in FY 2022-23, got %d", len(got))
	}
	if got := Filter(records, model.FilterCriteria{}); len(got) != len(records) {
		t.Fatalf("empty criteria must keep everything")
	}
	if got := Filter(records, model.FilterCriteria{Consultants: []string{"Nobody"}}); len(got) != 0 {
		t.Fatalf("unknown consultant must yield nothing")
	}
}

func TestDistinct(t *testing.T) {
	t.Parallel()

	lists := Distinct(sample())
	if len(lists.BusinessHeads) != 2 || lists.BusinessHeads[0] != "ANITA" {
		t.Fatalf("heads=%v", lists.BusinessHeads)
	}
	if len(lists.Clients) != 3 || lists.Clients[0] != "Acme" {
		t.Fatalf("clients=%v", lists.Clients)
	}
	if len(lists.FiscalPeriods) != 2 || lists.FiscalPeriods[1] != "FY 2023-24" {
		t.Fatalf("periods=%v", lists.FiscalPeriods)
	}
}

func TestByMonthAndHierarchy(t *testing.T) {
	t.Parallel()

	months := ByMonth(sample())
	if len(months) != 4 || months[0].YearMonth != "2022-04" || months[0].TotalAmount.String() != "110" {
		t.Fatalf("months=%+v", months)
	}
	h := ByHierarchy(sample())
	if len(h) != 3 || h[0].BusinessHead != "ANITA" || h[0].TotalAmount.String() != "410" {
		t.Fatalf("hierarchy=%+v", h)
	}
	if h[1].Client != "Acme" || h[1].TotalAmount.String() != "150" {
		t.Fatalf("hierarchy[1]=%+v", h[1])
	}
}

func TestByFiscalYear_DiffPercent(t *testing.T) {
	t.Parallel()

	years := ByFiscalYear(sample())
	if len(years) != 2 || years[0].FiscalYear != "FY 2022-23" {
		t.Fatalf("years=%+v", years)
	}
	// FY 2022-23: T=360 N=320 → 11.11%
	if years[0].DiffPercent == nil || *years[0].DiffPercent < 11.1 || *years[0].DiffPercent > 11.2 {
		t.Fatalf("diff=%v", years[0].DiffPercent)
	}
	zero := ByFiscalYear([]model.BillingRecord{rec("A", "B", "C", 2022, time.May, 0, 0)})
	if zero[0].DiffPercent != nil {
		t.Fatalf("diff must be undefined for zero total")
	}
}

func TestByQuarter_Ordered(t *testing.T) {
	t.Parallel()

	q := ByQuarter(sample())
	labels := make([]string, len(q))
	for i, v := range q {
		labels[i] = v.Label
	}
	want := []string{"FY 2022-23 Q1", "FY 2022-23 Q4", "FY 2023-24 Q1"}
	if len(labels) != len(want) {
		t.Fatalf("labels=%v", labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("labels=%v", labels)
		}
	}
	if q[0].TotalAmount.String() != "310" {
		t.Fatalf("Q1 total=%s", q[0].TotalAmount)
	}
}

func TestByConsultantAndTop(t *testing.T) {
	t.Parallel()

	c := ByConsultant(sample())
	if len(c) != 2 || c[0].Consultant != "John" {
		t.Fatalf("consultants=%+v", c)
	}
	jane := c[1]
	if jane.Clients != 2 || jane.Entries != 3 || jane.TotalAmount.String() != "350" || jane.AverageBilling.String() != "116.67" {
		t.Fatalf("jane=%+v", jane)
	}
	if top := TopConsultants(sample(), 1); len(top) != 1 || top[0].Consultant != "John" {
		t.Fatalf("top=%+v", top)
	}
	heads := ByBusinessHead(sample())
	if len(heads) != 2 || heads[1].BusinessHead != "RAVI" || heads[1].Clients != 2 || heads[1].Consultants != 1 {
		t.Fatalf("heads=%+v", heads)
	}
}

func TestContracts(t *testing.T) {
	t.Parallel()

	contracts := []model.ContractRecord{
		{Client: "Acme", PONumber: "1", BusinessHead: "RAVI", TotalValue: decimal.NewFromInt(100), Balance: decimal.NewFromInt(40)},
		{Client: "Globex", PONumber: "2", BusinessHead: "RAVI", TotalValue: decimal.NewFromInt(100), Balance: decimal.NewFromInt(60)},
		{Client: "Initech", PONumber: "3", BusinessHead: "", TotalValue: decimal.Zero, Balance: decimal.Zero},
	}
	if got := FilterContracts(contracts, "acme", ""); len(got) != 1 {
		t.Fatalf("filter by client=%+v", got)
	}
	if got := FilterContracts(contracts, "", "ravi"); len(got) != 2 {
		t.Fatalf("filter by head=%+v", got)
	}
	sum := ContractSummary(contracts)
	if len(sum) != 2 || sum[0].BusinessHead != "RAVI" || sum[0].POCount != 2 {
		t.Fatalf("summary=%+v", sum)
	}
	if sum[0].UtilizationPct == nil || *sum[0].UtilizationPct != 50 {
		t.Fatalf("utilization=%v", sum[0].UtilizationPct)
	}
	if sum[1].BusinessHead != model.UnknownLabel || sum[1].UtilizationPct != nil {
		t.Fatalf("unknown row=%+v", sum[1])
	}
}
