package parser

import "testing"

func TestBillingRecognizer_Classify(t *testing.T) {
	t.Parallel()

	r := NewBillingRecognizer(0)

	flat := [][]string{
		{"Business Head", "Consultant", "Client", "Date", "T Amt", "N Amt"},
		{"RAVI", "Jane", "Acme", "2023-04-01", "100", "90"},
	}
	if got := r.Classify(flat); got.Layout != LayoutFlat || got.HeaderRow != 0 {
		t.Fatalf("flat classified as %+v", got)
	}

	pivot := [][]string{
		{"Consultant Billing Report"},
		{},
		{"Row Labels", "Apr-22", "", "May-22", ""},
		{"", "T Amt", "N Amt", "T Amt", "N Amt"},
	}
	if got := r.Classify(pivot); got.Layout != LayoutPivot || got.HeaderRow != 2 {
		t.Fatalf("pivot classified as %+v", got)
	}

	late := [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}, {"Apr-22"}}
	if got := r.Classify(late); got.Layout != LayoutFlat {
		t.Fatalf("month beyond preview should be ignored, got %+v", got)
	}
}

func TestFlattenHeader_ForwardFillsMonths(t *testing.T) {
	t.Parallel()

	grid := [][]string{
		{"Row Labels", "Apr-22", "", "May-22", "", "Grand Total", ""},
		{"", "T Amt", "N Amt", "T Amt", "N Amt", "T Amt", "N Amt"},
	}
	got := FlattenHeader(grid, 0)
	want := []string{"Row Labels", "Apr-22 T Amt", "Apr-22 N Amt", "May-22 T Amt", "May-22 N Amt", "Grand Total T Amt", "Grand Total N Amt"}
	if len(got) != len(want) {
		t.Fatalf("labels=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("label[%d]=%q want %q", i, got[i], want[i])
		}
	}
}

func TestClassifyColumns_AndGroups(t *testing.T) {
	t.Parallel()

	labels := []string{"Row Labels", "Apr-22 T Amt", "Apr-22 N Amt", "Apr-22 Days", "May-22 Total", "May-22 Net", "Grand Total T Amt"}
	cols := ClassifyColumns(labels)
	if len(cols) != 6 {
		t.Fatalf("cols=%+v", cols)
	}
	if cols[1].Metric != MetricNet || cols[1].PeriodKey != "apr-22" {
		t.Fatalf("N Amt column=%+v", cols[1])
	}
	if cols[2].Metric != MetricDays {
		t.Fatalf("Days column=%+v", cols[2])
	}

	groups := GroupPeriods(cols)
	if len(groups) != 3 {
		t.Fatalf("groups=%+v", groups)
	}
	apr := groups[0]
	if !apr.Valid || apr.Amount != 1 || apr.Net != 2 || apr.Days != 3 {
		t.Fatalf("apr group=%+v", apr)
	}
	may := groups[1]
	if !may.Valid || may.Amount != 4 || may.Net != 5 || may.Days != -1 {
		t.Fatalf("may group=%+v", may)
	}
	if groups[2].Valid {
		t.Fatalf("grand total should not resolve to a month: %+v", groups[2])
	}
}
