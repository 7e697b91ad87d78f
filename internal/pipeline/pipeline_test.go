package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"celltowers/internal/cleaner"
	"celltowers/internal/observability"
	"celltowers/internal/types"
)

type fakeSource struct {
	towers    []types.TowerRecord
	operators []types.OperatorMapping
	err       error
}

func (f fakeSource) Towers(context.Context) ([]types.TowerRecord, error) {
	return f.towers, f.err
}

func (f fakeSource) Operators(context.Context) ([]types.OperatorMapping, error) {
	return f.operators, nil
}

func fixture() fakeSource {
	return fakeSource{
		towers: []types.TowerRecord{
			{Radio: "GSM", MCC: 405, MNC: 854, CID: 1, Lat: 28.6, Lon: 77.2},
			{Radio: "GSM", MCC: 405, MNC: 854, CID: 2, Lat: 28.6, Lon: 77.2},
			{Radio: "LTE", MCC: 404, MNC: 10, CID: 3, Lat: 10.0, Lon: 76.3},
			{Radio: "LTE", MCC: 404, MNC: 10, CID: 4, Lat: 10.0, Lon: 76.3, Changeable: 1},
			{Radio: "GSM", MCC: 405, MNC: 1, CID: 5, Lat: 10.0, Lon: 76.3},
			{Radio: "GSM", MCC: 404, MNC: 99, CID: 6, Lat: 10.0, Lon: 76.3},
		},
		operators: []types.OperatorMapping{
			{MCC: 405, MNC: 854, Operator: "Jio", Circle: "Delhi"},
			{MCC: 404, MNC: 10, Operator: "Airtel", Circle: "Kerala"},
			{MCC: 405, MNC: 1, Operator: "Uninor", Circle: "Kerala"},
		},
	}
}

func TestRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewPipelineCollector(reg)
	if err != nil {
		t.Fatal(err)
	}

	res, err := Run(context.Background(), fixture(), Options{Metrics: metrics})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Clean.Corrected) != 3 {
		t.Fatalf("corrected = %+v, want 3 rows", res.Clean.Corrected)
	}
	if res.ByOperator[0].Key != "Jio" || res.ByOperator[0].Count != 2 {
		t.Fatalf("ByOperator = %+v", res.ByOperator)
	}
	if res.ByOperator[1].Key != "AirTel" {
		t.Fatalf("ByOperator = %+v", res.ByOperator)
	}
	if len(res.ByCircle) != 2 || res.ByCircle[0].Key != "Delhi & NCR" {
		t.Fatalf("ByCircle = %+v", res.ByCircle)
	}
	if len(res.Describe) != 12 || res.Describe[0].Count != 6 {
		t.Fatalf("Describe = %+v", res.Describe)
	}
	if len(res.Spread) != 2 {
		t.Fatalf("Spread = %+v", res.Spread)
	}

	if got := testutil.ToFloat64(metrics.Rows.WithLabelValues("output")); got != 3 {
		t.Fatalf("rows{output} = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.Dropped.WithLabelValues(observability.DropUnmatched)); got != 1 {
		t.Fatalf("dropped{no_operator} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.Dropped.WithLabelValues(observability.DropDefunct)); got != 1 {
		t.Fatalf("dropped{defunct} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.CircleRows.WithLabelValues("Delhi & NCR")); got != 2 {
		t.Fatalf("circle rows = %v, want 2", got)
	}
}

func TestRunWithoutMetrics(t *testing.T) {
	if _, err := Run(context.Background(), fixture(), Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunLoadError(t *testing.T) {
	boom := errors.New("boom")
	src := fixture()
	src.err = boom
	_, err := Run(context.Background(), src, Options{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, fixture(), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRunSpreadCoversUntrimmedRows(t *testing.T) {
	src := fakeSource{
		operators: []types.OperatorMapping{{MCC: 404, MNC: 10, Operator: "Airtel", Circle: "Kerala"}},
	}
	for i := 0; i <= 100; i++ {
		src.towers = append(src.towers, types.TowerRecord{
			Radio: "LTE", MCC: 404, MNC: 10, CID: int64(i), Lat: float64(i), Lon: 76.3,
		})
	}

	res, err := Run(context.Background(), src, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Clean.Corrected) != 99 {
		t.Fatalf("corrected = %d rows, want 99", len(res.Clean.Corrected))
	}
	if len(res.Spread) != 1 || res.Spread[0].Circle != "Kerala" {
		t.Fatalf("Spread = %+v", res.Spread)
	}
	sp := res.Spread[0]
	if sp.Count != 101 {
		t.Fatalf("spread count = %d, want 101", sp.Count)
	}
	// The 1% and 99% lat quantiles match the trim band of the same rows.
	for _, p := range sp.Lat {
		if p.Q == .01 && p.Value != 1 {
			t.Fatalf("lat q01 = %v, want 1", p.Value)
		}
		if p.Q == .99 && p.Value != 99 {
			t.Fatalf("lat q99 = %v, want 99", p.Value)
		}
	}
}

func TestKeptPercent(t *testing.T) {
	if got := keptPercent(cleaner.Stats{}); got != 0 {
		t.Fatalf("keptPercent(empty) = %v, want 0", got)
	}
	if got := keptPercent(cleaner.Stats{Input: 8, Output: 2}); got != 25 {
		t.Fatalf("keptPercent = %v, want 25", got)
	}
}
