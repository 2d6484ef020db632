package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/bibq/internal/domain"
)

func TestRecorder_ObserveQuery(t *testing.T) {
	var r Recorder
	before := testutil.ToFloat64(QueriesTotal.WithLabelValues("count", "ok"))
	r.ObserveQuery("count", 3, 5*time.Millisecond, nil)

	after := testutil.ToFloat64(QueriesTotal.WithLabelValues("count", "ok"))
	if after != before+1 {
		t.Errorf("expected queries_total to grow by 1, got %f -> %f", before, after)
	}
	if testutil.CollectAndCount(QueryDuration) == 0 {
		t.Error("expected query_duration_seconds to have observations")
	}
}

func TestRecorder_ObserveRank(t *testing.T) {
	var r Recorder
	before := testutil.ToFloat64(RankUnconvergedTotal)
	r.ObserveRank(3, true)
	r.ObserveRank(10, false)

	if got := testutil.ToFloat64(RankUnconvergedTotal); got != before+1 {
		t.Errorf("expected rank_unconverged_total %f, got %f", before+1, got)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{domain.ErrNoData, "no_data"},
		{fmt.Errorf("wrap: %w", domain.ErrBadLimit), "invalid"},
		{domain.NewUnknownField("x", nil), "invalid"},
		{errors.New("boom"), "error"},
	}
	for _, tc := range tests {
		if got := status(tc.err); got != tc.want {
			t.Errorf("status(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestRegisterQueryMetrics_Idempotent(t *testing.T) {
	RegisterQueryMetrics()
	RegisterQueryMetrics()
}
