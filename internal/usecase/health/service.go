package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Documents int
	Checks    map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	index IndexSizer
	db    Pinger
	marks Pinger
}

// New creates a Service. db and marks can be nil.
func New(index IndexSizer, db, marks Pinger) *Service {
	return &Service{index: index, db: db, marks: marks}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	docs := 0
	if s.index == nil {
		checks["index"] = CheckError
	} else {
		docs = s.index.Len()
		checks["index"] = CheckOK
	}
	if s.db != nil {
		checks["database"] = ping(ctx, s.db)
	}
	if s.marks != nil {
		checks["marks"] = ping(ctx, s.marks)
	}

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}
	status := Healthy
	switch {
	case failed == len(checks) || checks["index"] == CheckError:
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Documents: docs, Checks: checks}
}

func ping(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
