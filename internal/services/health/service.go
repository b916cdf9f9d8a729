package health

import (
	"context"
	"sort"
	"time"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// Service runs the registered dependency checks.
type Service struct {
	checks  map[string]Check
	timeout time.Duration
}

// Report is the outcome of a health probe.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewService constructs a new health service.
func NewService(timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{checks: map[string]Check{}, timeout: timeout}
}

// Register adds a named check. A nil check is ignored.
func (s *Service) Register(name string, check Check) {
	if check == nil {
		return
	}
	s.checks[name] = check
}

// Status runs every check with a shared deadline.
func (s *Service) Status(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report := Report{OK: true}
	if len(names) == 0 {
		return report
	}
	report.Checks = make(map[string]string, len(names))
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			report.OK = false
			report.Checks[name] = err.Error()
			continue
		}
		report.Checks[name] = "ok"
	}
	return report
}
