package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatusWithoutChecks(t *testing.T) {
	report := NewService(0).Status(context.Background())
	if !report.OK || report.Checks != nil {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestStatusReportsFailingCheck(t *testing.T) {
	svc := NewService(0)
	svc.Register("database", func(context.Context) error { return errors.New("connection refused") })
	svc.Register("index", func(context.Context) error { return nil })
	svc.Register("ignored", nil)

	report := svc.Status(context.Background())
	if report.OK {
		t.Fatalf("expected failing report")
	}
	if report.Checks["database"] != "connection refused" || report.Checks["index"] != "ok" {
		t.Fatalf("unexpected checks: %+v", report.Checks)
	}
	if _, ok := report.Checks["ignored"]; ok {
		t.Fatalf("nil check should not be registered")
	}
}
