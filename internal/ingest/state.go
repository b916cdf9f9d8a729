package ingest

import (
	"github.com/jirafa27/DocumentSearcher/internal/shared/metrics"
	"github.com/jirafa27/DocumentSearcher/internal/shared/telemetry"
)

// State is a step of the ingestion lifecycle.
type State string

const (
	StateReceived  State = "received"
	StateValidated State = "validated"
	StateExtracted State = "extracted"
	StateStored    State = "stored"
	StateIndexed   State = "indexed"
	StateComplete  State = "complete"
	StateFailed    State = "failed"
)

// run tracks one operation through its states.
type run struct {
	op         string
	documentID string
	state      State
}

func newRun(op, documentID string) *run {
	r := &run{op: op, documentID: documentID}
	r.to(StateReceived)
	return r
}

func (r *run) to(s State) {
	r.state = s
	metrics.IncIngestState(string(s))
	telemetry.Debug("ingest.state", map[string]any{
		"op":          r.op,
		"document_id": r.documentID,
		"state":       string(s),
	})
}

// fail records the transition to Failed and returns err unchanged.
func (r *run) fail(err error) error {
	from := r.state
	r.state = StateFailed
	metrics.IncIngestState(string(StateFailed))
	metrics.IncIngest(r.op, "failed")
	telemetry.Warn("ingest.failed", map[string]any{
		"op":          r.op,
		"document_id": r.documentID,
		"from":        string(from),
		"reason":      err,
	})
	return err
}
