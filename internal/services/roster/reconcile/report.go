package reconcile

import "time"

// Outcome classifies one area's dispatch result within a run.
type Outcome string

const (
	// OutcomeSent means the notification went out and the watermark advanced.
	OutcomeSent Outcome = "sent"
	// OutcomeNoChange means the area's net diff was empty, including the
	// only-cancelling-traffic case.
	OutcomeNoChange Outcome = "no_change"
	// OutcomeNoLeader means the diff was non-empty but the area has no
	// active leader to notify.
	OutcomeNoLeader Outcome = "no_leader"
	// OutcomeStoreFailed means a store read failed while preparing dispatch.
	OutcomeStoreFailed Outcome = "store_failed"
	// OutcomeSendFailed means the mail transport failed; the watermark is
	// untouched and the diff retries next run.
	OutcomeSendFailed Outcome = "send_failed"
	// OutcomeAdvanceFailed means the send succeeded but the watermark
	// compare-and-set did not; the next run may resend this window.
	OutcomeAdvanceFailed Outcome = "advance_failed"
)

// AreaResult records one area's processing within a run.
type AreaResult struct {
	Area       string
	Outcome    Outcome
	Arrivals   int
	Departures int
	Recipients int
	AdvancedTo time.Time
	Err        string
}

func (r AreaResult) failed(outcome Outcome, err error) AreaResult {
	r.Outcome = outcome
	if err != nil {
		r.Err = err.Error()
	}
	return r
}

// Report summarizes one reconciliation run.
type Report struct {
	Kind      Kind
	StartedAt time.Time
	Events    int
	Areas     []AreaResult
}

// Sent counts areas whose notification was dispatched and committed.
func (r Report) Sent() int {
	return r.count(OutcomeSent)
}

// Failed counts areas whose dispatch must be retried next run.
func (r Report) Failed() int {
	return r.count(OutcomeStoreFailed) + r.count(OutcomeSendFailed) + r.count(OutcomeAdvanceFailed)
}

func (r Report) count(outcome Outcome) int {
	total := 0
	for _, area := range r.Areas {
		if area.Outcome == outcome {
			total++
		}
	}
	return total
}
