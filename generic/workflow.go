/*
workflow.go - Approval state machine for pending claims

PURPOSE:
  Governs the Pending -> Approved/Rejected transition for claims that need a
  reviewer's decision. Decisions are terminal: there is no un-approve path.

STATE MACHINE:

          ┌──────────┐   Decide(Approved)   ┌──────────┐
          │ Pending  │─────────────────────▶│ Approved │  (resource status
          └──────────┘                      └──────────┘   set to the claim's
                │                                          category status)
                │         Decide(Rejected)  ┌──────────┐
                └──────────────────────────▶│ Rejected │  (no resource
                                            └──────────┘   mutation)

TRANSITION PRECONDITIONS:
  - Record must be Pending (deciding twice is a Conflict)
  - Reviewer identity must differ from the requester (no self-approval)
  - On Approved: the resource must resolve, and the interval must not
    overlap any other approved record for the subject (the overlap check
    runs again here, excluding self, to close the race where two requests
    are created concurrently and approved out of order)

SIDE EFFECTS:
  The resource mutation and record update are transactional. Notification of
  the requester is NOT: callers fire it after commit, best-effort, and log
  failures without rolling back the decision.

SEE ALSO:
  - overlap.go: the re-checked non-overlap invariant
  - notify.go:  post-commit notification contract
  - leave/service.go: the approval domain using this workflow
*/
package generic

import (
	"context"
	"fmt"
	"time"
)

// Decision is the reviewer's verdict.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// DecisionInput carries everything the workflow needs to decide a record.
// ClaimedStatus is the resource status an approval should project (domain
// packages derive it from the record's category).
type DecisionInput struct {
	RecordID      RecordID
	ReviewerID    string
	Decision      Decision
	Comment       string
	ClaimedStatus ResourceStatus
}

// Workflow is the Pending -> Approved/Rejected state machine.
type Workflow struct {
	Overlap OverlapChecker
	Sync    StateSynchronizer
}

// Decide applies the reviewer's verdict to a pending record. Runs inside the
// caller's transaction; every precondition failure aborts it. Returns the
// updated record.
func (w Workflow) Decide(ctx context.Context, s Store, in DecisionInput) (*ClaimRecord, error) {
	if !in.Decision.Valid() {
		return nil, &ValidationFieldError{Field: "decision", Message: fmt.Sprintf("unknown decision %q", in.Decision)}
	}

	rec, err := s.GetRecord(ctx, in.RecordID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Tag != TagActive {
		return nil, &NotFoundError{Kind: "record", ID: string(in.RecordID)}
	}
	if rec.Status != StatusPending {
		return nil, &ConflictError{
			Message: fmt.Sprintf("record %s was already decided (%s)", rec.ID, rec.Status),
		}
	}
	if in.ReviewerID == string(rec.RequesterID) {
		return nil, &PermissionError{
			ActorID: in.ReviewerID,
			Message: "requesters cannot decide their own request",
		}
	}

	now := time.Now().UTC()

	switch in.Decision {
	case DecisionApproved:
		res, err := s.GetResource(ctx, rec.ResourceID)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return nil, &ValidationFieldError{
				Field:   "resource",
				Message: fmt.Sprintf("resource %s for record %s cannot be resolved", rec.ResourceID, rec.ID),
			}
		}

		if err := w.Overlap.AssertNoOverlap(ctx, s, rec.SubjectID, rec.Interval, rec.ID); err != nil {
			return nil, err
		}

		if _, err := w.Sync.Transition(ctx, s, res, in.ClaimedStatus); err != nil {
			return nil, err
		}
		rec.Status = StatusApproved

	case DecisionRejected:
		// No resource mutation on rejection.
		rec.Status = StatusRejected
	}

	rec.DecidedBy = in.ReviewerID
	rec.DecidedAt = &now
	rec.Comment = in.Comment
	rec.UpdatedAt = now
	if err := s.UpdateRecord(ctx, *rec); err != nil {
		return nil, fmt.Errorf("failed to persist decision: %w", err)
	}
	return rec, nil
}
