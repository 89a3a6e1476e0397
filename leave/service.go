/*
service.go - Leave request lifecycle

PURPOSE:
  Orchestrates the leave request lifecycle around the approval workflow and
  the non-overlap invariant:

    CreateRequest  validate dates/payload, check overlap, persist Pending
    Decide         Pending -> Approved/Rejected with reviewer rules;
                   approval projects the category status onto the employee
    SweepExpired   revert employees whose approved leave has elapsed

REQUEST FLOW:

  Employee submits    Validate dates,    Persist as     Reviewer
  request        ──▶  payload, overlap ─▶  Pending  ──▶ decides
                                                          │
                                       ┌──────────┐       ▼
                                       │ Approved │──▶ employment status =
                                       └──────────┘    category status
                                       ┌──────────┐
                                       │ Rejected │──▶ no status change
                                       └──────────┘

  The overlap check runs twice: at creation against already-approved
  records, and again at approval excluding self. The second check closes
  the race where two requests are created concurrently and approved out
  of order.

NOTIFICATION:
  The requester is notified after the decision commits. Notification is
  best-effort; a failure is logged, never propagated.

SEE ALSO:
  - generic/workflow.go: the decision state machine
  - generic/sweeper.go:  the expiry mechanics behind SweepExpired
*/
package leave

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/warp/lifecycle-engine/generic"
)

// Service handles the leave request lifecycle.
type Service struct {
	Store    generic.TxStore
	Notifier generic.Notifier

	workflow generic.Workflow
	overlap  generic.OverlapChecker
}

// NewService creates a leave service on the given store. A nil notifier
// falls back to the log notifier.
func NewService(store generic.TxStore, notifier generic.Notifier) *Service {
	if notifier == nil {
		notifier = generic.LogNotifier{}
	}
	return &Service{Store: store, Notifier: notifier}
}

// RequestInput is the payload for filing a leave request.
type RequestInput struct {
	EmployeeID    generic.ResourceID
	Requester     Identity
	Category      Category
	Start         generic.Date
	End           generic.Date
	Reason        string
	AttachmentRef string
}

// validate applies the creation-time rules: dates well-formed and not in the
// past, end strictly after start, category payload present or absent as the
// category demands.
func (in RequestInput) validate(today generic.Date) error {
	if in.EmployeeID == "" {
		return &generic.ValidationFieldError{Field: "employee_id", Message: "employee id is required"}
	}
	if !in.Category.Valid() {
		return &generic.ValidationFieldError{Field: "category", Message: fmt.Sprintf("unknown category %q", in.Category)}
	}
	if in.Start.IsZero() {
		return &generic.ValidationFieldError{Field: "start", Message: "start date is required"}
	}
	if in.End.IsZero() {
		return &generic.ValidationFieldError{Field: "end", Message: "end date is required"}
	}
	if in.Start.Before(today) {
		return &generic.ValidationFieldError{Field: "start", Message: "start date cannot be in the past"}
	}
	if !in.End.After(in.Start) {
		return &generic.ValidationFieldError{Field: "end", Message: "end date must be after start date"}
	}
	if in.Category.RequiresAttachment() && in.AttachmentRef == "" {
		return &generic.ValidationFieldError{Field: "attachment_ref", Message: string(in.Category) + " leave requires a supporting document"}
	}
	if !in.Category.RequiresAttachment() && in.AttachmentRef != "" {
		return &generic.ValidationFieldError{Field: "attachment_ref", Message: string(in.Category) + " leave does not take a supporting document"}
	}
	return nil
}

// CreateRequest files a Pending leave request. The requested interval must
// not overlap any approved interval for the employee.
func (s *Service) CreateRequest(ctx context.Context, in RequestInput) (*generic.ClaimRecord, error) {
	if err := in.validate(generic.Today()); err != nil {
		return nil, err
	}

	rec := &generic.ClaimRecord{
		ID:            generic.RecordID(generic.NewID()),
		ResourceID:    in.EmployeeID,
		SubjectID:     generic.SubjectID(in.EmployeeID),
		RequesterID:   generic.SubjectID(in.Requester.ID),
		Interval:      generic.NewInterval(in.Start, in.End),
		Status:        generic.StatusPending,
		Tag:           generic.TagActive,
		Category:      string(in.Category),
		AttachmentRef: in.AttachmentRef,
		Reason:        in.Reason,
	}

	err := s.Store.WithTx(ctx, func(tx generic.Store) error {
		emp, err := tx.GetResource(ctx, in.EmployeeID)
		if err != nil {
			return err
		}
		if emp == nil || emp.Domain != Domain {
			return &generic.NotFoundError{Kind: "employee", ID: string(in.EmployeeID)}
		}
		if emp.Status == StatusTerminated {
			return &generic.ConflictError{Message: fmt.Sprintf("employee %s is terminated", emp.ID)}
		}

		if err := s.overlap.AssertNoOverlap(ctx, tx, rec.SubjectID, rec.Interval, ""); err != nil {
			return err
		}

		now := time.Now().UTC()
		rec.CreatedAt = now
		rec.UpdatedAt = now
		if err := tx.InsertRecord(ctx, *rec); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, generic.NewAuditEntry(in.Requester.ID, generic.AuditClaimCreated,
			in.EmployeeID, rec.ID, fmt.Sprintf("%s leave requested for %s", in.Category, rec.Interval)))
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Decide applies a reviewer's verdict to a pending request. The reviewer
// must hold a reviewing role and must not be the requester. On approval the
// employee's status flips to the category's on-leave status. The requester
// is notified after commit, best-effort.
func (s *Service) Decide(ctx context.Context, requestID generic.RecordID, reviewer Identity, decision generic.Decision, comment string) (*generic.ClaimRecord, error) {
	if !reviewer.Role.CanReview() {
		return nil, &generic.PermissionError{
			ActorID: reviewer.ID,
			Message: fmt.Sprintf("role %s cannot decide requests", reviewer.Role),
		}
	}

	var decided *generic.ClaimRecord
	err := s.Store.WithTx(ctx, func(tx generic.Store) error {
		rec, err := tx.GetRecord(ctx, requestID)
		if err != nil {
			return err
		}
		if rec == nil || rec.Category == "" || !Category(rec.Category).Valid() {
			return &generic.NotFoundError{Kind: "request", ID: string(requestID)}
		}

		decided, err = s.workflow.Decide(ctx, tx, generic.DecisionInput{
			RecordID:      requestID,
			ReviewerID:    reviewer.ID,
			Decision:      decision,
			Comment:       comment,
			ClaimedStatus: Category(rec.Category).Status(),
		})
		if err != nil {
			return err
		}

		action := generic.AuditApproved
		if decision == generic.DecisionRejected {
			action = generic.AuditRejected
		}
		return tx.AppendAudit(ctx, generic.NewAuditEntry(reviewer.ID, action,
			decided.ResourceID, decided.ID, comment))
	})
	if err != nil {
		return nil, err
	}

	// Decision is durable at this point; notification must not undo it.
	if nerr := s.Notifier.NotifyDecision(ctx, *decided); nerr != nil {
		log.Printf("[Leave] failed to notify requester %s about %s: %v", decided.RequesterID, decided.ID, nerr)
	}
	return decided, nil
}

// SweepExpired reverts every employee whose approved leave ended strictly
// before now and whom no other approved leave currently covers. Returns the
// number of employees transitioned back to Working. Idempotent.
func (s *Service) SweepExpired(ctx context.Context, now generic.Date) (int, error) {
	sweeper := &generic.Sweeper{
		Store:    s.Store,
		Baseline: StatusWorking,
		Domain:   Domain,
	}
	return sweeper.Sweep(ctx, now)
}

// =============================================================================
// EMPLOYEE MANAGEMENT & QUERIES
// =============================================================================

// RegisterEmployee adds a new Working employee.
func (s *Service) RegisterEmployee(ctx context.Context, id generic.ResourceID, name string) (*generic.Resource, error) {
	if id == "" {
		return nil, &generic.ValidationFieldError{Field: "id", Message: "employee id is required"}
	}
	e := NewEmployee(id, name)
	e.CreatedAt = time.Now().UTC()
	if err := s.Store.SaveResource(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEmployee returns an employee by id.
func (s *Service) GetEmployee(ctx context.Context, id generic.ResourceID) (*generic.Resource, error) {
	e, err := s.Store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil || e.Domain != Domain {
		return nil, &generic.NotFoundError{Kind: "employee", ID: string(id)}
	}
	return e, nil
}

// ListEmployees returns all employees.
func (s *Service) ListEmployees(ctx context.Context) ([]generic.Resource, error) {
	return s.Store.ListResources(ctx, Domain)
}

// EmployeeRequests returns an employee's leave requests, most recent first.
func (s *Service) EmployeeRequests(ctx context.Context, id generic.ResourceID) ([]generic.ClaimRecord, error) {
	return s.Store.RecordsByResource(ctx, id)
}

// GetRequest returns a leave request by id.
func (s *Service) GetRequest(ctx context.Context, id generic.RecordID) (*generic.ClaimRecord, error) {
	rec, err := s.Store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil || !Category(rec.Category).Valid() {
		return nil, &generic.NotFoundError{Kind: "request", ID: string(id)}
	}
	return rec, nil
}
