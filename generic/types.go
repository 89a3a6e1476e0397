/*
Package generic provides the core exclusive-claim lifecycle engine.

PURPOSE:
  This package contains domain-agnostic types and algorithms for keeping a
  resource's status consistent with a set of time-scoped claim records under
  concurrent mutation. Whether the resource is a machine being sold or an
  employment record affected by leave, the same engine enforces the two
  invariants:

    exclusivity:  at most one active exclusive claim per resource
    non-overlap:  no two approved claims for a subject share a day

KEY CONCEPTS IN THIS FILE (types.go):
  - Resource:     the guarded entity with a mutable status field
  - ClaimRecord:  a time-scoped claim against a Resource
  - LifecycleTag: Active / Reclaimable / Purged soft-delete lifecycle
  - RecordStatus: Pending / Approved / Rejected approval state

DESIGN PRINCIPLES:
  1. Status discipline: Resource.Status is written only by StateSynchronizer
  2. Explicit transactions: every guarded sequence runs on a tx-scoped Store
  3. Type safety: strong typing for ids and closed status enumerations
  4. Auditability: every lifecycle mutation appends an AuditEntry

SEE ALSO:
  - guard.go:    exclusivity enforcement and purge-on-claim
  - workflow.go: Pending -> Approved/Rejected state machine
  - sweeper.go:  expiry detection and baseline revert
  - store.go:    persistence interfaces
*/
package generic

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ResourceID string
type RecordID string
type SubjectID string

// NewID returns a fresh unique identifier.
func NewID() string { return uuid.NewString() }

// =============================================================================
// RESOURCE - The guarded entity
// =============================================================================

// ResourceStatus is the resource's lifecycle status. Domain packages define
// closed sets of constants (e.g. sales.StatusAvailable, leave.StatusWorking);
// the engine only ever compares and assigns them, never interprets them.
type ResourceStatus string

// Resource is the entity whose status field the engine guards. Its status is
// mutated only through StateSynchronizer as a side effect of claim lifecycle
// transitions, never directly.
type Resource struct {
	ID        ResourceID
	Domain    string // which domain package owns it ("sales", "leave")
	Name      string
	Status    ResourceStatus
	CreatedAt time.Time
}

// =============================================================================
// CLAIM RECORD - A time-scoped claim against a Resource
// =============================================================================

// RecordStatus tracks the approval state machine. Decisions are terminal:
// once Approved or Rejected, a record never returns to Pending.
type RecordStatus string

const (
	StatusPending  RecordStatus = "pending"
	StatusApproved RecordStatus = "approved"
	StatusRejected RecordStatus = "rejected"
)

// LifecycleTag tracks the soft-delete lifecycle of a record, separate from
// its approval status.
//
//	Active      -> the record is live
//	Reclaimable -> soft-deleted; restorable until the resource is claimed anew
//	Purged      -> transition marker assigned while reclaimable rows are being
//	               hard-deleted during a fresh claim; never persisted
type LifecycleTag string

const (
	TagActive      LifecycleTag = "active"
	TagReclaimable LifecycleTag = "reclaimable"
	TagPurged      LifecycleTag = "purged"
)

// ClaimRecord represents a time-scoped claim on a Resource: a sale holding a
// machine, a leave grant covering an employee's calendar.
type ClaimRecord struct {
	ID         RecordID
	ResourceID ResourceID
	SubjectID  SubjectID // counterparty or requester the interval belongs to
	Interval   Interval

	Status RecordStatus
	Tag    LifecycleTag

	// Exclusive marks claims that participate in the exclusivity invariant: at most
	// one exclusive record with Tag=Active may exist per resource.
	Exclusive bool

	// Payload (use-case specific, optional)
	Category      string
	Price         *decimal.Decimal
	AttachmentRef string
	Reason        string

	// Approval tracking
	RequesterID SubjectID
	DecidedBy   string
	DecidedAt   *time.Time
	Comment     string

	// Audit fields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsVigent reports whether the record currently governs its subject: an
// approved, live record whose interval covers the given date.
func (r *ClaimRecord) IsVigent(asOf Date) bool {
	return r.Status == StatusApproved && r.Tag == TagActive && r.Interval.Contains(asOf)
}

// =============================================================================
// AUDIT LOG - Who did what when (separate from the records themselves)
// =============================================================================

type AuditAction string

const (
	AuditClaimCreated  AuditAction = "claim_created"
	AuditClaimReleased AuditAction = "claim_released"
	AuditClaimRestored AuditAction = "claim_restored"
	AuditClaimPurged   AuditAction = "claim_purged"
	AuditApproved      AuditAction = "request_approved"
	AuditRejected      AuditAction = "request_rejected"
	AuditSweepReverted AuditAction = "sweep_reverted"
)

// AuditEntry records a lifecycle mutation. Entries are appended in the same
// transaction as the mutation they describe.
type AuditEntry struct {
	ID         string
	At         time.Time
	ActorID    string
	Action     AuditAction
	ResourceID ResourceID
	RecordID   RecordID
	Detail     string
}

// NewAuditEntry builds an entry timestamped now.
func NewAuditEntry(actor string, action AuditAction, resourceID ResourceID, recordID RecordID, detail string) AuditEntry {
	return AuditEntry{
		ID:         NewID(),
		At:         time.Now().UTC(),
		ActorID:    actor,
		Action:     action,
		ResourceID: resourceID,
		RecordID:   recordID,
		Detail:     detail,
	}
}
