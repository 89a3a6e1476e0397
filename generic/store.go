/*
store.go - Persistence interfaces for resources, claim records and audit

PURPOSE:
  Defines the interface between the lifecycle engine and the database.
  Different implementations can use SQLite, PostgreSQL, or in-memory storage.

KEY INTERFACES:
  Store:   resource/record/audit persistence, usable standalone or tx-scoped
  TxStore: Store plus WithTx, the engine's transaction coordinator

TRANSACTION CONTRACT:
  Every guarded sequence (claim, release, restore, decide, sweep step) runs
  inside WithTx. The fn receives a Store handle scoped to that transaction;
  all reads used for invariant checks MUST go through that handle so they
  observe the transaction's own snapshot. Exactly one commit or rollback
  happens per WithTx call, and the handle must not escape fn.

LOCKING DISCIPLINE:
  Implementations must make the read-validate-write sequence atomic with
  respect to concurrent transactions on the same resource: either serialize
  writers (SQLite single-writer, BEGIN IMMEDIATE) or take row-level locks on
  the resource's records (SELECT ... FOR UPDATE on PostgreSQL). A defensive
  count check alone does not prevent races, only detects some symptoms.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: production SQLite
  - generic/store/memory.go: in-memory for testing

SEE ALSO:
  - guard.go, workflow.go, sweeper.go: the Store's consumers
*/
package generic

import "context"

// =============================================================================
// STORE - Persistence operations available inside and outside transactions
// =============================================================================

// Store handles persistence of resources, claim records and audit entries.
type Store interface {
	// --- Resources ---

	// GetResource returns the resource, or (nil, nil) if absent.
	GetResource(ctx context.Context, id ResourceID) (*Resource, error)

	// SaveResource inserts or updates a resource.
	SaveResource(ctx context.Context, r Resource) error

	// SetResourceStatus updates only the status field.
	// Call through StateSynchronizer, never directly.
	SetResourceStatus(ctx context.Context, id ResourceID, status ResourceStatus) error

	// ListResources returns all resources in a domain, ordered by name.
	ListResources(ctx context.Context, domain string) ([]Resource, error)

	// --- Claim records ---

	// GetRecord returns the record, or (nil, nil) if absent.
	GetRecord(ctx context.Context, id RecordID) (*ClaimRecord, error)

	// InsertRecord persists a new record.
	InsertRecord(ctx context.Context, rec ClaimRecord) error

	// UpdateRecord persists changes to an existing record.
	UpdateRecord(ctx context.Context, rec ClaimRecord) error

	// RecordsByResource returns all records for a resource ordered by
	// interval start descending (most recent claim first).
	RecordsByResource(ctx context.Context, id ResourceID) ([]ClaimRecord, error)

	// RecordsBySubject returns all live (Tag=Active) records for a subject
	// with the given status, ordered by interval start ascending.
	RecordsBySubject(ctx context.Context, id SubjectID, status RecordStatus) ([]ClaimRecord, error)

	// CountActive returns the number of exclusive records with Tag=Active
	// for the resource. Used by the release-time consistency check.
	CountActive(ctx context.Context, id ResourceID) (int, error)

	// PurgeReclaimable hard-deletes every Tag=Reclaimable record for the
	// resource except the excluded one (pass "" to purge all). Returns the
	// number of rows purged.
	PurgeReclaimable(ctx context.Context, id ResourceID, exclude RecordID) (int, error)

	// ExpiredApproved returns approved, live records whose interval has a
	// closed end strictly before asOf, ordered by end ascending.
	ExpiredApproved(ctx context.Context, asOf Date) ([]ClaimRecord, error)

	// --- Audit ---

	// AppendAudit persists an audit entry. Append-only.
	AppendAudit(ctx context.Context, entry AuditEntry) error
}

// =============================================================================
// TRANSACTIONAL STORE - The engine's transaction coordinator
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back and the error
	// propagated; otherwise it is committed. No partial writes are ever
	// observable outside a committed transaction.
	WithTx(ctx context.Context, fn func(Store) error) error
}
