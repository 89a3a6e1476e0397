/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.Store and generic.TxStore using SQLite. In production,
  the same patterns apply to PostgreSQL - only minor SQL dialect differences
  (and SELECT ... FOR UPDATE instead of BEGIN IMMEDIATE).

KEY TABLES:
  resources:  the guarded entities (machines, employees) with their status
  claims:     time-scoped claim records against resources
  audit_log:  append-only trail of lifecycle mutations
  sweep_runs: bookkeeping for scheduled expiry sweeps

EXCLUSIVITY BACKSTOP:
  A partial unique index allows at most one live exclusive claim per
  resource. The engine checks this before inserting; the index catches
  anything that slips past it.

    CREATE UNIQUE INDEX idx_claims_exclusive_active
      ON claims(resource_id) WHERE tag = 'active' AND exclusive = 1

TRANSACTION SCOPING:
  WithTx hands the callback a store handle bound to the open *sql.Tx. Every
  method runs against an internal dbtx interface satisfied by both *sql.DB
  and *sql.Tx, so reads made inside WithTx observe the transaction's own
  uncommitted writes. The connection opens with _txlock=immediate: the write
  lock is taken at BEGIN, serializing claim transactions against each other.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/lifecycle.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - generic/store.go: Interface definitions and the transaction contract
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/lifecycle-engine/generic"
)

// Store implements generic.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Resources (machines, employees)
	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_resources_domain
		ON resources(domain, name);

	-- Claim records
	CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL REFERENCES resources(id),
		subject_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		status TEXT NOT NULL,
		tag TEXT NOT NULL,
		exclusive INTEGER NOT NULL DEFAULT 0,
		category TEXT,
		price TEXT,
		attachment_ref TEXT,
		reason TEXT,
		requester_id TEXT,
		decided_by TEXT,
		decided_at TEXT,
		comment TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_claims_resource
		ON claims(resource_id, start_date DESC);
	CREATE INDEX IF NOT EXISTS idx_claims_subject
		ON claims(subject_id, status, tag);
	CREATE INDEX IF NOT EXISTS idx_claims_expiry
		ON claims(status, tag, end_date) WHERE end_date IS NOT NULL;

	-- CRITICAL: at most one live exclusive claim per resource
	CREATE UNIQUE INDEX IF NOT EXISTS idx_claims_exclusive_active
		ON claims(resource_id) WHERE tag = 'active' AND exclusive = 1;

	-- Audit log (append-only)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		record_id TEXT,
		detail TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_resource
		ON audit_log(resource_id, at);

	-- Sweep runs (for the scheduled expiry sweeper)
	CREATE TABLE IF NOT EXISTS sweep_runs (
		id TEXT PRIMARY KEY,
		as_of TEXT NOT NULL,
		reverted INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sweep_runs_started
		ON sweep_runs(started_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx. Store methods run against
// it so that the same code serves direct calls and tx-scoped calls.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// RESOURCES
// =============================================================================

func (s *Store) GetResource(ctx context.Context, id generic.ResourceID) (*generic.Resource, error) {
	return getResource(ctx, s.db, id)
}

func getResource(ctx context.Context, db dbtx, id generic.ResourceID) (*generic.Resource, error) {
	var r generic.Resource
	var createdAt string

	err := db.QueryRowContext(ctx,
		"SELECT id, domain, name, status, created_at FROM resources WHERE id = ?",
		id,
	).Scan(&r.ID, &r.Domain, &r.Name, &r.Status, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load resource: %w", err)
	}

	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &r, nil
}

func (s *Store) SaveResource(ctx context.Context, r generic.Resource) error {
	return saveResource(ctx, s.db, r)
}

func saveResource(ctx context.Context, db dbtx, r generic.Resource) error {
	query := `
		INSERT INTO resources (id, domain, name, status, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status
	`
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, query,
		r.ID, r.Domain, r.Name, r.Status, createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save resource: %w", err)
	}
	return nil
}

func (s *Store) SetResourceStatus(ctx context.Context, id generic.ResourceID, status generic.ResourceStatus) error {
	return setResourceStatus(ctx, s.db, id, status)
}

func setResourceStatus(ctx context.Context, db dbtx, id generic.ResourceID, status generic.ResourceStatus) error {
	res, err := db.ExecContext(ctx,
		"UPDATE resources SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update resource status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &generic.NotFoundError{Kind: "resource", ID: string(id)}
	}
	return nil
}

func (s *Store) ListResources(ctx context.Context, domain string) ([]generic.Resource, error) {
	return listResources(ctx, s.db, domain)
}

func listResources(ctx context.Context, db dbtx, domain string) ([]generic.Resource, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, domain, name, status, created_at FROM resources WHERE domain = ? ORDER BY name",
		domain,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	var resources []generic.Resource
	for rows.Next() {
		var r generic.Resource
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Domain, &r.Name, &r.Status, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

// =============================================================================
// CLAIM RECORDS
// =============================================================================

const claimColumns = `id, resource_id, subject_id, start_date, end_date, status, tag,
	exclusive, category, price, attachment_ref, reason,
	requester_id, decided_by, decided_at, comment, created_at, updated_at`

func (s *Store) GetRecord(ctx context.Context, id generic.RecordID) (*generic.ClaimRecord, error) {
	return getRecord(ctx, s.db, id)
}

func getRecord(ctx context.Context, db dbtx, id generic.RecordID) (*generic.ClaimRecord, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+claimColumns+" FROM claims WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	rec, err := scanClaim(rows)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) InsertRecord(ctx context.Context, rec generic.ClaimRecord) error {
	return insertRecord(ctx, s.db, rec)
}

func insertRecord(ctx context.Context, db dbtx, rec generic.ClaimRecord) error {
	query := `
		INSERT INTO claims
		(id, resource_id, subject_id, start_date, end_date, status, tag,
		 exclusive, category, price, attachment_ref, reason,
		 requester_id, decided_by, decided_at, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query, claimArgs(rec)...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &generic.ConflictError{
				Message: fmt.Sprintf("resource %s already has a live exclusive claim", rec.ResourceID),
			}
		}
		return fmt.Errorf("failed to insert claim: %w", err)
	}
	return nil
}

func (s *Store) UpdateRecord(ctx context.Context, rec generic.ClaimRecord) error {
	return updateRecord(ctx, s.db, rec)
}

func updateRecord(ctx context.Context, db dbtx, rec generic.ClaimRecord) error {
	query := `
		UPDATE claims SET
			resource_id = ?, subject_id = ?, start_date = ?, end_date = ?,
			status = ?, tag = ?, exclusive = ?, category = ?, price = ?,
			attachment_ref = ?, reason = ?, requester_id = ?, decided_by = ?,
			decided_at = ?, comment = ?, created_at = ?, updated_at = ?
		WHERE id = ?
	`
	args := claimArgs(rec)
	args = append(args[1:], args[0]) // id moves to the WHERE clause

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &generic.ConflictError{
				Message: fmt.Sprintf("resource %s already has a live exclusive claim", rec.ResourceID),
			}
		}
		return fmt.Errorf("failed to update claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &generic.NotFoundError{Kind: "claim", ID: string(rec.ID)}
	}
	return nil
}

func (s *Store) RecordsByResource(ctx context.Context, id generic.ResourceID) ([]generic.ClaimRecord, error) {
	return recordsByResource(ctx, s.db, id)
}

func recordsByResource(ctx context.Context, db dbtx, id generic.ResourceID) ([]generic.ClaimRecord, error) {
	return queryClaims(ctx, db,
		"SELECT "+claimColumns+" FROM claims WHERE resource_id = ? ORDER BY start_date DESC, created_at DESC",
		id)
}

func (s *Store) RecordsBySubject(ctx context.Context, id generic.SubjectID, status generic.RecordStatus) ([]generic.ClaimRecord, error) {
	return recordsBySubject(ctx, s.db, id, status)
}

func recordsBySubject(ctx context.Context, db dbtx, id generic.SubjectID, status generic.RecordStatus) ([]generic.ClaimRecord, error) {
	return queryClaims(ctx, db,
		"SELECT "+claimColumns+" FROM claims WHERE subject_id = ? AND status = ? AND tag = ? ORDER BY start_date ASC",
		id, status, generic.TagActive)
}

func (s *Store) CountActive(ctx context.Context, id generic.ResourceID) (int, error) {
	return countActive(ctx, s.db, id)
}

func countActive(ctx context.Context, db dbtx, id generic.ResourceID) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM claims WHERE resource_id = ? AND tag = ? AND exclusive = 1",
		id, generic.TagActive,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active claims: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeReclaimable(ctx context.Context, id generic.ResourceID, exclude generic.RecordID) (int, error) {
	return purgeReclaimable(ctx, s.db, id, exclude)
}

func purgeReclaimable(ctx context.Context, db dbtx, id generic.ResourceID, exclude generic.RecordID) (int, error) {
	res, err := db.ExecContext(ctx,
		"DELETE FROM claims WHERE resource_id = ? AND tag = ? AND id != ?",
		id, generic.TagReclaimable, exclude)
	if err != nil {
		return 0, fmt.Errorf("failed to purge reclaimable claims: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) ExpiredApproved(ctx context.Context, asOf generic.Date) ([]generic.ClaimRecord, error) {
	return expiredApproved(ctx, s.db, asOf)
}

func expiredApproved(ctx context.Context, db dbtx, asOf generic.Date) ([]generic.ClaimRecord, error) {
	return queryClaims(ctx, db,
		"SELECT "+claimColumns+" FROM claims WHERE status = ? AND tag = ? AND end_date IS NOT NULL AND end_date < ? ORDER BY end_date ASC",
		generic.StatusApproved, generic.TagActive, asOf.String())
}

func queryClaims(ctx context.Context, db dbtx, query string, args ...any) ([]generic.ClaimRecord, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	var records []generic.ClaimRecord
	for rows.Next() {
		rec, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func claimArgs(rec generic.ClaimRecord) []any {
	var endDate any
	if rec.Interval.End != nil {
		endDate = rec.Interval.End.String()
	}
	var price any
	if rec.Price != nil {
		price = rec.Price.String()
	}
	var decidedAt any
	if rec.DecidedAt != nil {
		decidedAt = rec.DecidedAt.Format(time.RFC3339)
	}

	return []any{
		rec.ID,
		rec.ResourceID,
		rec.SubjectID,
		rec.Interval.Start.String(),
		endDate,
		rec.Status,
		rec.Tag,
		boolToInt(rec.Exclusive),
		rec.Category,
		price,
		rec.AttachmentRef,
		rec.Reason,
		rec.RequesterID,
		rec.DecidedBy,
		decidedAt,
		rec.Comment,
		rec.CreatedAt.Format(time.RFC3339),
		rec.UpdatedAt.Format(time.RFC3339),
	}
}

func scanClaim(rows *sql.Rows) (generic.ClaimRecord, error) {
	var (
		rec           generic.ClaimRecord
		startDate     string
		endDate       sql.NullString
		exclusive     int
		category      sql.NullString
		price         sql.NullString
		attachmentRef sql.NullString
		reason        sql.NullString
		requesterID   sql.NullString
		decidedBy     sql.NullString
		decidedAt     sql.NullString
		comment       sql.NullString
		createdAt     string
		updatedAt     string
	)

	err := rows.Scan(
		&rec.ID, &rec.ResourceID, &rec.SubjectID, &startDate, &endDate,
		&rec.Status, &rec.Tag, &exclusive, &category, &price,
		&attachmentRef, &reason, &requesterID, &decidedBy, &decidedAt,
		&comment, &createdAt, &updatedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan claim: %w", err)
	}

	start, err := generic.ParseDate(startDate)
	if err != nil {
		return rec, fmt.Errorf("failed to parse claim start date: %w", err)
	}
	if endDate.Valid {
		end, err := generic.ParseDate(endDate.String)
		if err != nil {
			return rec, fmt.Errorf("failed to parse claim end date: %w", err)
		}
		rec.Interval = generic.NewInterval(start, end)
	} else {
		rec.Interval = generic.OpenInterval(start)
	}

	rec.Exclusive = exclusive != 0
	rec.Category = category.String
	if price.Valid {
		d, err := decimal.NewFromString(price.String)
		if err != nil {
			return rec, fmt.Errorf("failed to parse claim price: %w", err)
		}
		rec.Price = &d
	}
	rec.AttachmentRef = attachmentRef.String
	rec.Reason = reason.String
	rec.RequesterID = generic.SubjectID(requesterID.String)
	rec.DecidedBy = decidedBy.String
	if decidedAt.Valid {
		t, _ := time.Parse(time.RFC3339, decidedAt.String)
		rec.DecidedAt = &t
	}
	rec.Comment = comment.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return rec, nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, entry generic.AuditEntry) error {
	return appendAudit(ctx, s.db, entry)
}

func appendAudit(ctx context.Context, db dbtx, entry generic.AuditEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO audit_log (id, at, actor_id, action, resource_id, record_id, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.At.Format(time.RFC3339), entry.ActorID, entry.Action,
		entry.ResourceID, entry.RecordID, entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// AuditEntries returns the audit trail for a resource, oldest first.
// Pass "" to list across all resources.
func (s *Store) AuditEntries(ctx context.Context, resourceID generic.ResourceID) ([]generic.AuditEntry, error) {
	query := "SELECT id, at, actor_id, action, resource_id, record_id, detail FROM audit_log"
	var args []any
	if resourceID != "" {
		query += " WHERE resource_id = ?"
		args = append(args, resourceID)
	}
	// rowid breaks ties between entries written in the same second
	query += " ORDER BY at ASC, rowid ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []generic.AuditEntry
	for rows.Next() {
		var e generic.AuditEntry
		var at string
		if err := rows.Scan(&e.ID, &at, &e.ActorID, &e.Action, &e.ResourceID, &e.RecordID, &e.Detail); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339, at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// SWEEP RUNS
// =============================================================================

// SweepRun records one execution of the expiry sweeper.
type SweepRun struct {
	ID          string
	AsOf        generic.Date
	Reverted    int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// SaveSweepRun inserts or updates a sweep run record.
func (s *Store) SaveSweepRun(ctx context.Context, run SweepRun) error {
	var completedAt any
	if run.CompletedAt != nil {
		completedAt = run.CompletedAt.Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sweep_runs (id, as_of, reverted, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			reverted = excluded.reverted,
			error = excluded.error,
			completed_at = excluded.completed_at`,
		run.ID, run.AsOf.String(), run.Reverted, run.Error,
		run.StartedAt.Format(time.RFC3339), completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save sweep run: %w", err)
	}
	return nil
}

// ListSweepRuns returns the most recent runs, newest first.
func (s *Store) ListSweepRuns(ctx context.Context, limit int) ([]SweepRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, as_of, reverted, error, started_at, completed_at FROM sweep_runs ORDER BY started_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sweep runs: %w", err)
	}
	defer rows.Close()

	var runs []SweepRun
	for rows.Next() {
		var run SweepRun
		var asOf, startedAt string
		var errMsg, completedAt sql.NullString
		if err := rows.Scan(&run.ID, &asOf, &run.Reverted, &errMsg, &startedAt, &completedAt); err != nil {
			return nil, err
		}
		run.AsOf, _ = generic.ParseDate(asOf)
		run.Error = errMsg.String
		run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction. The store handle
// passed to fn is bound to the transaction, so invariant reads see the
// transaction's own writes.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetResource(ctx context.Context, id generic.ResourceID) (*generic.Resource, error) {
	return getResource(ctx, ts.tx, id)
}

func (ts *txStore) SaveResource(ctx context.Context, r generic.Resource) error {
	return saveResource(ctx, ts.tx, r)
}

func (ts *txStore) SetResourceStatus(ctx context.Context, id generic.ResourceID, status generic.ResourceStatus) error {
	return setResourceStatus(ctx, ts.tx, id, status)
}

func (ts *txStore) ListResources(ctx context.Context, domain string) ([]generic.Resource, error) {
	return listResources(ctx, ts.tx, domain)
}

func (ts *txStore) GetRecord(ctx context.Context, id generic.RecordID) (*generic.ClaimRecord, error) {
	return getRecord(ctx, ts.tx, id)
}

func (ts *txStore) InsertRecord(ctx context.Context, rec generic.ClaimRecord) error {
	return insertRecord(ctx, ts.tx, rec)
}

func (ts *txStore) UpdateRecord(ctx context.Context, rec generic.ClaimRecord) error {
	return updateRecord(ctx, ts.tx, rec)
}

func (ts *txStore) RecordsByResource(ctx context.Context, id generic.ResourceID) ([]generic.ClaimRecord, error) {
	return recordsByResource(ctx, ts.tx, id)
}

func (ts *txStore) RecordsBySubject(ctx context.Context, id generic.SubjectID, status generic.RecordStatus) ([]generic.ClaimRecord, error) {
	return recordsBySubject(ctx, ts.tx, id, status)
}

func (ts *txStore) CountActive(ctx context.Context, id generic.ResourceID) (int, error) {
	return countActive(ctx, ts.tx, id)
}

func (ts *txStore) PurgeReclaimable(ctx context.Context, id generic.ResourceID, exclude generic.RecordID) (int, error) {
	return purgeReclaimable(ctx, ts.tx, id, exclude)
}

func (ts *txStore) ExpiredApproved(ctx context.Context, asOf generic.Date) ([]generic.ClaimRecord, error) {
	return expiredApproved(ctx, ts.tx, asOf)
}

func (ts *txStore) AppendAudit(ctx context.Context, entry generic.AuditEntry) error {
	return appendAudit(ctx, ts.tx, entry)
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
