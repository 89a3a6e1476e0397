// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/lifecycle-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	resources map[generic.ResourceID]generic.Resource
	records   map[generic.RecordID]generic.ClaimRecord
	audit     []generic.AuditEntry
}

func NewMemory() *Memory {
	return &Memory{
		resources: make(map[generic.ResourceID]generic.Resource),
		records:   make(map[generic.RecordID]generic.ClaimRecord),
	}
}

// --- Resources ---

func (m *Memory) GetResource(_ context.Context, id generic.ResourceID) (*generic.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getResourceLocked(id), nil
}

func (m *Memory) getResourceLocked(id generic.ResourceID) *generic.Resource {
	r, ok := m.resources[id]
	if !ok {
		return nil
	}
	return &r
}

func (m *Memory) SaveResource(_ context.Context, r generic.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[r.ID] = r
	return nil
}

func (m *Memory) SetResourceStatus(_ context.Context, id generic.ResourceID, status generic.ResourceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setResourceStatusLocked(id, status)
}

func (m *Memory) setResourceStatusLocked(id generic.ResourceID, status generic.ResourceStatus) error {
	r, ok := m.resources[id]
	if !ok {
		return &generic.NotFoundError{Kind: "resource", ID: string(id)}
	}
	r.Status = status
	m.resources[id] = r
	return nil
}

func (m *Memory) ListResources(_ context.Context, domain string) ([]generic.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []generic.Resource
	for _, r := range m.resources {
		if r.Domain == domain {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- Records ---

func (m *Memory) GetRecord(_ context.Context, id generic.RecordID) (*generic.ClaimRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getRecordLocked(id), nil
}

func (m *Memory) getRecordLocked(id generic.RecordID) *generic.ClaimRecord {
	r, ok := m.records[id]
	if !ok {
		return nil
	}
	return &r
}

func (m *Memory) InsertRecord(_ context.Context, rec generic.ClaimRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[rec.ID]; exists {
		return &generic.ConflictError{Message: "record id already exists: " + string(rec.ID)}
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *Memory) UpdateRecord(_ context.Context, rec generic.ClaimRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateRecordLocked(rec)
}

func (m *Memory) updateRecordLocked(rec generic.ClaimRecord) error {
	if _, exists := m.records[rec.ID]; !exists {
		return &generic.NotFoundError{Kind: "record", ID: string(rec.ID)}
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *Memory) RecordsByResource(_ context.Context, id generic.ResourceID) ([]generic.ClaimRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recordsByResourceLocked(id), nil
}

func (m *Memory) recordsByResourceLocked(id generic.ResourceID) []generic.ClaimRecord {
	var out []generic.ClaimRecord
	for _, r := range m.records {
		if r.ResourceID == id {
			out = append(out, r)
		}
	}
	// Most recent claim first.
	sort.Slice(out, func(i, j int) bool {
		return out[i].Interval.Start.After(out[j].Interval.Start)
	})
	return out
}

func (m *Memory) RecordsBySubject(_ context.Context, id generic.SubjectID, status generic.RecordStatus) ([]generic.ClaimRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recordsBySubjectLocked(id, status), nil
}

func (m *Memory) recordsBySubjectLocked(id generic.SubjectID, status generic.RecordStatus) []generic.ClaimRecord {
	var out []generic.ClaimRecord
	for _, r := range m.records {
		if r.SubjectID == id && r.Status == status && r.Tag == generic.TagActive {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Interval.Start.Before(out[j].Interval.Start)
	})
	return out
}

func (m *Memory) CountActive(_ context.Context, id generic.ResourceID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countActiveLocked(id), nil
}

func (m *Memory) countActiveLocked(id generic.ResourceID) int {
	count := 0
	for _, r := range m.records {
		if r.ResourceID == id && r.Exclusive && r.Tag == generic.TagActive {
			count++
		}
	}
	return count
}

func (m *Memory) PurgeReclaimable(_ context.Context, id generic.ResourceID, exclude generic.RecordID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purgeReclaimableLocked(id, exclude), nil
}

func (m *Memory) purgeReclaimableLocked(id generic.ResourceID, exclude generic.RecordID) int {
	purged := 0
	for rid, r := range m.records {
		if r.ResourceID == id && r.Tag == generic.TagReclaimable && rid != exclude {
			r.Tag = generic.TagPurged
			delete(m.records, rid)
			purged++
		}
	}
	return purged
}

func (m *Memory) ExpiredApproved(_ context.Context, asOf generic.Date) ([]generic.ClaimRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiredApprovedLocked(asOf), nil
}

func (m *Memory) expiredApprovedLocked(asOf generic.Date) []generic.ClaimRecord {
	var out []generic.ClaimRecord
	for _, r := range m.records {
		if r.Status == generic.StatusApproved && r.Tag == generic.TagActive && r.Interval.Ended(asOf) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Interval.End.Before(*out[j].Interval.End)
	})
	return out
}

// --- Audit ---

func (m *Memory) AppendAudit(_ context.Context, entry generic.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

// AuditEntries returns a copy of the audit log (for tests).
func (m *Memory) AuditEntries() []generic.AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]generic.AuditEntry, len(m.audit))
	copy(out, m.audit)
	return out
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction, simulated with a snapshot +
// rollback on error. The single mutex serializes transactions entirely,
// which gives the in-memory store serializable isolation for free.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(generic.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	txStore := &txMemoryView{parent: tm}
	if err := fn(txStore); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	resCopy := make(map[generic.ResourceID]generic.Resource, len(tm.resources))
	for k, v := range tm.resources {
		resCopy[k] = v
	}
	recCopy := make(map[generic.RecordID]generic.ClaimRecord, len(tm.records))
	for k, v := range tm.records {
		recCopy[k] = v
	}
	auditCopy := make([]generic.AuditEntry, len(tm.audit))
	copy(auditCopy, tm.audit)
	return memorySnapshot{resources: resCopy, records: recCopy, audit: auditCopy}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.resources = s.resources
	tm.records = s.records
	tm.audit = s.audit
}

type memorySnapshot struct {
	resources map[generic.ResourceID]generic.Resource
	records   map[generic.RecordID]generic.ClaimRecord
	audit     []generic.AuditEntry
}

// txMemoryView operates on the parent's maps directly; the parent holds the
// lock for the whole transaction and rolls back from the snapshot on error.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) GetResource(_ context.Context, id generic.ResourceID) (*generic.Resource, error) {
	return tv.parent.getResourceLocked(id), nil
}

func (tv *txMemoryView) SaveResource(_ context.Context, r generic.Resource) error {
	tv.parent.resources[r.ID] = r
	return nil
}

func (tv *txMemoryView) SetResourceStatus(_ context.Context, id generic.ResourceID, status generic.ResourceStatus) error {
	return tv.parent.setResourceStatusLocked(id, status)
}

func (tv *txMemoryView) ListResources(_ context.Context, domain string) ([]generic.Resource, error) {
	var out []generic.Resource
	for _, r := range tv.parent.resources {
		if r.Domain == domain {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (tv *txMemoryView) GetRecord(_ context.Context, id generic.RecordID) (*generic.ClaimRecord, error) {
	return tv.parent.getRecordLocked(id), nil
}

func (tv *txMemoryView) InsertRecord(_ context.Context, rec generic.ClaimRecord) error {
	if _, exists := tv.parent.records[rec.ID]; exists {
		return &generic.ConflictError{Message: "record id already exists: " + string(rec.ID)}
	}
	tv.parent.records[rec.ID] = rec
	return nil
}

func (tv *txMemoryView) UpdateRecord(_ context.Context, rec generic.ClaimRecord) error {
	return tv.parent.updateRecordLocked(rec)
}

func (tv *txMemoryView) RecordsByResource(_ context.Context, id generic.ResourceID) ([]generic.ClaimRecord, error) {
	return tv.parent.recordsByResourceLocked(id), nil
}

func (tv *txMemoryView) RecordsBySubject(_ context.Context, id generic.SubjectID, status generic.RecordStatus) ([]generic.ClaimRecord, error) {
	return tv.parent.recordsBySubjectLocked(id, status), nil
}

func (tv *txMemoryView) CountActive(_ context.Context, id generic.ResourceID) (int, error) {
	return tv.parent.countActiveLocked(id), nil
}

func (tv *txMemoryView) PurgeReclaimable(_ context.Context, id generic.ResourceID, exclude generic.RecordID) (int, error) {
	return tv.parent.purgeReclaimableLocked(id, exclude), nil
}

func (tv *txMemoryView) ExpiredApproved(_ context.Context, asOf generic.Date) ([]generic.ClaimRecord, error) {
	return tv.parent.expiredApprovedLocked(asOf), nil
}

func (tv *txMemoryView) AppendAudit(_ context.Context, entry generic.AuditEntry) error {
	tv.parent.audit = append(tv.parent.audit, entry)
	return nil
}
