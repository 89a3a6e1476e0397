package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lifecycle-engine/generic"
	"github.com/warp/lifecycle-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func saveMachine(t *testing.T, s *sqlite.Store, id string) {
	t.Helper()
	require.NoError(t, s.SaveResource(context.Background(), generic.Resource{
		ID:     generic.ResourceID(id),
		Domain: "sales",
		Name:   "Machine " + id,
		Status: "available",
	}))
}

func testClaim(id, resourceID string) generic.ClaimRecord {
	price := decimal.NewFromInt(45000)
	now := time.Now().UTC()
	return generic.ClaimRecord{
		ID:          generic.RecordID(id),
		ResourceID:  generic.ResourceID(resourceID),
		SubjectID:   "cust-1",
		RequesterID: "rep-1",
		Interval: generic.NewInterval(
			generic.NewDate(2026, time.March, 10),
			generic.NewDate(2026, time.March, 20),
		),
		Status:    generic.StatusApproved,
		Tag:       generic.TagActive,
		Exclusive: true,
		Category:  "sale",
		Price:     &price,
		Reason:    "cash deal",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// RESOURCE PERSISTENCE
// =============================================================================

func TestResource_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saveMachine(t, s, "m-1")

	res, err := s.GetResource(ctx, "m-1")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "Machine m-1", res.Name)
	assert.Equal(t, generic.ResourceStatus("available"), res.Status)

	// Absent resource is (nil, nil)
	absent, err := s.GetResource(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestSetResourceStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	saveMachine(t, s, "m-1")

	require.NoError(t, s.SetResourceStatus(ctx, "m-1", "sold"))

	res, err := s.GetResource(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, generic.ResourceStatus("sold"), res.Status)

	err = s.SetResourceStatus(ctx, "ghost", "sold")
	assert.True(t, generic.IsNotFound(err))
}

func TestListResources_FiltersByDomain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	saveMachine(t, s, "m-1")
	require.NoError(t, s.SaveResource(ctx, generic.Resource{
		ID: "emp-1", Domain: "leave", Name: "Alice", Status: "working",
	}))

	machines, err := s.ListResources(ctx, "sales")
	require.NoError(t, err)
	require.Len(t, machines, 1)
	assert.Equal(t, generic.ResourceID("m-1"), machines[0].ID)
}

// =============================================================================
// CLAIM PERSISTENCE
// =============================================================================

func TestClaim_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	saveMachine(t, s, "m-1")

	original := testClaim("c-1", "m-1")
	require.NoError(t, s.InsertRecord(ctx, original))

	loaded, err := s.GetRecord(ctx, "c-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, original.ID, loaded.ID)
	assert.Equal(t, original.Interval.Start, loaded.Interval.Start)
	require.NotNil(t, loaded.Interval.End)
	assert.Equal(t, *original.Interval.End, *loaded.Interval.End)
	assert.Equal(t, original.Status, loaded.Status)
	assert.Equal(t, original.Tag, loaded.Tag)
	assert.True(t, loaded.Exclusive)
	require.NotNil(t, loaded.Price)
	assert.True(t, loaded.Price.Equal(*original.Price))
	assert.Equal(t, "cash deal", loaded.Reason)

	// Absent record is (nil, nil)
	absent, err := s.GetRecord(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestClaim_OpenEndedInterval(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	saveMachine(t, s, "m-1")

	rec := testClaim("c-1", "m-1")
	rec.Interval = generic.OpenInterval(generic.NewDate(2026, time.March, 10))
	require.NoError(t, s.InsertRecord(ctx, rec))

	loaded, err := s.GetRecord(ctx, "c-1")
	require.NoError(t, err)
	assert.Nil(t, loaded.Interval.End)
}

func TestClaim_ExclusiveActiveIndex(t *testing.T) {
	// GIVEN: An active exclusive claim on the machine
	// WHEN: Inserting a second one directly at the storage layer
	// THEN: The partial unique index rejects it as a conflict

	s := newTestStore(t)
	ctx := context.Background()
	saveMachine(t, s, "m-1")

	require.NoError(t, s.InsertRecord(ctx, testClaim("c-1", "m-1")))

	err := s.InsertRecord(ctx, testClaim("c-2", "m-1"))
	require.Error(t, err)
	assert.True(t, generic.IsConflict(err))

	// Non-exclusive records are not constrained
	nonExclusive := testClaim("c-3", "m-1")
	nonExclusive.Exclusive = false
	assert.NoError(t, s.InsertRecord(ctx, nonExclusive))
}

func TestCountActive_OnlyExclusive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	saveMachine(t, s, "m-1")

	require.NoError(t, s.InsertRecord(ctx, testClaim("c-1", "m-1")))

	nonExclusive := testClaim("c-2", "m-1")
	nonExclusive.Exclusive = false
	require.NoError(t, s.InsertRecord(ctx, nonExclusive))

	count, err := s.CountActive(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPurgeReclaimable_KeepsExcluded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	saveMachine(t, s, "m-1")

	for _, id := range []string{"c-1", "c-2"} {
		rec := testClaim(id, "m-1")
		rec.Tag = generic.TagReclaimable
		rec.Exclusive = false
		require.NoError(t, s.InsertRecord(ctx, rec))
	}

	purged, err := s.PurgeReclaimable(ctx, "m-1", "c-2")
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	gone, _ := s.GetRecord(ctx, "c-1")
	assert.Nil(t, gone)
	kept, _ := s.GetRecord(ctx, "c-2")
	assert.NotNil(t, kept)
}

func TestExpiredApproved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	saveMachine(t, s, "m-1")

	elapsed := testClaim("c-1", "m-1")
	elapsed.Exclusive = false
	require.NoError(t, s.InsertRecord(ctx, elapsed)) // ends March 20

	open := testClaim("c-2", "m-1")
	open.Exclusive = false
	open.Interval = generic.OpenInterval(generic.NewDate(2026, time.March, 1))
	require.NoError(t, s.InsertRecord(ctx, open))

	// On the end day itself: nothing has elapsed yet
	expired, err := s.ExpiredApproved(ctx, generic.NewDate(2026, time.March, 20))
	require.NoError(t, err)
	assert.Empty(t, expired)

	// The day after: only the closed record
	expired, err = s.ExpiredApproved(ctx, generic.NewDate(2026, time.March, 21))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, generic.RecordID("c-1"), expired[0].ID)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollbackOnError(t *testing.T) {
	// GIVEN: A transaction that writes then fails
	// WHEN: WithTx propagates the error
	// THEN: None of the writes are visible

	s := newTestStore(t)
	ctx := context.Background()
	saveMachine(t, s, "m-1")

	sentinel := assert.AnError
	err := s.WithTx(ctx, func(tx generic.Store) error {
		if err := tx.SetResourceStatus(ctx, "m-1", "sold"); err != nil {
			return err
		}
		if err := tx.InsertRecord(ctx, testClaim("c-1", "m-1")); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	res, err := s.GetResource(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, generic.ResourceStatus("available"), res.Status)

	rec, err := s.GetRecord(ctx, "c-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestWithTx_ReadsSeeOwnWrites(t *testing.T) {
	// Reads inside the transaction must observe its uncommitted writes.
	s := newTestStore(t)
	ctx := context.Background()
	saveMachine(t, s, "m-1")

	err := s.WithTx(ctx, func(tx generic.Store) error {
		if err := tx.InsertRecord(ctx, testClaim("c-1", "m-1")); err != nil {
			return err
		}
		count, err := tx.CountActive(ctx, "m-1")
		if err != nil {
			return err
		}
		assert.Equal(t, 1, count)

		rec, err := tx.GetRecord(ctx, "c-1")
		if err != nil {
			return err
		}
		assert.NotNil(t, rec)
		return nil
	})
	require.NoError(t, err)
}

// =============================================================================
// AUDIT & SWEEP RUNS
// =============================================================================

func TestAudit_AppendAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendAudit(ctx, generic.NewAuditEntry(
		"rep-1", generic.AuditClaimCreated, "m-1", "c-1", "machine sold")))
	require.NoError(t, s.AppendAudit(ctx, generic.NewAuditEntry(
		"sweeper", generic.AuditSweepReverted, "emp-1", "r-1", "leave elapsed")))

	all, err := s.AuditEntries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	forMachine, err := s.AuditEntries(ctx, "m-1")
	require.NoError(t, err)
	require.Len(t, forMachine, 1)
	assert.Equal(t, generic.AuditClaimCreated, forMachine[0].Action)
}

func TestSweepRuns_SaveAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	started := time.Now().UTC()
	run := sqlite.SweepRun{
		ID:        "run-1",
		AsOf:      generic.NewDate(2026, time.March, 21),
		StartedAt: started,
	}
	require.NoError(t, s.SaveSweepRun(ctx, run))

	// Upsert with the outcome
	completed := started.Add(time.Second)
	run.Reverted = 3
	run.CompletedAt = &completed
	require.NoError(t, s.SaveSweepRun(ctx, run))

	runs, err := s.ListSweepRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].Reverted)
	assert.NotNil(t, runs[0].CompletedAt)
	assert.Equal(t, generic.NewDate(2026, time.March, 21), runs[0].AsOf)
}
