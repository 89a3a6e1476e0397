/*
guard.go - Exclusive-claim enforcement

PURPOSE:
  Enforces "at most one active exclusive claim per resource" and owns the
  purge-on-claim policy: soft-deleted records for a resource are permanently
  removed the moment a fresh claim is made, so reclaimable history never
  accumulates without bound.

OPERATIONS:
  AssertCanActivate: fail if an active exclusive claim exists; purge the rest
  Activate:          precondition-check the resource, flip it to the claimed
                     status, insert the new active record
  Deactivate:        soft-delete an active record, revert the resource
  Restore:           bring a soft-deleted record back, re-claim the resource

LIFECYCLE:
                       Activate
        (none) ────────────────────▶ Active
                                       │ Deactivate
                      Restore          ▼
        Active ◀──────────────── Reclaimable
                                       │ next Activate on the resource
                                       ▼
                                    Purged (hard-deleted)

FAILURE SEMANTICS:
  Every precondition failure aborts the enclosing transaction: callers run
  these operations inside TxStore.WithTx, so no write survives a failed
  check. The store's locking discipline keeps the check-then-write sequence
  atomic against concurrent claims on the same resource.

SEE ALSO:
  - store.go: locking discipline the guard relies on
  - sales/service.go: the exclusive-claim domain using this guard
*/
package generic

import (
	"context"
	"fmt"
	"time"
)

// Guard enforces the exclusivity invariant for a resource's claim records.
// Every operation takes the transaction-scoped Store explicitly; the guard
// itself holds no database handle.
type Guard struct {
	Sync StateSynchronizer
}

// AssertCanActivate verifies the resource can accept a fresh exclusive claim.
// If a record with Tag=Active already holds the resource the check fails with
// a Conflict carrying that record. Otherwise every reclaimable record for the
// resource (except the excluded one, used during restore) transitions to
// Purged and is hard-deleted. Returns the number of records purged.
func (g Guard) AssertCanActivate(ctx context.Context, s Store, resourceID ResourceID, exclude RecordID) (int, error) {
	records, err := s.RecordsByResource(ctx, resourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to load records for resource %s: %w", resourceID, err)
	}

	for i := range records {
		if records[i].Exclusive && records[i].Tag == TagActive {
			return 0, &ConflictError{
				Message:  fmt.Sprintf("resource %s already has an active claim", resourceID),
				Existing: &records[i],
			}
		}
	}

	purged, err := s.PurgeReclaimable(ctx, resourceID, exclude)
	if err != nil {
		return 0, fmt.Errorf("failed to purge reclaimable records: %w", err)
	}
	return purged, nil
}

// Activate claims the resource: it must exist and be in exactly the baseline
// status, no active exclusive record may exist, and on success the resource
// flips to the claimed status and the record is inserted with Tag=Active.
// Returns the number of reclaimable records purged along the way.
func (g Guard) Activate(ctx context.Context, s Store, rec *ClaimRecord, baseline, claimed ResourceStatus) (int, error) {
	res, err := s.GetResource(ctx, rec.ResourceID)
	if err != nil {
		return 0, err
	}
	if res == nil {
		return 0, &NotFoundError{Kind: "resource", ID: string(rec.ResourceID)}
	}
	if res.Status != baseline {
		return 0, &ConflictError{
			Message: fmt.Sprintf("resource %s is %s, expected %s", res.ID, res.Status, baseline),
		}
	}

	purged, err := g.AssertCanActivate(ctx, s, rec.ResourceID, "")
	if err != nil {
		return 0, err
	}

	if _, err := g.Sync.Transition(ctx, s, res, claimed); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	rec.Tag = TagActive
	rec.Exclusive = true
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if err := s.InsertRecord(ctx, *rec); err != nil {
		return 0, fmt.Errorf("failed to insert claim record: %w", err)
	}
	return purged, nil
}

// Deactivate soft-deletes an active record and reverts the resource to
// baseline. As a defensive check against corrupted state it verifies the
// active exclusive count for the resource is exactly 1 before writing; an
// unexpected count fails with InternalError rather than silently proceeding.
func (g Guard) Deactivate(ctx context.Context, s Store, recordID RecordID, baseline ResourceStatus) (*ClaimRecord, error) {
	rec, err := s.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &NotFoundError{Kind: "record", ID: string(recordID)}
	}
	if rec.Tag != TagActive {
		return nil, &ConflictError{
			Message: fmt.Sprintf("record %s is not active (tag %s)", rec.ID, rec.Tag),
		}
	}

	res, err := s.GetResource(ctx, rec.ResourceID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &NotFoundError{Kind: "resource", ID: string(rec.ResourceID)}
	}

	count, err := s.CountActive(ctx, rec.ResourceID)
	if err != nil {
		return nil, err
	}
	if count != 1 {
		return nil, &InconsistentStateError{
			ResourceID: rec.ResourceID,
			Message:    fmt.Sprintf("expected exactly 1 active record, found %d", count),
		}
	}

	if _, err := g.Sync.Transition(ctx, s, res, baseline); err != nil {
		return nil, err
	}

	rec.Tag = TagReclaimable
	rec.UpdatedAt = time.Now().UTC()
	if err := s.UpdateRecord(ctx, *rec); err != nil {
		return nil, fmt.Errorf("failed to soft-delete record: %w", err)
	}
	return rec, nil
}

// Restore re-activates a soft-deleted record. The resource must exist, be
// back in baseline status, and hold zero active exclusive records; the
// record being restored is excluded from the purge that the activation
// check performs. Returns the fully hydrated record.
func (g Guard) Restore(ctx context.Context, s Store, recordID RecordID, baseline, claimed ResourceStatus) (*ClaimRecord, error) {
	rec, err := s.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &NotFoundError{Kind: "record", ID: string(recordID)}
	}
	if rec.Tag != TagReclaimable {
		return nil, &ConflictError{
			Message: fmt.Sprintf("record %s is not reclaimable (tag %s)", rec.ID, rec.Tag),
		}
	}

	res, err := s.GetResource(ctx, rec.ResourceID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &NotFoundError{Kind: "resource", ID: string(rec.ResourceID)}
	}
	if res.Status != baseline {
		return nil, &ConflictError{
			Message: fmt.Sprintf("resource %s is %s, expected %s", res.ID, res.Status, baseline),
		}
	}

	if _, err := g.AssertCanActivate(ctx, s, rec.ResourceID, rec.ID); err != nil {
		return nil, err
	}

	if _, err := g.Sync.Transition(ctx, s, res, claimed); err != nil {
		return nil, err
	}

	rec.Tag = TagActive
	rec.UpdatedAt = time.Now().UTC()
	if err := s.UpdateRecord(ctx, *rec); err != nil {
		return nil, fmt.Errorf("failed to restore record: %w", err)
	}
	return rec, nil
}
