/*
sweeper.go - Idempotent expiry sweep for elapsed claims

PURPOSE:
  Detects approved claims whose interval has elapsed and reverts the
  governed resource to its baseline status. Runs on a timer or on demand.

ALGORITHM (per expired record, one transaction each):
  1. Re-load the record inside the transaction (it may have changed)
  2. Skip if the resource is already at baseline — THIS is the idempotence
     mechanism: re-running with the same clock and no intervening writes
     transitions nothing, because the resource's current status is the
     marker, not a separate "processed" flag
  3. Skip if another approved record for the same subject covers "now"
     (a vigent record still governs the resource)
  4. Otherwise revert the resource to baseline and audit the transition

LOCKING:
  One transaction per affected record, never one lock across unrelated
  resources, so a large sweep cannot become a throughput bottleneck.

SEE ALSO:
  - sync.go: Transition's already-there no-op backs the idempotence
  - api/scheduler.go: the timer driving periodic sweeps
*/
package generic

import (
	"context"
	"errors"
	"fmt"
)

// Sweeper reverts resources whose governing claim has elapsed.
type Sweeper struct {
	Store    TxStore
	Sync     StateSynchronizer
	Baseline ResourceStatus

	// Domain is the resource domain the sweeper is responsible for; records
	// whose resource belongs to another domain are left alone.
	Domain string
}

// Sweep reverts every resource whose approved claim ended strictly before
// now and which no other approved claim currently covers. Returns the number
// of resources actually transitioned. Individual record failures do not stop
// the sweep; they are joined into the returned error.
func (sw *Sweeper) Sweep(ctx context.Context, now Date) (int, error) {
	expired, err := sw.Store.ExpiredApproved(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to scan expired records: %w", err)
	}

	reverted := 0
	var failures []error
	for _, candidate := range expired {
		transitioned, err := sw.sweepOne(ctx, candidate.ID, now)
		if err != nil {
			failures = append(failures, fmt.Errorf("record %s: %w", candidate.ID, err))
			continue
		}
		if transitioned {
			reverted++
		}
	}
	return reverted, errors.Join(failures...)
}

func (sw *Sweeper) sweepOne(ctx context.Context, recordID RecordID, now Date) (bool, error) {
	transitioned := false
	err := sw.Store.WithTx(ctx, func(tx Store) error {
		rec, err := tx.GetRecord(ctx, recordID)
		if err != nil {
			return err
		}
		if rec == nil || rec.Status != StatusApproved || rec.Tag != TagActive || !rec.Interval.Ended(now) {
			return nil
		}

		res, err := tx.GetResource(ctx, rec.ResourceID)
		if err != nil {
			return err
		}
		if res == nil || (sw.Domain != "" && res.Domain != sw.Domain) {
			return nil
		}
		if res.Status == sw.Baseline {
			// Already reverted by an earlier pass.
			return nil
		}

		covering, err := sw.findVigent(ctx, tx, rec.SubjectID, rec.ID, now)
		if err != nil {
			return err
		}
		if covering != nil {
			// Another approved record still governs the subject.
			return nil
		}

		changed, err := sw.Sync.Transition(ctx, tx, res, sw.Baseline)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		transitioned = true
		return tx.AppendAudit(ctx, NewAuditEntry("sweeper", AuditSweepReverted, res.ID, rec.ID,
			fmt.Sprintf("interval %s elapsed as of %s, reverted to %s", rec.Interval, now, sw.Baseline)))
	})
	return transitioned, err
}

func (sw *Sweeper) findVigent(ctx context.Context, s Store, subjectID SubjectID, exclude RecordID, now Date) (*ClaimRecord, error) {
	approved, err := s.RecordsBySubject(ctx, subjectID, StatusApproved)
	if err != nil {
		return nil, err
	}
	for i := range approved {
		if approved[i].ID == exclude {
			continue
		}
		if approved[i].Interval.Contains(now) {
			return &approved[i], nil
		}
	}
	return nil, nil
}
