package generic

import (
	"context"
	"fmt"
)

// =============================================================================
// OVERLAP CHECKER - Non-overlap invariant
// =============================================================================

// OverlapChecker detects conflicting intervals among approved, live records
// for the same subject. Boundaries are inclusive: two intervals touching on
// the same day conflict.
type OverlapChecker struct{}

// FindOverlap returns the first approved record for the subject whose
// interval overlaps iv, or nil if none does. exclude lets the check be re-run
// at approval time without the record under decision (already persisted as
// Pending) colliding with itself.
func (OverlapChecker) FindOverlap(ctx context.Context, s Store, subjectID SubjectID, iv Interval, exclude RecordID) (*ClaimRecord, error) {
	approved, err := s.RecordsBySubject(ctx, subjectID, StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to load approved records for subject %s: %w", subjectID, err)
	}

	for i := range approved {
		if approved[i].ID == exclude {
			continue
		}
		if approved[i].Interval.Overlaps(iv) {
			return &approved[i], nil
		}
	}
	return nil, nil
}

// AssertNoOverlap is FindOverlap returning an OverlapError on conflict.
func (c OverlapChecker) AssertNoOverlap(ctx context.Context, s Store, subjectID SubjectID, iv Interval, exclude RecordID) error {
	existing, err := c.FindOverlap(ctx, s, subjectID, iv, exclude)
	if err != nil {
		return err
	}
	if existing != nil {
		return &OverlapError{SubjectID: subjectID, Requested: iv, Existing: existing}
	}
	return nil
}
