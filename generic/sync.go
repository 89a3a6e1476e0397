package generic

import "context"

// =============================================================================
// STATE SYNCHRONIZER - Sole writer of Resource.Status
// =============================================================================

// StateSynchronizer pushes claim lifecycle transitions into the dependent
// resource's status field. It is the only component that writes
// Resource.Status; the guard, workflow and sweeper all go through it so the
// status projection can never drift from the claims that govern it.
type StateSynchronizer struct{}

// Transition moves the resource to the given status. A no-op when the
// resource is already there, which is what makes the sweeper idempotent.
// Returns true when a write actually happened.
func (StateSynchronizer) Transition(ctx context.Context, s Store, res *Resource, to ResourceStatus) (bool, error) {
	if res.Status == to {
		return false, nil
	}
	if err := s.SetResourceStatus(ctx, res.ID, to); err != nil {
		return false, err
	}
	res.Status = to
	return true, nil
}
