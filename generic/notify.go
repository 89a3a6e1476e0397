package generic

import (
	"context"
	"log"
)

// =============================================================================
// NOTIFIER - Best-effort, post-commit decision notifications
// =============================================================================

// Notifier informs a requester of a decision on their claim. Implementations
// are invoked AFTER the decision has committed; a notification failure is
// logged by the caller and never rolls back or fails the operation.
type Notifier interface {
	NotifyDecision(ctx context.Context, rec ClaimRecord) error
}

// LogNotifier writes decisions to the process log. Stands in for the real
// email/webhook integration, which lives outside this system.
type LogNotifier struct{}

func (LogNotifier) NotifyDecision(_ context.Context, rec ClaimRecord) error {
	log.Printf("[Notify] request %s for subject %s: %s (reviewer %s)",
		rec.ID, rec.SubjectID, rec.Status, rec.DecidedBy)
	return nil
}
