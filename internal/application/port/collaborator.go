package port

import (
	"context"

	"github.com/flowchain/approval-engine/internal/domain/entity"
)

// RequestSpawner creates new request instances. Request intake lives outside
// the chain engine; EvaluateOutcome only issues the spawn command.
type RequestSpawner interface {
	CreateRequest(ctx context.Context, workflowID, templateID, initiatorID string) (string, error)
}

// Notifier delivers the "a manual chain trigger is waiting on you" message
// when a transition fires with auto_trigger disabled.
type Notifier interface {
	NotifyPendingManualTrigger(ctx context.Context, initiatorID string, transition *entity.Transition, sourceRequestID string) error
}
