// Package notification delivers manual-trigger notices to initiators.
// Delivery transports (chat, email) plug in behind the Notifier port; the log
// notifier is the default and doubles as the audit trail of pending triggers.
package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/flowchain/approval-engine/internal/domain/entity"
)

// LogNotifier implements port.Notifier by writing a structured log record for
// each pending manual trigger.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new log notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyPendingManualTrigger records that the initiator has a chain step
// waiting on them.
func (n *LogNotifier) NotifyPendingManualTrigger(ctx context.Context, initiatorID string, transition *entity.Transition, sourceRequestID string) error {
	n.logger.Info("Manual trigger pending",
		zap.String("initiator_id", initiatorID),
		zap.String("transition_id", transition.ID),
		zap.String("source_request_id", sourceRequestID),
		zap.String("target_workflow_id", transition.TargetWorkflowID),
		zap.String("trigger_condition", transition.TriggerCondition.String()))
	return nil
}
