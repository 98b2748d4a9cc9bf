package service

import (
	"fmt"
	"strings"

	"github.com/flowchain/approval-engine/internal/domain/entity"
	"github.com/flowchain/approval-engine/internal/domain/lifecycle"
)

const (
	lifecycleActivate  = lifecycle.TriggerActivate
	lifecycleDemote    = lifecycle.TriggerDemote
	lifecycleArchive   = lifecycle.TriggerArchive
	lifecycleUnarchive = lifecycle.TriggerUnarchive
)

// requireLifecycleEdge consults the lifecycle machine for whether the trigger
// is legal from the workflow's current status. A disallowed edge (activating
// an archived version, say) is an invariant violation, not a validation
// problem: the version manager's own operations are the only writers.
func requireLifecycleEdge(status entity.WorkflowStatus, trigger lifecycle.Trigger) error {
	machine, err := lifecycle.NewMachine(lifecycle.State(status))
	if err != nil {
		return &entity.InvariantViolationError{
			Message: fmt.Sprintf("workflow has unknown status %q", status),
		}
	}
	if !machine.CanFire(trigger) {
		return &entity.InvariantViolationError{
			Message: fmt.Sprintf("cannot %s a workflow in status %s",
				strings.ToLower(trigger.String()), status),
		}
	}
	return nil
}
