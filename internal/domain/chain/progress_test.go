package chain

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowchain/approval-engine/internal/domain/entity"
)

func twoStepSection() []entity.Section {
	return []entity.Section{{
		ID:    "sec-0",
		Order: 0,
		Name:  "Review",
		Steps: []entity.Step{
			{StepNumber: 1, ApproverRoleID: "role-x"},
			{StepNumber: 2, ApproverRoleID: "role-y"},
		},
	}}
}

func approvedEntry(step int, actor string) entity.RequestHistoryEntry {
	return entity.RequestHistoryEntry{
		RequestID:  "req-1",
		StepNumber: step,
		ActorID:    actor,
		Outcome:    entity.StepOutcomeApproved,
		DecidedAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestComputeProgress_FirstStepApproved(t *testing.T) {
	roleNames := map[string]string{"role-x": "Role X", "role-y": "Role Y"}

	p := ComputeProgress(
		twoStepSection(),
		[]entity.RequestHistoryEntry{approvedEntry(1, "user-x")},
		entity.RequestStatusInReview,
		roleNames,
	)

	assert.True(t, p.HasWorkflow)
	assert.Equal(t, 1, p.TotalSections)
	assert.Equal(t, 0, p.CurrentSectionIndex)
	assert.Equal(t, 2, p.CurrentStepNumber)
	require.NotNil(t, p.WaitingOnRoleName)
	assert.Equal(t, "Role Y", *p.WaitingOnRoleName)

	require.Len(t, p.Sections, 1)
	section := p.Sections[0]
	assert.False(t, section.IsCompleted)
	assert.True(t, section.IsCurrent)
	require.Len(t, section.Steps, 2)
	assert.True(t, section.Steps[0].IsCompleted)
	assert.False(t, section.Steps[0].IsCurrent)
	assert.False(t, section.Steps[1].IsCompleted)
	assert.True(t, section.Steps[1].IsCurrent)
}

func TestComputeProgress_Deterministic(t *testing.T) {
	history := []entity.RequestHistoryEntry{approvedEntry(1, "user-x")}
	roleNames := map[string]string{"role-x": "Role X", "role-y": "Role Y"}

	first := ComputeProgress(twoStepSection(), history, entity.RequestStatusInReview, roleNames)
	second := ComputeProgress(twoStepSection(), history, entity.RequestStatusInReview, roleNames)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("ComputeProgress is not deterministic:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestComputeProgress_NoSections(t *testing.T) {
	p := ComputeProgress(nil, nil, entity.RequestStatusSubmitted, nil)

	assert.False(t, p.HasWorkflow)
	assert.Equal(t, 0, p.TotalSections)
	assert.Equal(t, -1, p.CurrentSectionIndex)
	assert.Nil(t, p.WaitingOnRoleName)
}

func TestComputeProgress_TerminalStatusWaitsOnNobody(t *testing.T) {
	for _, status := range []entity.RequestStatus{
		entity.RequestStatusApproved,
		entity.RequestStatusRejected,
		entity.RequestStatusCancelled,
		entity.RequestStatusDraft,
	} {
		t.Run(string(status), func(t *testing.T) {
			p := ComputeProgress(twoStepSection(), nil, status, map[string]string{"role-x": "Role X"})
			assert.Nil(t, p.WaitingOnRoleName)
		})
	}
}

func TestComputeProgress_MultiSectionGlobalStepNumbers(t *testing.T) {
	sections := []entity.Section{
		{
			ID:    "sec-1",
			Order: 1,
			Name:  "Finance",
			Steps: []entity.Step{
				{StepNumber: 1, ApproverRoleID: "role-cfo"},
			},
		},
		{
			ID:    "sec-0",
			Order: 0,
			Name:  "Line manager",
			Steps: []entity.Step{
				{StepNumber: 1, ApproverRoleID: "role-mgr"},
				{StepNumber: 2, ApproverRoleID: "role-dir"},
			},
		},
	}

	// Both steps of section 0 done; section 1 step pending at global number 3.
	history := []entity.RequestHistoryEntry{approvedEntry(1, "u1"), approvedEntry(2, "u2")}

	p := ComputeProgress(sections, history, entity.RequestStatusInReview,
		map[string]string{"role-cfo": "CFO"})

	require.Equal(t, 2, p.TotalSections)
	assert.True(t, p.Sections[0].IsCompleted, "sections must be ordered by Order, not input order")
	assert.Equal(t, "sec-0", p.Sections[0].SectionID)
	assert.Equal(t, 1, p.CurrentSectionIndex)
	assert.Equal(t, 1, p.CurrentStepNumber, "step number is local to its section")
	require.NotNil(t, p.WaitingOnRoleName)
	assert.Equal(t, "CFO", *p.WaitingOnRoleName)
}

func TestComputeProgress_AllSectionsComplete(t *testing.T) {
	history := []entity.RequestHistoryEntry{approvedEntry(1, "u1"), approvedEntry(2, "u2")}

	p := ComputeProgress(twoStepSection(), history, entity.RequestStatusApproved, nil)

	assert.Equal(t, -1, p.CurrentSectionIndex)
	assert.Equal(t, 0, p.CurrentStepNumber)
	assert.True(t, p.Sections[0].IsCompleted)
	assert.False(t, p.Sections[0].IsCurrent)
	assert.Nil(t, p.WaitingOnRoleName)
}

func TestComputeProgress_NonApprovedOutcomeDoesNotComplete(t *testing.T) {
	history := []entity.RequestHistoryEntry{{
		RequestID:  "req-1",
		StepNumber: 1,
		ActorID:    "user-x",
		Outcome:    entity.StepOutcomeNeedsClarification,
		DecidedAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}}

	p := ComputeProgress(twoStepSection(), history, entity.RequestStatusNeedsRevision,
		map[string]string{"role-x": "Role X"})

	assert.Equal(t, 1, p.CurrentStepNumber, "a step without an approved outcome stays current")
	require.NotNil(t, p.WaitingOnRoleName)
	assert.Equal(t, "Role X", *p.WaitingOnRoleName)
}
