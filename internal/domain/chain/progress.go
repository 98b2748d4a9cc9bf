package chain

import (
	"sort"

	"github.com/flowchain/approval-engine/internal/domain/entity"
)

// StepProgress is the derived state of one approval step.
type StepProgress struct {
	StepNumber  int    `json:"step_number"`
	RoleID      string `json:"role_id"`
	IsCompleted bool   `json:"is_completed"`
	IsCurrent   bool   `json:"is_current"`
}

// SectionProgress is the derived state of one chain section.
type SectionProgress struct {
	SectionID   string         `json:"section_id"`
	Name        string         `json:"name"`
	IsCompleted bool           `json:"is_completed"`
	IsCurrent   bool           `json:"is_current"`
	Steps       []StepProgress `json:"steps"`
}

// WorkflowProgress is the derived position of a request inside its chain.
// CurrentSectionIndex is 0-based; CurrentStepNumber is 1-based within the
// current section. Both are -1 / 0 once every section is complete.
type WorkflowProgress struct {
	HasWorkflow         bool              `json:"has_workflow"`
	TotalSections       int               `json:"total_sections"`
	CurrentSectionIndex int               `json:"current_section_index"`
	CurrentStepNumber   int               `json:"current_step_number"`
	Sections            []SectionProgress `json:"sections"`
	WaitingOnRoleName   *string           `json:"waiting_on_role_name"`
}

// ComputeProgress derives a request's position from the chain definition and
// its append-only history. A step is complete when an APPROVED entry exists
// for its global step number; a section is complete when all its steps are;
// the current section is the first incomplete one and the current step the
// lowest unapproved step inside it. Pure: identical inputs always produce
// identical output.
func ComputeProgress(
	sections []entity.Section,
	history []entity.RequestHistoryEntry,
	status entity.RequestStatus,
	roleNames map[string]string,
) WorkflowProgress {
	if len(sections) == 0 {
		return WorkflowProgress{CurrentSectionIndex: -1}
	}

	ordered := make([]entity.Section, len(sections))
	copy(ordered, sections)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	approved := make(map[int]bool, len(history))
	for _, h := range history {
		if h.Outcome == entity.StepOutcomeApproved {
			approved[h.StepNumber] = true
		}
	}

	progress := WorkflowProgress{
		HasWorkflow:         true,
		TotalSections:       len(ordered),
		CurrentSectionIndex: -1,
		Sections:            make([]SectionProgress, 0, len(ordered)),
	}

	var waitingOnRoleID string
	offset := 0

	for idx, section := range ordered {
		steps := make([]entity.Step, len(section.Steps))
		copy(steps, section.Steps)
		sort.Slice(steps, func(i, j int) bool { return steps[i].StepNumber < steps[j].StepNumber })

		sp := SectionProgress{
			SectionID: section.ID,
			Name:      section.Name,
			Steps:     make([]StepProgress, 0, len(steps)),
		}

		sectionDone := true
		for _, step := range steps {
			done := approved[offset+step.StepNumber]
			if !done {
				sectionDone = false
			}
			sp.Steps = append(sp.Steps, StepProgress{
				StepNumber:  step.StepNumber,
				RoleID:      step.ApproverRoleID,
				IsCompleted: done,
			})
		}
		sp.IsCompleted = sectionDone

		if !sectionDone && progress.CurrentSectionIndex < 0 {
			sp.IsCurrent = true
			progress.CurrentSectionIndex = idx
			for i := range sp.Steps {
				if !sp.Steps[i].IsCompleted {
					sp.Steps[i].IsCurrent = true
					progress.CurrentStepNumber = sp.Steps[i].StepNumber
					waitingOnRoleID = sp.Steps[i].RoleID
					break
				}
			}
		}

		progress.Sections = append(progress.Sections, sp)
		offset += len(steps)
	}

	// A draft request is not waiting on anyone yet, and a terminal request
	// never will be again.
	if waitingOnRoleID != "" && status != entity.RequestStatusDraft && !status.IsTerminal() {
		name := waitingOnRoleID
		if n, ok := roleNames[waitingOnRoleID]; ok {
			name = n
		}
		progress.WaitingOnRoleName = &name
	}

	return progress
}
