package service

import (
	"context"
	"sync"

	"github.com/flowchain/approval-engine/internal/application/dispatcher"
	"github.com/flowchain/approval-engine/internal/domain/entity"
	"github.com/flowchain/approval-engine/internal/domain/event"
)

// Mock repositories

type mockWorkflowRepo struct {
	insertFunc            func(ctx context.Context, workflow *entity.Workflow) error
	getByIDFunc           func(ctx context.Context, id string) (*entity.Workflow, error)
	listInBUFunc          func(ctx context.Context, businessUnitID string, includeArchived bool) ([]*entity.Workflow, error)
	listFamilyMembersFunc func(ctx context.Context, familyID string) ([]*entity.Workflow, error)
	setLatestFunc         func(ctx context.Context, workflowID, familyID string) error
	setStatusFunc         func(ctx context.Context, workflowID string, status entity.WorkflowStatus) error
	setFamilyStatusFunc   func(ctx context.Context, familyID string, fromStatus, toStatus entity.WorkflowStatus) error
	deleteFunc            func(ctx context.Context, id string) error
	replaceStepsFunc      func(ctx context.Context, workflowID string, steps []entity.Step) error
	listStepsFunc         func(ctx context.Context, workflowID string) ([]entity.Step, error)
}

func (m *mockWorkflowRepo) Insert(ctx context.Context, workflow *entity.Workflow) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, workflow)
	}
	return nil
}

func (m *mockWorkflowRepo) GetByID(ctx context.Context, id string) (*entity.Workflow, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockWorkflowRepo) ListInBusinessUnit(ctx context.Context, businessUnitID string, includeArchived bool) ([]*entity.Workflow, error) {
	if m.listInBUFunc != nil {
		return m.listInBUFunc(ctx, businessUnitID, includeArchived)
	}
	return nil, nil
}

func (m *mockWorkflowRepo) ListFamilyMembers(ctx context.Context, familyID string) ([]*entity.Workflow, error) {
	if m.listFamilyMembersFunc != nil {
		return m.listFamilyMembersFunc(ctx, familyID)
	}
	return nil, nil
}

func (m *mockWorkflowRepo) SetLatest(ctx context.Context, workflowID, familyID string) error {
	if m.setLatestFunc != nil {
		return m.setLatestFunc(ctx, workflowID, familyID)
	}
	return nil
}

func (m *mockWorkflowRepo) SetStatus(ctx context.Context, workflowID string, status entity.WorkflowStatus) error {
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, workflowID, status)
	}
	return nil
}

func (m *mockWorkflowRepo) SetFamilyStatus(ctx context.Context, familyID string, fromStatus, toStatus entity.WorkflowStatus) error {
	if m.setFamilyStatusFunc != nil {
		return m.setFamilyStatusFunc(ctx, familyID, fromStatus, toStatus)
	}
	return nil
}

func (m *mockWorkflowRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockWorkflowRepo) ReplaceSteps(ctx context.Context, workflowID string, steps []entity.Step) error {
	if m.replaceStepsFunc != nil {
		return m.replaceStepsFunc(ctx, workflowID, steps)
	}
	return nil
}

func (m *mockWorkflowRepo) ListSteps(ctx context.Context, workflowID string) ([]entity.Step, error) {
	if m.listStepsFunc != nil {
		return m.listStepsFunc(ctx, workflowID)
	}
	return nil, nil
}

type mockSectionRepo struct {
	replaceSectionsFunc     func(ctx context.Context, chainID string, sections []entity.Section) error
	listByChainFunc         func(ctx context.Context, chainID string) ([]entity.Section, error)
	countRoleReferencesFunc func(ctx context.Context, roleID string) (int, error)
}

func (m *mockSectionRepo) ReplaceSections(ctx context.Context, chainID string, sections []entity.Section) error {
	if m.replaceSectionsFunc != nil {
		return m.replaceSectionsFunc(ctx, chainID, sections)
	}
	return nil
}

func (m *mockSectionRepo) ListByChain(ctx context.Context, chainID string) ([]entity.Section, error) {
	if m.listByChainFunc != nil {
		return m.listByChainFunc(ctx, chainID)
	}
	return nil, nil
}

func (m *mockSectionRepo) CountRoleReferences(ctx context.Context, roleID string) (int, error) {
	if m.countRoleReferencesFunc != nil {
		return m.countRoleReferencesFunc(ctx, roleID)
	}
	return 0, nil
}

type mockTransitionRepo struct {
	insertFunc                  func(ctx context.Context, transition *entity.Transition) error
	getByIDFunc                 func(ctx context.Context, id string) (*entity.Transition, error)
	getBySourceAndConditionFunc func(ctx context.Context, sourceWorkflowID string, condition entity.TriggerCondition) (*entity.Transition, error)
	listBySourceFunc            func(ctx context.Context, sourceWorkflowID string) ([]*entity.Transition, error)
	listInBUFunc                func(ctx context.Context, businessUnitID string) ([]*entity.Transition, error)
	updateFunc                  func(ctx context.Context, transition *entity.Transition) error
	deleteFunc                  func(ctx context.Context, id string) error
	countByWorkflowFunc         func(ctx context.Context, workflowID string) (int, error)
}

func (m *mockTransitionRepo) Insert(ctx context.Context, transition *entity.Transition) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, transition)
	}
	return nil
}

func (m *mockTransitionRepo) GetByID(ctx context.Context, id string) (*entity.Transition, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockTransitionRepo) GetBySourceAndCondition(ctx context.Context, sourceWorkflowID string, condition entity.TriggerCondition) (*entity.Transition, error) {
	if m.getBySourceAndConditionFunc != nil {
		return m.getBySourceAndConditionFunc(ctx, sourceWorkflowID, condition)
	}
	return nil, nil
}

func (m *mockTransitionRepo) ListBySource(ctx context.Context, sourceWorkflowID string) ([]*entity.Transition, error) {
	if m.listBySourceFunc != nil {
		return m.listBySourceFunc(ctx, sourceWorkflowID)
	}
	return nil, nil
}

func (m *mockTransitionRepo) ListInBusinessUnit(ctx context.Context, businessUnitID string) ([]*entity.Transition, error) {
	if m.listInBUFunc != nil {
		return m.listInBUFunc(ctx, businessUnitID)
	}
	return nil, nil
}

func (m *mockTransitionRepo) Update(ctx context.Context, transition *entity.Transition) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, transition)
	}
	return nil
}

func (m *mockTransitionRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockTransitionRepo) CountByWorkflow(ctx context.Context, workflowID string) (int, error) {
	if m.countByWorkflowFunc != nil {
		return m.countByWorkflowFunc(ctx, workflowID)
	}
	return 0, nil
}

type mockRequestRepo struct {
	getByIDFunc         func(ctx context.Context, id string) (*entity.Request, error)
	listHistoryFunc     func(ctx context.Context, requestID string) ([]entity.RequestHistoryEntry, error)
	countByWorkflowFunc func(ctx context.Context, workflowID string) (int, error)
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Request{ID: id, Status: entity.RequestStatusInReview}, nil
}

func (m *mockRequestRepo) ListHistory(ctx context.Context, requestID string) ([]entity.RequestHistoryEntry, error) {
	if m.listHistoryFunc != nil {
		return m.listHistoryFunc(ctx, requestID)
	}
	return nil, nil
}

func (m *mockRequestRepo) CountByWorkflow(ctx context.Context, workflowID string) (int, error) {
	if m.countByWorkflowFunc != nil {
		return m.countByWorkflowFunc(ctx, workflowID)
	}
	return 0, nil
}

type mockRoleRepo struct {
	insertFunc              func(ctx context.Context, role *entity.Role) error
	getByIDFunc             func(ctx context.Context, id string) (*entity.Role, error)
	listInBUFunc            func(ctx context.Context, businessUnitID string) ([]*entity.Role, error)
	getNamesFunc            func(ctx context.Context, ids []string) (map[string]string, error)
	countStepReferencesFunc func(ctx context.Context, roleID string) (int, error)
	deleteFunc              func(ctx context.Context, id string) error
}

func (m *mockRoleRepo) Insert(ctx context.Context, role *entity.Role) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, role)
	}
	return nil
}

func (m *mockRoleRepo) GetByID(ctx context.Context, id string) (*entity.Role, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Role{ID: id, Name: "Role " + id}, nil
}

func (m *mockRoleRepo) ListInBusinessUnit(ctx context.Context, businessUnitID string) ([]*entity.Role, error) {
	if m.listInBUFunc != nil {
		return m.listInBUFunc(ctx, businessUnitID)
	}
	return nil, nil
}

func (m *mockRoleRepo) GetNames(ctx context.Context, ids []string) (map[string]string, error) {
	if m.getNamesFunc != nil {
		return m.getNamesFunc(ctx, ids)
	}
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		names[id] = "Role " + id
	}
	return names, nil
}

func (m *mockRoleRepo) CountStepReferences(ctx context.Context, roleID string) (int, error) {
	if m.countStepReferencesFunc != nil {
		return m.countStepReferencesFunc(ctx, roleID)
	}
	return 0, nil
}

func (m *mockRoleRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockTemplateRepo struct {
	insertFunc  func(ctx context.Context, template *entity.FormTemplate) error
	getByIDFunc func(ctx context.Context, id string) (*entity.FormTemplate, error)
}

func (m *mockTemplateRepo) Insert(ctx context.Context, template *entity.FormTemplate) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, template)
	}
	return nil
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, id string) (*entity.FormTemplate, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

// Mock collaborators and infrastructure

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockFamilyLock struct {
	mu   sync.Mutex
	keys []string
}

func (m *mockFamilyLock) Synchronized(ctx context.Context, familyID string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.keys = append(m.keys, familyID)
	m.mu.Unlock()
	return fn(ctx)
}

type mockSpawner struct {
	createRequestFunc func(ctx context.Context, workflowID, templateID, initiatorID string) (string, error)
	calls             []spawnCall
}

type spawnCall struct {
	workflowID  string
	templateID  string
	initiatorID string
}

func (m *mockSpawner) CreateRequest(ctx context.Context, workflowID, templateID, initiatorID string) (string, error) {
	m.calls = append(m.calls, spawnCall{workflowID, templateID, initiatorID})
	if m.createRequestFunc != nil {
		return m.createRequestFunc(ctx, workflowID, templateID, initiatorID)
	}
	return "req-spawned", nil
}

type mockNotifier struct {
	notifyFunc func(ctx context.Context, initiatorID string, transition *entity.Transition, sourceRequestID string) error
	calls      []notifyCall
}

type notifyCall struct {
	initiatorID     string
	transitionID    string
	sourceRequestID string
}

func (m *mockNotifier) NotifyPendingManualTrigger(ctx context.Context, initiatorID string, transition *entity.Transition, sourceRequestID string) error {
	m.calls = append(m.calls, notifyCall{initiatorID, transition.ID, sourceRequestID})
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, initiatorID, transition, sourceRequestID)
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// recordingDispatcher captures dispatched events instead of routing them.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (d *recordingDispatcher) Subscribe(eventType event.Type, handler dispatcher.Handler) {}
func (d *recordingDispatcher) SubscribeNamed(eventType event.Type, name string, handler dispatcher.Handler) {
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	d.record(evt)
	return nil
}

func (d *recordingDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	d.record(evt)
}

func (d *recordingDispatcher) Close() error { return nil }

func (d *recordingDispatcher) record(evt *event.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, evt)
}

func (d *recordingDispatcher) typesSeen() []event.Type {
	d.mu.Lock()
	defer d.mu.Unlock()
	types := make([]event.Type, 0, len(d.events))
	for _, evt := range d.events {
		types = append(types, evt.Type)
	}
	return types
}
