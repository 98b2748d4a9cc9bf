package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowchain/approval-engine/internal/application/service"
	"github.com/flowchain/approval-engine/internal/domain/chain"
	"github.com/flowchain/approval-engine/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockVersionManager struct {
	getWorkflowFunc    func(ctx context.Context, id string) (*entity.Workflow, error)
	createWorkflowFunc func(ctx context.Context, input service.CreateWorkflowInput) (*entity.Workflow, error)
	archiveFunc        func(ctx context.Context, id string) error
}

func (m *mockVersionManager) CreateWorkflow(ctx context.Context, input service.CreateWorkflowInput) (*entity.Workflow, error) {
	return m.createWorkflowFunc(ctx, input)
}

func (m *mockVersionManager) GetWorkflow(ctx context.Context, id string) (*entity.Workflow, error) {
	return m.getWorkflowFunc(ctx, id)
}

func (m *mockVersionManager) ListWorkflows(ctx context.Context, businessUnitID string, includeArchived bool) ([]*entity.Workflow, error) {
	return nil, nil
}

func (m *mockVersionManager) ListVersions(ctx context.Context, workflowID string) (*entity.Family, error) {
	return nil, nil
}

func (m *mockVersionManager) DeleteWorkflow(ctx context.Context, id string) error { return nil }

func (m *mockVersionManager) CreateVersion(ctx context.Context, workflowID string, input service.CreateVersionInput) (*entity.Workflow, error) {
	return nil, nil
}

func (m *mockVersionManager) Activate(ctx context.Context, workflowID string) (*entity.Workflow, error) {
	return nil, nil
}

func (m *mockVersionManager) SetDraft(ctx context.Context, workflowID string) (*entity.Workflow, error) {
	return nil, nil
}

func (m *mockVersionManager) Archive(ctx context.Context, workflowID string) error {
	if m.archiveFunc != nil {
		return m.archiveFunc(ctx, workflowID)
	}
	return nil
}

func (m *mockVersionManager) Unarchive(ctx context.Context, workflowID string) error { return nil }

func (m *mockVersionManager) RestoreVersion(ctx context.Context, targetVersionID string) (*entity.Workflow, error) {
	return nil, nil
}

type mockTransitionEngine struct {
	createFunc   func(ctx context.Context, input service.TransitionInput) (*entity.Transition, error)
	evaluateFunc func(ctx context.Context, requestID, workflowID string, outcome entity.TriggerCondition) (*service.SpawnDecision, error)
}

func (m *mockTransitionEngine) CreateTransition(ctx context.Context, input service.TransitionInput) (*entity.Transition, error) {
	return m.createFunc(ctx, input)
}

func (m *mockTransitionEngine) UpdateTransition(ctx context.Context, id string, input service.TransitionInput) (*entity.Transition, error) {
	return nil, nil
}

func (m *mockTransitionEngine) DeleteTransition(ctx context.Context, id string) error { return nil }

func (m *mockTransitionEngine) EvaluateOutcome(ctx context.Context, requestID, workflowID string, outcome entity.TriggerCondition) (*service.SpawnDecision, error) {
	return m.evaluateFunc(ctx, requestID, workflowID, outcome)
}

func (m *mockTransitionEngine) GetChain(ctx context.Context, startWorkflowID string) ([]entity.ChainNode, error) {
	return nil, nil
}

type mockRoleService struct {
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockRoleService) CreateRole(ctx context.Context, input service.CreateRoleInput) (*entity.Role, error) {
	return nil, nil
}

func (m *mockRoleService) GetRole(ctx context.Context, id string) (*entity.Role, error) {
	return nil, nil
}

func (m *mockRoleService) ListRoles(ctx context.Context, businessUnitID string) ([]*entity.Role, error) {
	return nil, nil
}

func (m *mockRoleService) DeleteRole(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

type mockProgressService struct {
	getProgressFunc func(ctx context.Context, requestID string) (*chain.WorkflowProgress, error)
}

func (m *mockProgressService) GetRequest(ctx context.Context, requestID string) (*entity.Request, error) {
	return nil, nil
}

func (m *mockProgressService) GetProgress(ctx context.Context, requestID string) (*chain.WorkflowProgress, error) {
	return m.getProgressFunc(ctx, requestID)
}

func newTestServer(services Services) *Server {
	return NewServer(DefaultServerConfig(), services, nopLogger{})
}

func doRequest(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(Services{})

	rec := doRequest(t, server, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestGetWorkflow_NotFoundMapsTo404(t *testing.T) {
	server := newTestServer(Services{
		Versions: &mockVersionManager{
			getWorkflowFunc: func(ctx context.Context, id string) (*entity.Workflow, error) {
				return nil, &entity.NotFoundError{Resource: "workflow", ID: id}
			},
		},
	})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/workflows/wf-missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "wf-missing")
}

func TestCreateTransition_CircularMapsTo409(t *testing.T) {
	server := newTestServer(Services{
		Transitions: &mockTransitionEngine{
			createFunc: func(ctx context.Context, input service.TransitionInput) (*entity.Transition, error) {
				return nil, &entity.CircularChainError{
					SourceWorkflowID: input.SourceWorkflowID,
					TargetWorkflowID: input.TargetWorkflowID,
				}
			},
		},
	})

	rec := doRequest(t, server, http.MethodPost, "/api/v1/transitions", service.TransitionInput{
		SourceWorkflowID: "wf-1",
		TargetWorkflowID: "wf-2",
		TriggerCondition: entity.TriggerApproved,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Contains(t, resp.Error, "circular")
}

func TestCreateTransition_Success(t *testing.T) {
	server := newTestServer(Services{
		Transitions: &mockTransitionEngine{
			createFunc: func(ctx context.Context, input service.TransitionInput) (*entity.Transition, error) {
				return &entity.Transition{
					ID:               "tr-1",
					SourceWorkflowID: input.SourceWorkflowID,
					TargetWorkflowID: input.TargetWorkflowID,
					TriggerCondition: input.TriggerCondition,
				}, nil
			},
		},
	})

	rec := doRequest(t, server, http.MethodPost, "/api/v1/transitions", service.TransitionInput{
		SourceWorkflowID: "wf-1",
		TargetWorkflowID: "wf-2",
		TriggerCondition: entity.TriggerApproved,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestCreateWorkflow_MalformedBodyMapsTo400(t *testing.T) {
	server := newTestServer(Services{Versions: &mockVersionManager{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRole_InUseMapsTo409(t *testing.T) {
	server := newTestServer(Services{
		Roles: &mockRoleService{
			deleteFunc: func(ctx context.Context, id string) error {
				return &entity.DependencyInUseError{
					Resource: "role", ID: id, References: []string{"2 steps"},
				}
			},
		},
	})

	rec := doRequest(t, server, http.MethodDelete, "/api/v1/roles/role-1", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestArchiveWorkflow_InvariantViolationMapsTo500(t *testing.T) {
	server := newTestServer(Services{
		Versions: &mockVersionManager{
			archiveFunc: func(ctx context.Context, id string) error {
				return &entity.InvariantViolationError{Message: "family wf-1 has 2 latest members"}
			},
		},
	})

	rec := doRequest(t, server, http.MethodPost, "/api/v1/workflows/wf-1/archive", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Contains(t, resp.Error, "invariant violation")
}

func TestGetProgress_UnknownErrorStaysOpaque(t *testing.T) {
	server := newTestServer(Services{
		Progress: &mockProgressService{
			getProgressFunc: func(ctx context.Context, requestID string) (*chain.WorkflowProgress, error) {
				return nil, errors.New("disk on fire")
			},
		},
	})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/requests/req-1/progress", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "internal error", resp.Error)
	assert.NotContains(t, resp.Error, "disk")
}

func TestEvaluateOutcome_ReturnsDecision(t *testing.T) {
	server := newTestServer(Services{
		Transitions: &mockTransitionEngine{
			evaluateFunc: func(ctx context.Context, requestID, workflowID string, outcome entity.TriggerCondition) (*service.SpawnDecision, error) {
				assert.Equal(t, "req-1", requestID)
				assert.Equal(t, "wf-1", workflowID)
				assert.Equal(t, entity.TriggerApproved, outcome)
				return &service.SpawnDecision{
					Action:           service.SpawnActionSpawn,
					SpawnedRequestID: "req-2",
				}, nil
			},
		},
	})

	rec := doRequest(t, server, http.MethodPost, "/api/v1/requests/req-1/outcome", OutcomeRequest{
		WorkflowID: "wf-1",
		Outcome:    entity.TriggerApproved,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "spawned", data["action"])
	assert.Equal(t, "req-2", data["spawned_request_id"])
}
