package event

import (
	"testing"
	"time"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{
			name:      "valid - workflow activated",
			eventType: TypeWorkflowActivated,
			want:      true,
		},
		{
			name:      "valid - version created",
			eventType: TypeVersionCreated,
			want:      true,
		},
		{
			name:      "valid - transition created",
			eventType: TypeTransitionCreated,
			want:      true,
		},
		{
			name:      "valid - request spawned",
			eventType: TypeRequestSpawned,
			want:      true,
		},
		{
			name:      "valid - manual trigger pending",
			eventType: TypeManualTriggerPending,
			want:      true,
		},
		{
			name:      "invalid - unknown type",
			eventType: Type("unknown.type"),
			want:      false,
		},
		{
			name:      "invalid - empty string",
			eventType: Type(""),
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"version":   3,
		"family_id": "wf-root",
	}

	evt := NewEvent(TypeWorkflowActivated, "wf-v3", "bu-1", payload)

	if evt == nil {
		t.Fatal("NewEvent() returned nil")
	}
	if evt.ID == "" {
		t.Error("Event ID should not be empty")
	}
	if evt.Type != TypeWorkflowActivated {
		t.Errorf("Event Type = %v, want %v", evt.Type, TypeWorkflowActivated)
	}
	if evt.AggregateID != "wf-v3" {
		t.Errorf("Event AggregateID = %v, want wf-v3", evt.AggregateID)
	}
	if evt.BusinessUnitID != "bu-1" {
		t.Errorf("Event BusinessUnitID = %v, want bu-1", evt.BusinessUnitID)
	}
	if evt.Payload["family_id"] != "wf-root" {
		t.Errorf("Event Payload[family_id] = %v, want wf-root", evt.Payload["family_id"])
	}
	if evt.CorrelationID == "" {
		t.Error("Event CorrelationID should not be empty")
	}
	if evt.Timestamp.IsZero() || time.Since(evt.Timestamp) > time.Second {
		t.Error("Event Timestamp should be recent")
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	evt := NewEventWithCorrelation(TypeRequestSpawned, "req-2", "bu-1", map[string]interface{}{
		"source_request_id": "req-1",
	}, "req-1")

	if evt == nil {
		t.Fatal("NewEventWithCorrelation() returned nil")
	}
	if evt.CorrelationID != "req-1" {
		t.Errorf("Event CorrelationID = %v, want req-1", evt.CorrelationID)
	}
	if evt.Type != TypeRequestSpawned {
		t.Errorf("Event Type = %v, want %v", evt.Type, TypeRequestSpawned)
	}
	if evt.AggregateID != "req-2" {
		t.Errorf("Event AggregateID = %v, want req-2", evt.AggregateID)
	}
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeTransitionCreated, "tr-1", "bu-1", map[string]interface{}{
		"trigger_condition": "APPROVED",
	})

	modified := original.WithPayload("auto_trigger", true)

	if _, exists := original.Payload["auto_trigger"]; exists {
		t.Error("Original event should not be modified")
	}
	if original.Payload["trigger_condition"] != "APPROVED" {
		t.Error("Original event payload should remain intact")
	}
	if modified.Payload["trigger_condition"] != "APPROVED" {
		t.Error("Modified event should retain original payload")
	}
	if modified.Payload["auto_trigger"] != true {
		t.Error("Modified event should have new payload")
	}
	if modified.ID != original.ID {
		t.Error("Modified event should have same ID")
	}
	if modified.CorrelationID != original.CorrelationID {
		t.Error("Modified event should have same CorrelationID")
	}
}

func TestEvent_GetPayloadString(t *testing.T) {
	evt := NewEvent(TypeRequestSpawned, "req-2", "bu-1", map[string]interface{}{
		"initiator_id": "user-7",
		"version":      3,
		"missing":      nil,
	})

	tests := []struct {
		name string
		key  string
		want string
	}{
		{
			name: "existing string",
			key:  "initiator_id",
			want: "user-7",
		},
		{
			name: "non-string value",
			key:  "version",
			want: "",
		},
		{
			name: "missing key",
			key:  "nonexistent",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evt.GetPayloadString(tt.key); got != tt.want {
				t.Errorf("GetPayloadString(%v) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestEvent_GetPayloadBool(t *testing.T) {
	evt := NewEvent(TypeTransitionCreated, "tr-1", "bu-1", map[string]interface{}{
		"bool_true":  true,
		"bool_false": false,
		"string":     "not a bool",
		"missing":    nil,
	})

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{
			name: "true value",
			key:  "bool_true",
			want: true,
		},
		{
			name: "false value",
			key:  "bool_false",
			want: false,
		},
		{
			name: "non-bool value",
			key:  "string",
			want: false,
		},
		{
			name: "missing key",
			key:  "nonexistent",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evt.GetPayloadBool(tt.key); got != tt.want {
				t.Errorf("GetPayloadBool(%v) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestEvent_UniqueIDs(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		evt := NewEvent(TypeWorkflowActivated, "wf-1", "bu-1", nil)
		if ids[evt.ID] {
			t.Errorf("Duplicate event ID found: %s", evt.ID)
		}
		ids[evt.ID] = true
	}
}

func TestEvent_CorrelationChain(t *testing.T) {
	first := NewEvent(TypeRequestSpawned, "req-1", "bu-1", nil)
	correlationID := first.CorrelationID

	second := NewEventWithCorrelation(TypeRequestSpawned, "req-2", "bu-1", nil, correlationID)
	third := NewEventWithCorrelation(TypeManualTriggerPending, "req-2", "bu-1", nil, correlationID)

	if second.CorrelationID != correlationID || third.CorrelationID != correlationID {
		t.Error("chained events should share the correlation ID")
	}
	if first.ID == second.ID || first.ID == third.ID || second.ID == third.ID {
		t.Error("events should have unique IDs even with same correlation ID")
	}
}
