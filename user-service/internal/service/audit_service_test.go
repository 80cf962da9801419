package service

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/useradmin/userapi/shared/events"
)

func TestHandleAccountEvent(t *testing.T) {
	var buf bytes.Buffer
	svc := NewAuditService(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := svc.HandleAccountEvent(context.Background(), events.Event{
		Type:      events.AccountLoginChanged,
		Timestamp: time.Now().UTC(),
		Data: map[string]any{
			"accountId": "id-1", "login": "bob", "previousLogin": "alice", "actor": "admin",
		},
	})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "account event", entry["msg"])
	assert.Equal(t, "audit", entry["component"])
	assert.Equal(t, "bob", entry["login"])
	assert.Equal(t, "alice", entry["previous_login"])
	assert.Equal(t, "admin", entry["actor"])
}

func TestHandleAccountEvent_UnknownTypeIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	svc := NewAuditService(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := svc.HandleAccountEvent(context.Background(), events.Event{Type: "transaction.created", Data: 42})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "ignoring unknown event")
}

func TestHandleAccountEvent_BadPayload(t *testing.T) {
	svc := NewAuditService(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))

	err := svc.HandleAccountEvent(context.Background(), events.Event{Type: events.AccountCreated, Data: "not an object"})
	assert.Error(t, err)
}
