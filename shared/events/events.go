package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	AccountCreated         = "account.created"
	AccountDetailsUpdated  = "account.details_updated"
	AccountPasswordChanged = "account.password_changed"
	AccountLoginChanged    = "account.login_changed"
	AccountRevoked         = "account.revoked"
	AccountRestored        = "account.restored"
	AccountDeleted         = "account.deleted"
)

// Stream names
const (
	AccountEventsStream = "account.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// AccountEvent is the payload of every account.* event. PreviousLogin is
// only set on account.login_changed.
type AccountEvent struct {
	AccountID     string `json:"accountId"`
	Login         string `json:"login"`
	PreviousLogin string `json:"previousLogin,omitempty"`
	Actor         string `json:"actor"`
}

// DecodeAccountEvent converts the generic Data of a received event back into
// an AccountEvent.
func DecodeAccountEvent(event Event) (AccountEvent, error) {
	var data AccountEvent
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return data, fmt.Errorf("failed to marshal %s payload: %w", event.Type, err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("failed to unmarshal %s payload: %w", event.Type, err)
	}
	return data, nil
}
