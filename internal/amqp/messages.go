package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
)

// LedgerEventMessage announces a committed ledger write. It carries ids only;
// consumers read the rows from the database.
type LedgerEventMessage struct {
	ID             string    `json:"id"`
	UserID         int64     `json:"user_id"`
	TransactionIDs []int64   `json:"transaction_ids,omitempty"`
	Reason         string    `json:"reason"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(ev core.LedgerEvent) *LedgerEventMessage {
	return &LedgerEventMessage{
		ID:             uuid.NewString(),
		UserID:         ev.UserID,
		TransactionIDs: ev.TransactionIDs,
		Reason:         ev.Reason,
		Timestamp:      time.Now().UTC(),
	}
}

func (m *LedgerEventMessage) Event() core.LedgerEvent {
	return core.LedgerEvent{UserID: m.UserID, TransactionIDs: m.TransactionIDs, Reason: m.Reason}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON decodes and sanity-checks a message body.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID <= 0 {
		return nil, fmt.Errorf("ledger event %q has no user id", msg.ID)
	}
	return &msg, nil
}
