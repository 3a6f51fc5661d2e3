package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sources named in change events.
const (
	SourceOrders          = "orders"
	SourceReceipts        = "receipts"
	SourceIncomeVouchers  = "income_vouchers"
	SourceExpenseVouchers = "expense_vouchers"
	SourceSettings        = "settings"
	SourceAll             = "all"
)

var ErrInvalidMessage = errors.New("invalid source changed message")

// SourceChangedMessage announces that records of one source changed. It
// carries no record data; consumers re-read the source.
type SourceChangedMessage struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	StoreCode string    `json:"storeCode,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSourceChangedMessage(source, storeCode string) *SourceChangedMessage {
	return &SourceChangedMessage{
		ID:        uuid.NewString(),
		Source:    source,
		StoreCode: storeCode,
		Timestamp: time.Now().UTC(),
	}
}

func (m *SourceChangedMessage) Validate() error {
	if _, err := uuid.Parse(m.ID); err != nil {
		return fmt.Errorf("%w: id %q", ErrInvalidMessage, m.ID)
	}
	switch m.Source {
	case SourceOrders, SourceReceipts, SourceIncomeVouchers, SourceExpenseVouchers, SourceSettings, SourceAll:
		return nil
	}
	return fmt.Errorf("%w: source %q", ErrInvalidMessage, m.Source)
}

func (m *SourceChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SourceChangedMessageFromJSON(data []byte) (*SourceChangedMessage, error) {
	var msg SourceChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
