package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionDeleted EventType = "transaction.deleted"
)

// TransactionPayload is the wire form of a transaction. The consumer may run
// against a different store, so created events carry the full record.
type TransactionPayload struct {
	UniqueID            string  `json:"unique_id"`
	AmountCents         int64   `json:"amount_cents"`
	Category            string  `json:"category"`
	Description         string  `json:"description"`
	DateMs              int64   `json:"date_ms"`
	IsIncome            bool    `json:"is_income"`
	OriginalCurrency    string  `json:"original_currency,omitempty"`
	OriginalAmountCents int64   `json:"original_amount_cents,omitempty"`
	ExchangeRate        float64 `json:"exchange_rate,omitempty"`
}

// TransactionEvent announces a created or deleted transaction
type TransactionEvent struct {
	MessageID   string              `json:"message_id"`
	Type        EventType           `json:"type"`
	UniqueID    string              `json:"unique_id"`
	Transaction *TransactionPayload `json:"transaction,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}

func NewTransactionCreated(tx core.Transaction) *TransactionEvent {
	p := &TransactionPayload{
		UniqueID:    tx.UniqueID,
		AmountCents: tx.Amount.Cents,
		Category:    tx.Category,
		Description: tx.Description,
		DateMs:      tx.Date.UnixMilli(),
		IsIncome:    tx.IsIncome,
	}
	if o := tx.Original; o != nil {
		p.OriginalCurrency = o.Currency
		p.OriginalAmountCents = o.Amount.Cents
		p.ExchangeRate = o.Rate
	}
	return &TransactionEvent{
		MessageID:   uuid.NewString(),
		Type:        EventTransactionCreated,
		UniqueID:    tx.UniqueID,
		Transaction: p,
		Timestamp:   time.Now(),
	}
}

func NewTransactionDeleted(uniqueID string) *TransactionEvent {
	return &TransactionEvent{
		MessageID: uuid.NewString(),
		Type:      EventTransactionDeleted,
		UniqueID:  uniqueID,
		Timestamp: time.Now(),
	}
}

// CoreTransaction rebuilds the domain record from the payload
func (p TransactionPayload) CoreTransaction() core.Transaction {
	tx := core.Transaction{
		UniqueID:    p.UniqueID,
		Amount:      core.Money{Cents: p.AmountCents},
		Category:    p.Category,
		Description: p.Description,
		Date:        time.UnixMilli(p.DateMs),
		IsIncome:    p.IsIncome,
	}
	if p.OriginalCurrency != "" {
		tx.Original = &core.OriginalCurrency{
			Amount:   core.Money{Cents: p.OriginalAmountCents},
			Currency: p.OriginalCurrency,
			Rate:     p.ExchangeRate,
		}
	}
	return tx
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes and sanity-checks a message body
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventTransactionCreated:
		if msg.Transaction == nil {
			return nil, fmt.Errorf("created event %s without transaction", msg.MessageID)
		}
	case EventTransactionDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.UniqueID == "" {
		return nil, fmt.Errorf("event %s without unique id", msg.MessageID)
	}
	return &msg, nil
}
