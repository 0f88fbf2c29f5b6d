package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingParticipants = errors.New("message record needs sender_id and receiver_id")
	ErrEmptyMessage        = errors.New("message record needs text or image_url")
)

// MessageRecord is the message shape exchanged over REST and the relay.
// Optional fields are empty strings / nil when absent.
type MessageRecord struct {
	ID            string     `json:"id,omitempty"`
	SenderID      string     `json:"sender_id"`
	ReceiverID    string     `json:"receiver_id"`
	Text          string     `json:"text,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	RelayedAt     *time.Time `json:"relayed_at,omitempty"`
}

func (r MessageRecord) Validate() error {
	if strings.TrimSpace(r.SenderID) == "" || strings.TrimSpace(r.ReceiverID) == "" {
		return ErrMissingParticipants
	}
	if r.Text == "" && r.ImageURL == "" {
		return ErrEmptyMessage
	}
	return nil
}

// DecodeRecord converts a loosely typed socket payload (usually a
// map[string]any produced by the socket.io parser) into a MessageRecord.
func DecodeRecord(payload any) (MessageRecord, error) {
	var record MessageRecord

	var raw []byte
	switch v := payload.(type) {
	case nil:
		return record, ErrEmptyMessage
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return record, err
		}
		raw = b
	}

	if err := json.Unmarshal(raw, &record); err != nil {
		return record, err
	}
	return record, record.Validate()
}
