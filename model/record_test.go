package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRecordValidate(t *testing.T) {
	assert.NoError(t, MessageRecord{SenderID: "1", ReceiverID: "2", Text: "hi"}.Validate())
	assert.NoError(t, MessageRecord{SenderID: "1", ReceiverID: "2", ImageURL: "https://cdn/x.png"}.Validate())
	assert.ErrorIs(t, MessageRecord{SenderID: "1", ReceiverID: "2"}.Validate(), ErrEmptyMessage)
	assert.ErrorIs(t, MessageRecord{SenderID: "1", Text: "hi"}.Validate(), ErrMissingParticipants)
	assert.ErrorIs(t, MessageRecord{SenderID: " ", ReceiverID: "2", Text: "hi"}.Validate(), ErrMissingParticipants)
}

func TestDecodeRecordFromSocketPayload(t *testing.T) {
	payload := map[string]any{
		"id":             "m1",
		"sender_id":      "1",
		"receiver_id":    "2",
		"text":           "hi",
		"correlation_id": "c1",
		"created_at":     "2026-01-02T03:04:05Z",
	}

	record, err := DecodeRecord(payload)
	require.NoError(t, err)
	assert.Equal(t, "m1", record.ID)
	assert.Equal(t, "c1", record.CorrelationID)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), record.CreatedAt)

	_, err = DecodeRecord(nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = DecodeRecord(`{"sender_id":"1","receiver_id":"2"}`)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = DecodeRecord("not json")
	assert.Error(t, err)
}

func TestMessageRecordConversion(t *testing.T) {
	correlation := "c1"
	msg := Message{SenderID: 3, ReceiverID: 4, Text: "hello", CorrelationID: &correlation}
	msg.ID = 9

	record := msg.Record()
	assert.Equal(t, "9", record.ID)
	assert.Equal(t, "3", record.SenderID)
	assert.Equal(t, "4", record.ReceiverID)
	assert.Equal(t, "c1", record.CorrelationID)

	msg.CorrelationID = nil
	assert.Empty(t, msg.Record().CorrelationID)

	id, err := ParseID("12")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)
	_, err = ParseID("abc")
	assert.Error(t, err)
}
