package client

import (
	"testing"

	"chatter-service/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(id, sender, receiver, text string) model.MessageRecord {
	return model.MessageRecord{ID: id, SenderID: sender, ReceiverID: receiver, Text: text}
}

func TestReceiveDropsSameID(t *testing.T) {
	s := NewStore("B", nil, nil)
	s.Open("A", []model.MessageRecord{msg("m1", "A", "B", "hi")})

	outcome := s.Receive(msg("m1", "A", "B", "edited text"))

	assert.Equal(t, DroppedDuplicate, outcome)
	assert.Len(t, s.Messages(), 1)
}

func TestReceiveDropsSameCorrelationID(t *testing.T) {
	s := NewStore("B", nil, nil)
	first := msg("m1", "A", "B", "hi")
	first.CorrelationID = "c1"
	s.Open("A", []model.MessageRecord{first})

	for _, id := range []string{"m1", "m2", ""} {
		retry := msg(id, "A", "B", "different "+id)
		retry.CorrelationID = "c1"
		assert.Equal(t, DroppedDuplicate, s.Receive(retry))
	}
	assert.Len(t, s.Messages(), 1)
}

func TestReceiveNeverAppendsOwnMessages(t *testing.T) {
	s := NewStore("A", nil, nil)
	s.Open("B", nil)

	outcome := s.Receive(msg("m9", "A", "B", "brand new"))

	assert.Equal(t, DroppedSelf, outcome)
	assert.Empty(t, s.Messages())
}

func TestReceiveCollapsesIdenticalContent(t *testing.T) {
	// Two distinct sends of the same text without ids or correlation ids
	// collapse into one entry. This is the expected behaviour of ContentFallback.
	s := NewStore("B", nil, nil)
	s.Open("A", nil)

	assert.Equal(t, Appended, s.Receive(model.MessageRecord{SenderID: "A", ReceiverID: "B", Text: "ok"}))
	assert.Equal(t, DroppedDuplicate, s.Receive(model.MessageRecord{SenderID: "A", ReceiverID: "B", Text: "ok"}))
	assert.Len(t, s.Messages(), 1)
}

func TestCorrelationOnlyKeepsIdenticalContent(t *testing.T) {
	s := NewStore("B", CorrelationOnly{}, nil)
	s.Open("A", nil)

	assert.Equal(t, Appended, s.Receive(msg("m1", "A", "B", "ok")))
	assert.Equal(t, Appended, s.Receive(msg("m2", "A", "B", "ok")))
	assert.Equal(t, DroppedDuplicate, s.Receive(msg("m2", "A", "B", "ok")))
	assert.Len(t, s.Messages(), 2)
}

func TestReceiveContentMatchWithoutIdentifiers(t *testing.T) {
	s := NewStore("B", nil, nil)
	s.Open("A", []model.MessageRecord{msg("m1", "A", "B", "hello")})

	outcome := s.Receive(model.MessageRecord{SenderID: "A", ReceiverID: "B", Text: "hello"})

	assert.Equal(t, DroppedDuplicate, outcome)
	assert.Len(t, s.Messages(), 1)
}

func TestReceiveImageIsPartOfContentMatch(t *testing.T) {
	s := NewStore("B", nil, nil)
	s.Open("A", []model.MessageRecord{{SenderID: "A", ReceiverID: "B", Text: "look", ImageURL: "https://cdn/1.png"}})

	outcome := s.Receive(model.MessageRecord{SenderID: "A", ReceiverID: "B", Text: "look", ImageURL: "https://cdn/2.png"})

	assert.Equal(t, Appended, outcome)
	assert.Len(t, s.Messages(), 2)
}

func TestReceiveOtherConversationNotifies(t *testing.T) {
	var notified []model.MessageRecord
	s := NewStore("B", nil, func(r model.MessageRecord) { notified = append(notified, r) })
	s.Open("A", nil)

	outcome := s.Receive(msg("m1", "C", "B", "psst"))

	assert.Equal(t, Notified, outcome)
	assert.Empty(t, s.Messages())
	require.Len(t, notified, 1)
	assert.Equal(t, "C", notified[0].SenderID)
}

func TestReceiveWithoutActiveConversationNotifies(t *testing.T) {
	notified := 0
	s := NewStore("B", nil, func(model.MessageRecord) { notified++ })

	assert.Equal(t, Notified, s.Receive(msg("m1", "A", "B", "hi")))
	assert.Equal(t, 1, notified)
}

func TestReceiveActiveConversationDoesNotNotify(t *testing.T) {
	notified := 0
	s := NewStore("B", nil, func(model.MessageRecord) { notified++ })
	s.Open("A", nil)

	assert.Equal(t, Appended, s.Receive(msg("m1", "A", "B", "hi")))
	assert.Zero(t, notified)
}

func TestReceiveMatchesActiveConversationOnEitherSide(t *testing.T) {
	notified := 0
	s := NewStore("B", nil, func(model.MessageRecord) { notified++ })
	s.Open("A", nil)

	// A talking to C still involves the active counterpart.
	assert.Equal(t, Appended, s.Receive(msg("m1", "A", "C", "hello C")))
	assert.Len(t, s.Messages(), 1)
	assert.Zero(t, notified)

	// Sent to A by someone else: appended, and notified since A is not the sender.
	assert.Equal(t, Appended, s.Receive(msg("m2", "C", "A", "hello A")))
	assert.Len(t, s.Messages(), 2)
	assert.Equal(t, 1, notified)
}

func TestReceiveUnrelatedMessageWithoutActiveConversationNotifies(t *testing.T) {
	var notified []model.MessageRecord
	s := NewStore("B", nil, func(r model.MessageRecord) { notified = append(notified, r) })

	assert.Equal(t, Notified, s.Receive(msg("m1", "C", "D", "between others")))
	assert.Empty(t, s.Messages())
	require.Len(t, notified, 1)
	assert.Equal(t, "m1", notified[0].ID)
}

func TestReceiveDropsMalformed(t *testing.T) {
	s := NewStore("B", nil, nil)
	s.Open("A", nil)

	assert.Equal(t, DroppedMalformed, s.Receive(model.MessageRecord{SenderID: "A", ReceiverID: "B"}))
	assert.Equal(t, DroppedMalformed, s.Receive(model.MessageRecord{}))
	assert.Empty(t, s.Messages())
}

func TestOpenRebuildsList(t *testing.T) {
	s := NewStore("B", nil, nil)
	s.Open("A", []model.MessageRecord{msg("m1", "A", "B", "one")})
	s.Receive(msg("m2", "A", "B", "two"))
	require.Len(t, s.Messages(), 2)

	s.Open("C", []model.MessageRecord{msg("m3", "C", "B", "three")})

	assert.Equal(t, "C", s.Active())
	assert.Equal(t, []model.MessageRecord{msg("m3", "C", "B", "three")}, s.Messages())

	s.Close()
	assert.Empty(t, s.Active())
	assert.Empty(t, s.Messages())
}

func TestConfirmSkipsKnownID(t *testing.T) {
	s := NewStore("A", nil, nil)
	s.Open("B", nil)

	assert.True(t, s.Confirm(msg("m1", "A", "B", "hi")))
	assert.False(t, s.Confirm(msg("m1", "A", "B", "hi")))
	assert.Len(t, s.Messages(), 1)

	assert.False(t, s.Confirm(msg("m2", "A", "C", "elsewhere")), "not the active conversation")
	assert.Len(t, s.Messages(), 1)
}

func TestMessagesReturnsCopy(t *testing.T) {
	s := NewStore("B", nil, nil)
	s.Open("A", []model.MessageRecord{msg("m1", "A", "B", "hi")})

	list := s.Messages()
	list[0].Text = "mutated"

	assert.Equal(t, "hi", s.Messages()[0].Text)
}

func TestPresenceReplacedWholesale(t *testing.T) {
	p := NewPresence()
	p.Replace([]string{"u1", "u2"})
	assert.True(t, p.IsOnline("u1"))

	p.Replace([]string{"u3"})

	assert.Equal(t, []string{"u3"}, p.List())
	assert.False(t, p.IsOnline("u1"))

	p.Replace(nil)
	assert.Empty(t, p.List())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "dropped_duplicate", DroppedDuplicate.String())
	assert.Equal(t, "notified", Notified.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}
