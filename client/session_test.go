package client

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"chatter-service/model"
	"chatter-service/relay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu      sync.Mutex
	sent    []SendInput
	stored  map[string]model.MessageRecord
	next    int
	history map[string][]model.MessageRecord
	users   []User
	err     error
	self    string
}

func newFakeAPI(self string) *fakeAPI {
	return &fakeAPI{self: self, stored: map[string]model.MessageRecord{}, history: map[string][]model.MessageRecord{}}
}

func (f *fakeAPI) SendMessage(_ context.Context, counterpart string, in SendInput) (SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return SendResult{}, f.err
	}
	f.sent = append(f.sent, in)
	if existing, ok := f.stored[in.CorrelationID]; ok {
		return SendResult{Record: existing, Duplicate: true}, nil
	}
	f.next++
	record := model.MessageRecord{
		ID:            "m" + strconv.Itoa(f.next),
		SenderID:      f.self,
		ReceiverID:    counterpart,
		Text:          in.Text,
		ImageURL:      in.Image,
		CorrelationID: in.CorrelationID,
		CreatedAt:     time.Now(),
	}
	f.stored[in.CorrelationID] = record
	return SendResult{Record: record}, nil
}

func (f *fakeAPI) Conversation(_ context.Context, counterpart string) ([]model.MessageRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.history[counterpart], nil
}

func (f *fakeAPI) Users(context.Context) ([]User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

type emitted struct {
	event string
	args  []any
}

type fakeEmitter struct {
	events []emitted
	err    error
}

func (f *fakeEmitter) Emit(event string, args ...any) error {
	f.events = append(f.events, emitted{event: event, args: args})
	return f.err
}

func TestSendConfirmsAndEmits(t *testing.T) {
	api := newFakeAPI("A")
	emitter := &fakeEmitter{}
	session := NewSession(NewStore("A", nil, nil), api, emitter)
	session.newID = func() string { return "c1" }
	require.NoError(t, session.Open(context.Background(), "B"))

	record, err := session.Send(context.Background(), "B", SendInput{Text: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "c1", record.CorrelationID)
	assert.Len(t, session.Store.Messages(), 1)
	require.Len(t, emitter.events, 1)
	assert.Equal(t, model.EventMessage, emitter.events[0].event)
	assert.Equal(t, record, emitter.events[0].args[0])
}

func TestSendRetryKeepsSingleEntry(t *testing.T) {
	api := newFakeAPI("A")
	session := NewSession(NewStore("A", nil, nil), api, &fakeEmitter{})
	require.NoError(t, session.Open(context.Background(), "B"))

	first, err := session.Send(context.Background(), "B", SendInput{Text: "hi", CorrelationID: "retry-1"})
	require.NoError(t, err)
	second, err := session.Send(context.Background(), "B", SendInput{Text: "hi", CorrelationID: "retry-1"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, session.Store.Messages(), 1)
	assert.Len(t, api.sent, 2)
}

func TestSendFailureLeavesStateUntouched(t *testing.T) {
	api := newFakeAPI("A")
	emitter := &fakeEmitter{}
	session := NewSession(NewStore("A", nil, nil), api, emitter)
	session.Store.Open("B", nil)
	api.err = errors.New("boom")

	_, err := session.Send(context.Background(), "B", SendInput{Text: "hi"})

	assert.Error(t, err)
	assert.Empty(t, session.Store.Messages())
	assert.Empty(t, emitter.events)
}

func TestSendRelayFailureIsNotFatal(t *testing.T) {
	session := NewSession(NewStore("A", nil, nil), newFakeAPI("A"), &fakeEmitter{err: errors.New("offline")})
	session.Store.Open("B", nil)

	_, err := session.Send(context.Background(), "B", SendInput{Text: "hi"})

	assert.NoError(t, err)
	assert.Len(t, session.Store.Messages(), 1)
}

func TestSendValidatesInput(t *testing.T) {
	session := NewSession(NewStore("A", nil, nil), newFakeAPI("A"), &fakeEmitter{})

	_, err := session.Send(context.Background(), "", SendInput{Text: "hi"})
	assert.ErrorIs(t, err, ErrNoCounterpart)

	_, err = session.Send(context.Background(), "B", SendInput{})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	assert.ErrorIs(t, session.Open(context.Background(), ""), ErrNoCounterpart)
}

func TestLoadUsers(t *testing.T) {
	api := newFakeAPI("A")
	api.users = []User{{ID: "B", FullName: "Bea"}}
	session := NewSession(NewStore("A", nil, nil), api, &fakeEmitter{})

	require.NoError(t, session.LoadUsers(context.Background()))
	assert.Equal(t, api.users, session.Store.Users())
}

func TestHandleOnlineUsersPayloads(t *testing.T) {
	session := NewSession(NewStore("A", nil, nil), newFakeAPI("A"), &fakeEmitter{})

	session.Handle(model.EventOnlineUsers, []any{"u1", "u2"})
	assert.Equal(t, []string{"u1", "u2"}, session.Store.Presence.List())

	session.Handle(model.EventOnlineUsers, []string{"u3"})
	assert.Equal(t, []string{"u3"}, session.Store.Presence.List())

	session.Handle(model.EventOnlineUsers, []any{42})
	assert.Equal(t, []string{"u3"}, session.Store.Presence.List(), "bad payload keeps last state")
}

func TestHandleMessagePayload(t *testing.T) {
	session := NewSession(NewStore("B", nil, nil), newFakeAPI("B"), &fakeEmitter{})
	session.Store.Open("A", nil)

	session.Handle(model.EventMessage, map[string]any{"id": "m1", "sender_id": "A", "receiver_id": "B", "text": "hi"})
	session.Handle(model.EventMessage, map[string]any{"sender_id": "A"})

	assert.Len(t, session.Store.Messages(), 1)
}

// loopback wires sessions to a real relay in-process.
type loopback struct {
	mu       sync.Mutex
	relay    *relay.Relay
	sessions map[relay.ConnID]*Session
	rooms    map[string]relay.ConnID
}

func (l *loopback) Broadcast(event string, payload any) {
	for _, s := range l.snapshot() {
		s.Handle(event, payload)
	}
}

func (l *loopback) BroadcastExcept(origin relay.ConnID, event string, payload any) {
	for conn, s := range l.snapshot() {
		if conn != origin {
			s.Handle(event, payload)
		}
	}
}

func (l *loopback) EmitToUser(userID string, event string, payload any) {
	l.mu.Lock()
	conn, ok := l.rooms[userID]
	s := l.sessions[conn]
	l.mu.Unlock()
	if ok {
		s.Handle(event, payload)
	}
}

func (l *loopback) snapshot() map[relay.ConnID]*Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[relay.ConnID]*Session, len(l.sessions))
	for k, v := range l.sessions {
		out[k] = v
	}
	return out
}

type loopbackConn struct {
	id relay.ConnID
	l  *loopback
}

func (c loopbackConn) Emit(event string, args ...any) error {
	switch event {
	case model.EventAnnounceOnline:
		c.l.relay.AnnounceOnline(c.id, args[0].(string))
	case model.EventAnnounceOffline:
		c.l.relay.AnnounceOffline(c.id, args[0].(string))
	case model.EventMessage:
		record, err := model.DecodeRecord(args[0])
		if err != nil {
			return err
		}
		return c.l.relay.RelayMessage(record, c.id)
	}
	return nil
}

func (l *loopback) join(userID string, conn relay.ConnID, api API) *Session {
	s := NewSession(NewStore(userID, nil, nil), api, loopbackConn{id: conn, l: l})
	l.mu.Lock()
	l.sessions[conn] = s
	l.rooms[userID] = conn
	l.mu.Unlock()
	return s
}

func TestSendFansOutOncePerClient(t *testing.T) {
	l := &loopback{sessions: map[relay.ConnID]*Session{}, rooms: map[string]relay.ConnID{}}
	l.relay = relay.New(l, relay.NewPresence(), relay.Options{})

	a := l.join("A", "sock-a", newFakeAPI("A"))
	b := l.join("B", "sock-b", newFakeAPI("B"))
	c := l.join("C", "sock-c", newFakeAPI("C"))
	for _, s := range []*Session{a, b, c} {
		require.NoError(t, s.Connected())
	}
	a.Store.Open("B", nil)
	b.Store.Open("A", nil)
	c.Store.Open("D", nil)

	record, err := a.Send(context.Background(), "B", SendInput{Text: "hi", CorrelationID: "c1"})
	require.NoError(t, err)

	assert.Len(t, a.Store.Messages(), 1)
	require.Len(t, b.Store.Messages(), 1)
	assert.Equal(t, record.ID, b.Store.Messages()[0].ID)
	assert.Empty(t, c.Store.Messages())

	// The server-push path delivers the same record again; it collapses by id.
	require.NoError(t, l.relay.Deliver(record))
	assert.Len(t, b.Store.Messages(), 1)

	assert.Equal(t, []string{"A", "B", "C"}, b.Store.Presence.List())
	require.NoError(t, c.Disconnecting())
	assert.Equal(t, []string{"A", "B"}, a.Store.Presence.List())
}
