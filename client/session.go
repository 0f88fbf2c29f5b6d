package client

import (
	"context"
	"errors"
	"fmt"
	"log"

	"chatter-service/model"

	"github.com/google/uuid"
)

var (
	ErrNoCounterpart = errors.New("no recipient selected")
	ErrEmptyMessage  = errors.New("message needs text or an image")
)

type SendInput struct {
	Text string
	// Image is a data URL ("data:image/png;base64,...").
	Image string
	// CorrelationID is reused across retries of the same logical send.
	CorrelationID string
}

type SendResult struct {
	Record    model.MessageRecord
	Duplicate bool
}

// API is the REST surface the session depends on.
type API interface {
	SendMessage(ctx context.Context, counterpart string, in SendInput) (SendResult, error)
	Conversation(ctx context.Context, counterpart string) ([]model.MessageRecord, error)
	Users(ctx context.Context) ([]User, error)
}

// Emitter is the client side of the relay connection.
type Emitter interface {
	Emit(event string, args ...any) error
}

// Session ties the store to the REST API and the relay connection.
type Session struct {
	Store *Store

	api   API
	relay Emitter
	newID func() string
}

func NewSession(store *Store, api API, relay Emitter) *Session {
	return &Session{
		Store: store,
		api:   api,
		relay: relay,
		newID: uuid.NewString,
	}
}

// Connected announces the local user; call it after every (re)connect.
func (s *Session) Connected() error {
	return s.relay.Emit(model.EventAnnounceOnline, s.Store.Self())
}

// Disconnecting announces the local user offline before a clean shutdown.
func (s *Session) Disconnecting() error {
	return s.relay.Emit(model.EventAnnounceOffline, s.Store.Self())
}

func (s *Session) LoadUsers(ctx context.Context) error {
	users, err := s.api.Users(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	s.Store.SetUsers(users)
	return nil
}

// Open loads the conversation with counterpart and makes it active.
func (s *Session) Open(ctx context.Context, counterpart string) error {
	if counterpart == "" {
		return ErrNoCounterpart
	}
	history, err := s.api.Conversation(ctx, counterpart)
	if err != nil {
		return fmt.Errorf("load conversation %s: %w", counterpart, err)
	}
	s.Store.Open(counterpart, history)
	return nil
}

// Send persists a message over REST, appends the stored record and emits
// it on the relay. The emit is not awaited beyond handing it to the transport.
func (s *Session) Send(ctx context.Context, counterpart string, in SendInput) (model.MessageRecord, error) {
	if counterpart == "" {
		return model.MessageRecord{}, ErrNoCounterpart
	}
	if in.Text == "" && in.Image == "" {
		return model.MessageRecord{}, ErrEmptyMessage
	}
	if in.CorrelationID == "" {
		in.CorrelationID = s.newID()
	}

	result, err := s.api.SendMessage(ctx, counterpart, in)
	if err != nil {
		return model.MessageRecord{}, fmt.Errorf("send message: %w", err)
	}

	record := result.Record
	if record.CorrelationID == "" {
		record.CorrelationID = in.CorrelationID
	}
	s.Store.Confirm(record)

	if err := s.relay.Emit(model.EventMessage, record); err != nil {
		log.Printf("client: relay emit failed for %s: %v", record.ID, err)
	}
	return record, nil
}

// Handle dispatches an event received from the relay.
func (s *Session) Handle(event string, payload any) {
	switch event {
	case model.EventMessage:
		record, err := model.DecodeRecord(payload)
		if err != nil {
			log.Printf("client: dropped relayed message: %v", err)
			return
		}
		s.Store.Receive(record)
	case model.EventOnlineUsers:
		ids, ok := stringList(payload)
		if !ok {
			log.Printf("client: unexpected online users payload %T", payload)
			return
		}
		s.Store.Presence.Replace(ids)
	}
}

func stringList(payload any) ([]string, bool) {
	switch v := payload.(type) {
	case nil:
		return []string{}, true
	case []string:
		return v, true
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			id, ok := item.(string)
			if !ok {
				return nil, false
			}
			ids = append(ids, id)
		}
		return ids, true
	}
	return nil, false
}
