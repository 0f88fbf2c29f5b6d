package client

import (
	"log"
	"sync"

	"chatter-service/model"
)

// Outcome reports what Receive did with a relayed record.
type Outcome int

const (
	Appended Outcome = iota
	DroppedMalformed
	DroppedSelf
	DroppedDuplicate
	// Notified records belong to another conversation; only the notifier ran.
	Notified
)

func (o Outcome) String() string {
	switch o {
	case Appended:
		return "appended"
	case DroppedMalformed:
		return "dropped_malformed"
	case DroppedSelf:
		return "dropped_self"
	case DroppedDuplicate:
		return "dropped_duplicate"
	case Notified:
		return "notified"
	}
	return "unknown"
}

type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	ProfilePic string `json:"profile_pic"`
}

// Store holds one client's conversation state: the active counterpart,
// its ordered message list, the known users and who is online.
type Store struct {
	self   string
	dedup  Deduplicator
	notify func(model.MessageRecord)

	Presence *Presence

	mu       sync.Mutex
	active   string
	messages []model.MessageRecord
	users    []User
}

// NewStore creates the store for the local user self. A nil dedup uses
// ContentFallback; a nil notify discards notifications.
func NewStore(self string, dedup Deduplicator, notify func(model.MessageRecord)) *Store {
	if dedup == nil {
		dedup = ContentFallback{}
	}
	if notify == nil {
		notify = func(model.MessageRecord) {}
	}
	return &Store{
		self:     self,
		dedup:    dedup,
		notify:   notify,
		Presence: NewPresence(),
	}
}

func (s *Store) Self() string {
	return s.self
}

// Open makes counterpart the active conversation and replaces the list with history.
func (s *Store) Open(counterpart string, history []model.MessageRecord) {
	messages := make([]model.MessageRecord, len(history))
	copy(messages, history)

	s.mu.Lock()
	s.active = counterpart
	s.messages = messages
	s.mu.Unlock()
}

// Close leaves the active conversation.
func (s *Store) Close() {
	s.Open("", nil)
}

func (s *Store) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Store) Messages() []model.MessageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]model.MessageRecord, len(s.messages))
	copy(messages, s.messages)
	return messages
}

func (s *Store) SetUsers(users []User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]User(nil), users...)
}

func (s *Store) Users() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]User(nil), s.users...)
}

// Confirm appends a record returned by the REST send call. A record whose
// id is already listed (a retried send answered as duplicate) is not
// appended twice.
func (s *Store) Confirm(record model.MessageRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID != "" {
		for _, m := range s.messages {
			if m.ID == record.ID {
				return false
			}
		}
	}
	if s.active != record.ReceiverID && s.active != record.SenderID {
		return false
	}
	s.messages = append(s.messages, record)
	return true
}

// Receive reconciles a record that arrived over the relay.
func (s *Store) Receive(record model.MessageRecord) Outcome {
	if err := record.Validate(); err != nil {
		log.Printf("client: dropped relayed message: %v", err)
		return DroppedMalformed
	}
	if record.SenderID == s.self {
		return DroppedSelf
	}

	s.mu.Lock()
	if s.dedup.Duplicate(s.messages, record) {
		s.mu.Unlock()
		return DroppedDuplicate
	}
	active := s.active
	outcome := Notified
	if active != "" && (record.SenderID == active || record.ReceiverID == active) {
		s.messages = append(s.messages, record)
		outcome = Appended
	}
	s.mu.Unlock()

	if active == "" || record.SenderID != active {
		s.notify(record)
	}
	return outcome
}
