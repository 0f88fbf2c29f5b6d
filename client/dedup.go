package client

import "chatter-service/model"

// Deduplicator decides whether an incoming relayed record is already
// represented in the local list.
type Deduplicator interface {
	Duplicate(existing []model.MessageRecord, incoming model.MessageRecord) bool
}

// ContentFallback matches by id, then correlation id, then by the
// (sender, receiver, text, image) tuple. The tuple match also collapses two
// distinct messages with identical content between the same pair.
type ContentFallback struct{}

func (ContentFallback) Duplicate(existing []model.MessageRecord, incoming model.MessageRecord) bool {
	for _, m := range existing {
		if sameIdentity(m, incoming) || sameContent(m, incoming) {
			return true
		}
	}
	return false
}

// CorrelationOnly matches by id and correlation id only.
type CorrelationOnly struct{}

func (CorrelationOnly) Duplicate(existing []model.MessageRecord, incoming model.MessageRecord) bool {
	for _, m := range existing {
		if sameIdentity(m, incoming) {
			return true
		}
	}
	return false
}

func sameIdentity(a, b model.MessageRecord) bool {
	if a.ID != "" && b.ID != "" && a.ID == b.ID {
		return true
	}
	return a.CorrelationID != "" && b.CorrelationID != "" && a.CorrelationID == b.CorrelationID
}

func sameContent(a, b model.MessageRecord) bool {
	return a.SenderID == b.SenderID &&
		a.ReceiverID == b.ReceiverID &&
		a.Text == b.Text &&
		a.ImageURL == b.ImageURL
}
