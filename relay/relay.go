package relay

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"chatter-service/metrics"
	"chatter-service/model"

	"golang.org/x/time/rate"
)

var (
	ErrMalformed = errors.New("malformed message")
	ErrThrottled = errors.New("message rate exceeded")
)

// Broadcaster is the transport the relay publishes through.
type Broadcaster interface {
	// Broadcast sends to every connection.
	Broadcast(event string, payload any)
	// BroadcastExcept sends to every connection but origin.
	BroadcastExcept(origin ConnID, event string, payload any)
	// EmitToUser sends to the connections joined to the user's room.
	EmitToUser(userID string, event string, payload any)
}

type Options struct {
	// MessageRate is the sustained relay rate per connection. Zero disables limiting.
	MessageRate  rate.Limit
	MessageBurst int
	Now          func() time.Time
}

type Relay struct {
	out      Broadcaster
	presence *Presence
	opts     Options

	// broadcastMu orders presence changes with the snapshots sent for them.
	broadcastMu sync.Mutex

	mu       sync.Mutex
	limiters map[ConnID]*rate.Limiter
}

func New(out Broadcaster, presence *Presence, opts Options) *Relay {
	if presence == nil {
		presence = NewPresence()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MessageBurst <= 0 {
		opts.MessageBurst = 1
	}
	return &Relay{
		out:      out,
		presence: presence,
		opts:     opts,
		limiters: make(map[ConnID]*rate.Limiter),
	}
}

func (r *Relay) AnnounceOnline(conn ConnID, userID string) {
	if userID == "" {
		log.Printf("relay: %s announced online without a user id", conn)
		return
	}

	r.broadcastMu.Lock()
	defer r.broadcastMu.Unlock()
	r.presence.Add(conn, userID)
	r.broadcastOnline()
}

// AnnounceOffline removes userID, or every user bound to conn when userID is empty.
func (r *Relay) AnnounceOffline(conn ConnID, userID string) {
	r.broadcastMu.Lock()
	defer r.broadcastMu.Unlock()

	if userID != "" {
		r.presence.Remove(userID)
	} else {
		for _, bound := range r.presence.Users(conn) {
			r.presence.Remove(bound)
		}
	}
	r.broadcastOnline()
}

// Disconnect is the implicit offline signal for a dropped connection.
func (r *Relay) Disconnect(conn ConnID) {
	r.mu.Lock()
	delete(r.limiters, conn)
	r.mu.Unlock()

	r.broadcastMu.Lock()
	defer r.broadcastMu.Unlock()
	if r.presence.Detach(conn) {
		r.broadcastOnline()
	}
}

// RelayMessage broadcasts record to every connection except origin.
func (r *Relay) RelayMessage(record model.MessageRecord, origin ConnID) error {
	if err := record.Validate(); err != nil {
		metrics.RelayMessages.WithLabelValues(metrics.OutcomeMalformed).Inc()
		log.Printf("relay: dropped message from %s: %v", origin, err)
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !r.allow(origin) {
		metrics.RelayMessages.WithLabelValues(metrics.OutcomeThrottled).Inc()
		log.Printf("relay: throttled message from %s", origin)
		return ErrThrottled
	}

	relayedAt := r.opts.Now()
	record.RelayedAt = &relayedAt

	r.out.BroadcastExcept(origin, model.EventMessage, record)
	metrics.RelayMessages.WithLabelValues(metrics.OutcomeRelayed).Inc()
	return nil
}

// Deliver pushes a persisted record to the receiver's own connections.
func (r *Relay) Deliver(record model.MessageRecord) error {
	if err := record.Validate(); err != nil {
		metrics.RelayMessages.WithLabelValues(metrics.OutcomeMalformed).Inc()
		log.Printf("relay: dropped delivery: %v", err)
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	relayedAt := r.opts.Now()
	record.RelayedAt = &relayedAt

	r.out.EmitToUser(record.ReceiverID, model.EventMessage, record)
	metrics.RelayMessages.WithLabelValues(metrics.OutcomeDelivered).Inc()
	return nil
}

func (r *Relay) Online() []string {
	return r.presence.Snapshot()
}

// Close clears process-scoped state.
func (r *Relay) Close() {
	r.broadcastMu.Lock()
	r.presence.Clear()
	metrics.OnlineUsers.Set(0)
	r.broadcastMu.Unlock()

	r.mu.Lock()
	r.limiters = make(map[ConnID]*rate.Limiter)
	r.mu.Unlock()
}

// broadcastOnline must be called with broadcastMu held.
func (r *Relay) broadcastOnline() {
	users := r.presence.Snapshot()
	metrics.OnlineUsers.Set(float64(len(users)))
	metrics.PresenceBroadcasts.Inc()
	r.out.Broadcast(model.EventOnlineUsers, users)
}

func (r *Relay) allow(conn ConnID) bool {
	if r.opts.MessageRate <= 0 {
		return true
	}

	r.mu.Lock()
	limiter, ok := r.limiters[conn]
	if !ok {
		limiter = rate.NewLimiter(r.opts.MessageRate, r.opts.MessageBurst)
		r.limiters[conn] = limiter
	}
	r.mu.Unlock()

	return limiter.AllowN(r.opts.Now(), 1)
}
