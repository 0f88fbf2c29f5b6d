package router

import (
	"fmt"
	"log"

	"chatter-service/metrics"
	"chatter-service/model"
	"chatter-service/relay"
	"chatter-service/socketio"

	"github.com/zishang520/socket.io/v2/socket"
)

// Socket binds the chat events of every connection to hub.
func Socket(server *socketio.Server, hub *relay.Relay) {
	server.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)

		events := chatEvents{
			hub:  hub,
			conn: socketio.ConnID(client),
			user: socketio.UserID(client),
			reject: func(reason string) {
				client.Emit(model.EventRejected, reason)
			},
		}

		client.On(model.EventAnnounceOnline, events.online)
		client.On(model.EventAnnounceOffline, events.offline)
		client.On(model.EventMessage, events.message)
		client.On("disconnect", events.disconnect)
	})
}

// chatEvents handles the events of one connection.
type chatEvents struct {
	hub  *relay.Relay
	conn relay.ConnID
	// user is the identity authenticated at handshake, empty for anonymous sockets.
	user   string
	reject func(reason string)
}

func (e chatEvents) online(args ...any) {
	e.hub.AnnounceOnline(e.conn, e.userArg(args))
}

func (e chatEvents) offline(args ...any) {
	e.hub.AnnounceOffline(e.conn, e.userArg(args))
}

func (e chatEvents) message(args ...any) {
	if len(args) == 0 {
		e.malformed(fmt.Errorf("%s without payload", model.EventMessage))
		return
	}

	record, err := model.DecodeRecord(args[0])
	if err != nil {
		e.malformed(err)
		return
	}
	if err := e.hub.RelayMessage(record, e.conn); err != nil {
		e.reject(err.Error())
	}
}

func (e chatEvents) disconnect(...any) {
	e.hub.Disconnect(e.conn)
}

func (e chatEvents) malformed(err error) {
	metrics.RelayMessages.WithLabelValues(metrics.OutcomeMalformed).Inc()
	log.Printf("socket %s: dropped message: %v", e.conn, err)
	e.reject(fmt.Errorf("%w: %v", relay.ErrMalformed, err).Error())
}

// userArg prefers the id sent with the event and falls back to the handshake identity.
func (e chatEvents) userArg(args []any) string {
	if len(args) > 0 {
		if id, ok := args[0].(string); ok && id != "" {
			return id
		}
	}
	return e.user
}
