package listener

import (
	"fmt"
	"log"

	"chatter-service/event"
	"chatter-service/model"
	"chatter-service/relay"
)

var (
	ChatChannel = make(chan event.Data)
)

// Chat drains the chat queue into hub until ChatChannel is closed.
func Chat(hub *relay.Relay) {
	for data := range ChatChannel {
		if err := HandleChat(hub, data); err != nil {
			log.Printf("chat listener: %v", err)
		}
	}
}

func HandleChat(hub *relay.Relay, data event.Data) error {
	switch data.Action {
	case event.ActionMessageCreated:
		record, err := model.DecodeRecord(data.Body)
		if err != nil {
			return fmt.Errorf("%s: %w", data.Action, err)
		}
		return hub.Deliver(record)
	default:
		return fmt.Errorf("unknown action %q", data.Action)
	}
}
