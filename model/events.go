package model

// Socket event names shared by the relay and its clients.
const (
	EventAnnounceOnline  = "userOnline"
	EventAnnounceOffline = "userOffline"
	EventOnlineUsers     = "onlineUsers"
	EventMessage         = "newMessage"
	// EventRejected tells a sender its message was not relayed.
	EventRejected = "messageRejected"
)
