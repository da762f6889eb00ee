// Package domain holds the core message types shared across relaybot.
package domain

import "time"

// Message is one inbound chat notification delivered by the relay client.
//
// SenderHash is an opaque identity hash. The relay derives it per room, so
// the same person has different hashes in different rooms.
type Message struct {
	RoomID      string
	RoomName    string
	SenderHash  string
	SenderName  string
	IsGroupChat bool
	Content     string
	Time        time.Time
}

// ActionSendText instructs the relay client to send a text message.
const ActionSendText = "send_text"

// Reply is the single outbound response for one inbound message.
// The zero value means "no reply".
type Reply struct {
	Action  string `json:"action,omitempty"`
	RoomID  string `json:"room_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// TextReply builds a send_text reply addressed to a room.
func TextReply(roomID, text string) Reply {
	return Reply{
		Action:  ActionSendText,
		RoomID:  roomID,
		Message: text,
	}
}

// IsEmpty reports whether the reply carries nothing to send.
func (r Reply) IsEmpty() bool {
	return r.Action == "" && r.Message == ""
}
