package domain

import (
	"encoding/json"
	"time"
)

// Events emitted by the client.
const (
	EventSendMessage      = "sendMessage"
	EventSendGroupMessage = "sendGroupMessage"
	EventMarkAsRead       = "markAsRead"
	EventGetMessages      = "getMessages"
	EventJoinClassRoom    = "joinClassRoom"
	EventLeaveClassRoom   = "leaveClassRoom"
)

// Events received from the server.
const (
	EventNewMessage      = "newMessage"
	EventMessageSent     = "messageSent"
	EventMessageRead     = "messageRead"
	EventMessages        = "messages"
	EventNewGroupMessage = "newGroupMessage"
	EventUserJoined      = "userJoined"
	EventUserLeft        = "userLeft"
	EventRoomUsers       = "roomUsers"
	EventError           = "error"
	EventAck             = "ack"
)

// Error codes carried on error events.
const (
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Envelope frames every websocket message in both directions. AckID is
// set on emits expecting a confirmation; the server answers with an
// "ack" envelope carrying the same AckID.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	AckID string          `json:"ackId,omitempty"`
}

// NewEnvelope marshals data into an envelope for the given event.
func NewEnvelope(event string, data any) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{Event: event, Data: raw}, nil
}

// Client -> server payloads

type SendMessagePayload struct {
	ReceiverID    int64  `json:"receiverId"`
	MessageText   string `json:"messageText"`
	ReferenceLink string `json:"referenceLink,omitempty"`
	ClientID      string `json:"clientId,omitempty"`
}

type SendGroupMessagePayload struct {
	ClassID       string      `json:"classId"`
	MessageText   string      `json:"messageText"`
	ReferenceLink string      `json:"referenceLink,omitempty"`
	SenderID      int64       `json:"senderId"`
	Sender        UserSummary `json:"sender"`
}

type MarkAsReadPayload struct {
	MessageID int64 `json:"messageId"`
}

type GetMessagesPayload struct {
	CounterpartID int64 `json:"counterpartId"`
}

type ClassRoomPayload struct {
	ClassID string `json:"classId"`
}

// Server -> client payloads

type MessageReadPayload struct {
	MessageID int64     `json:"messageId"`
	ReadAt    time.Time `json:"readAt"`
}

type PresencePayload struct {
	ClassID string `json:"classId"`
	UserID  int64  `json:"userId"`
}

type RoomUsersPayload struct {
	ClassID string  `json:"classId"`
	Users   []int64 `json:"users"`
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Ack payloads

type JoinAck struct {
	Success bool   `json:"success"`
	ClassID string `json:"classId,omitempty"`
	UserID  int64  `json:"userId,omitempty"`
}

type GroupSendAck struct {
	Error   string        `json:"error,omitempty"`
	Message *GroupMessage `json:"message,omitempty"`
}
