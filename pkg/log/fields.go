package log

const (
	// Actor
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Chat
	FieldClassID     = "class_id"
	FieldCounterpart = "counterpart_id"
	FieldMessageID   = "message_id"
	FieldEvent       = "event"
	FieldAckID       = "ack_id"

	// Transport
	FieldAttempt = "attempt"
	FieldURL     = "url"

	// App
	FieldApp = "app"
)
