package realtime

import (
	"encoding/json"

	"github.com/toniiplaycode/DNC-Learning-sub002/internal/domain"
	"github.com/toniiplaycode/DNC-Learning-sub002/pkg/log"
)

// dispatch routes one inbound envelope to its store mutation. Each
// event name has exactly one handler; a decode failure drops the frame
// and never the connection.
func (a *Adapter) dispatch(env *domain.Envelope) {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return
	}

	l := log.L()

	switch env.Event {
	case domain.EventNewMessage:
		var msg domain.DirectMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			l.Warn().Err(err).Str(log.FieldEvent, env.Event).Msg("bad payload")
			return
		}
		if !msg.Valid() {
			l.Debug().Str(log.FieldEvent, env.Event).Msg("skipping malformed message")
			return
		}
		a.store.UpsertDirectMessage(msg)
		if msg.Receiver.ID == a.userID && !msg.IsRead {
			a.store.IncrementUnreadBadge()
		}

	case domain.EventMessageSent:
		var msg domain.DirectMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			l.Warn().Err(err).Str(log.FieldEvent, env.Event).Msg("bad payload")
			return
		}
		if !msg.Valid() {
			return
		}
		// Reconciles the optimistic local entry by client id.
		a.store.UpsertDirectMessage(msg)

	case domain.EventMessageRead:
		var p domain.MessageReadPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			l.Warn().Err(err).Str(log.FieldEvent, env.Event).Msg("bad payload")
			return
		}
		a.store.MarkMessageRead(p.MessageID)

	case domain.EventMessages:
		var msgs []domain.DirectMessage
		if err := json.Unmarshal(env.Data, &msgs); err != nil {
			l.Warn().Err(err).Str(log.FieldEvent, env.Event).Msg("bad payload")
			return
		}
		a.store.SetDirectMessages(msgs)

	case domain.EventNewGroupMessage:
		var msg domain.GroupMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			l.Warn().Err(err).Str(log.FieldEvent, env.Event).Msg("bad payload")
			return
		}
		if msg.ClassID != a.ActiveClass() {
			l.Debug().Str(log.FieldClassID, msg.ClassID).Msg("group message for inactive class, ignoring")
			return
		}
		a.store.AddGroupMessage(msg)

	case domain.EventUserJoined:
		var p domain.PresencePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			l.Warn().Err(err).Str(log.FieldEvent, env.Event).Msg("bad payload")
			return
		}
		if p.ClassID == a.ActiveClass() {
			a.store.AddRoomUser(p.ClassID, p.UserID)
		}

	case domain.EventUserLeft:
		var p domain.PresencePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			l.Warn().Err(err).Str(log.FieldEvent, env.Event).Msg("bad payload")
			return
		}
		if p.ClassID == a.ActiveClass() {
			a.store.RemoveRoomUser(p.ClassID, p.UserID)
		}

	case domain.EventRoomUsers:
		var p domain.RoomUsersPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			l.Warn().Err(err).Str(log.FieldEvent, env.Event).Msg("bad payload")
			return
		}
		if p.ClassID == a.ActiveClass() {
			a.store.SetRoomUsers(p.ClassID, p.Users)
		}

	case domain.EventAck:
		a.resolveAck(env)

	case domain.EventError:
		var p domain.ErrorPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			l.Warn().Str(log.FieldEvent, env.Event).Msg("server error with unreadable payload")
			return
		}
		l.Warn().Str("code", p.Code).Str("message", p.Message).Msg("server error event")

	default:
		l.Debug().Str(log.FieldEvent, env.Event).Msg("unknown event, ignoring")
	}
}

func (a *Adapter) resolveAck(env *domain.Envelope) {
	if env.AckID == "" {
		return
	}
	a.mu.Lock()
	ch, ok := a.pending[env.AckID]
	if ok {
		delete(a.pending, env.AckID)
	}
	a.mu.Unlock()
	if !ok {
		l := log.L()
		l.Debug().Str(log.FieldAckID, env.AckID).Msg("ack for unknown emit")
		return
	}
	ch <- env.Data
	close(ch)
}
