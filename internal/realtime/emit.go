package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/toniiplaycode/DNC-Learning-sub002/internal/domain"
	"github.com/toniiplaycode/DNC-Learning-sub002/pkg/log"
)

// Emit sends a fire-and-forget event.
func (a *Adapter) Emit(event string, payload any) error {
	env, err := domain.NewEnvelope(event, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	return a.write(env)
}

// EmitWithAck sends an event and waits for the server's ack envelope.
// The returned bytes are the raw ack payload.
func (a *Adapter) EmitWithAck(ctx context.Context, event string, payload any) (json.RawMessage, error) {
	env, err := domain.NewEnvelope(event, payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	env.AckID = uuid.NewString()

	ch := make(chan json.RawMessage, 1)
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, ErrClosed
	}
	a.pending[env.AckID] = ch
	a.mu.Unlock()

	if err := a.write(env); err != nil {
		a.mu.Lock()
		delete(a.pending, env.AckID)
		a.mu.Unlock()
		return nil, err
	}

	timeout := time.NewTimer(a.cfg.AckTimeout)
	defer timeout.Stop()

	select {
	case data, ok := <-ch:
		if !ok {
			return nil, ErrNotConnected
		}
		return data, nil
	case <-timeout.C:
		a.mu.Lock()
		delete(a.pending, env.AckID)
		a.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", event, ErrAckTimeout)
	case <-ctx.Done():
		a.mu.Lock()
		delete(a.pending, env.AckID)
		a.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (a *Adapter) write(env *domain.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	if a.conn == nil || a.state != StateConnected {
		return ErrNotConnected
	}
	a.conn.SetWriteDeadline(time.Now().Add(a.cfg.WriteWait))
	return a.conn.WriteMessage(websocket.TextMessage, data)
}

// SendMessage emits a direct message. Fire-and-forget: confirmation
// arrives asynchronously as a messageSent event.
func (a *Adapter) SendMessage(p domain.SendMessagePayload) error {
	return a.Emit(domain.EventSendMessage, p)
}

// SendGroupMessage emits a class-room message and waits for the
// server ack. The caller clears its draft only on success.
func (a *Adapter) SendGroupMessage(ctx context.Context, p domain.SendGroupMessagePayload) (*domain.GroupSendAck, error) {
	data, err := a.EmitWithAck(ctx, domain.EventSendGroupMessage, p)
	if err != nil {
		return nil, err
	}
	var ack domain.GroupSendAck
	if err := json.Unmarshal(data, &ack); err != nil {
		return nil, fmt.Errorf("decode group send ack: %w", err)
	}
	if ack.Error != "" {
		return &ack, fmt.Errorf("group message rejected: %s", ack.Error)
	}
	return &ack, nil
}

// MarkAsRead asks the server to flip a message's read flag. The local
// store is updated by the server's messageRead echo, not here.
func (a *Adapter) MarkAsRead(messageID int64) error {
	return a.Emit(domain.EventMarkAsRead, domain.MarkAsReadPayload{MessageID: messageID})
}

// GetMessages requests a bulk snapshot, answered by a messages event.
func (a *Adapter) GetMessages(counterpartID int64) error {
	return a.Emit(domain.EventGetMessages, domain.GetMessagesPayload{CounterpartID: counterpartID})
}

// JoinClassRoom joins a class chat room. A failed ack is reported to
// the caller and logged; no automatic retry is scheduled.
func (a *Adapter) JoinClassRoom(ctx context.Context, classID string) error {
	data, err := a.EmitWithAck(ctx, domain.EventJoinClassRoom, domain.ClassRoomPayload{ClassID: classID})
	if err != nil {
		return err
	}
	var ack domain.JoinAck
	if err := json.Unmarshal(data, &ack); err != nil {
		return fmt.Errorf("decode join ack: %w", err)
	}
	if !ack.Success {
		l := log.L()
		l.Warn().Str(log.FieldClassID, classID).Msg("join class room rejected")
		return fmt.Errorf("join class room %s rejected", classID)
	}
	return nil
}

// LeaveClassRoom leaves a class chat room.
func (a *Adapter) LeaveClassRoom(classID string) error {
	return a.Emit(domain.EventLeaveClassRoom, domain.ClassRoomPayload{ClassID: classID})
}
