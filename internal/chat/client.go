package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/toniiplaycode/DNC-Learning-sub002/internal/conversation"
	"github.com/toniiplaycode/DNC-Learning-sub002/internal/domain"
	"github.com/toniiplaycode/DNC-Learning-sub002/internal/realtime"
	"github.com/toniiplaycode/DNC-Learning-sub002/internal/rest"
	"github.com/toniiplaycode/DNC-Learning-sub002/internal/session"
	"github.com/toniiplaycode/DNC-Learning-sub002/internal/store"
	"github.com/toniiplaycode/DNC-Learning-sub002/pkg/log"
)

// Client ties the session, the store, the REST client and the socket
// adapter into one chat facade. All collaborators are injected; the
// facade owns no globals, so two clients can run side by side in tests.
type Client struct {
	sess    *session.Session
	store   *store.Store
	rest    *rest.Client
	adapter *realtime.Adapter

	mu          sync.Mutex
	users       map[int64]domain.UserSummary
	activeClass string
	classHeader map[string]domain.AcademicClass
}

func NewClient(sess *session.Session, st *store.Store, rc *rest.Client, ad *realtime.Adapter) *Client {
	return &Client{
		sess:        sess,
		store:       st,
		rest:        rc,
		adapter:     ad,
		users:       make(map[int64]domain.UserSummary),
		classHeader: make(map[string]domain.AcademicClass),
	}
}

// Store exposes the shared state for view derivation.
func (c *Client) Store() *store.Store { return c.store }

// Adapter exposes the socket adapter for status observation.
func (c *Client) Adapter() *realtime.Adapter { return c.adapter }

// Start validates the session, opens the socket and bootstraps message
// state over REST.
func (c *Client) Start(ctx context.Context) error {
	if err := c.sess.Eligible(time.Now()); err != nil {
		return fmt.Errorf("session not eligible: %w", err)
	}

	if err := c.adapter.Connect(ctx); err != nil {
		return err
	}

	if err := c.loadDirectMessages(ctx); err != nil {
		// Realtime still works without the bootstrap; the view shows
		// the failed fetch and offers a retry.
		l := log.L()
		l.Warn().Err(err).Msg("direct message bootstrap failed")
	}
	c.loadUsers(ctx)
	return nil
}

// Stop closes the socket. The store stays readable after Stop.
func (c *Client) Stop() {
	c.adapter.Close()
}

func (c *Client) loadDirectMessages(ctx context.Context) error {
	c.store.SetDirectFetch(store.StatusLoading, "")
	msgs, err := c.rest.UserMessages(ctx, c.sess.UserID())
	if err != nil {
		c.store.SetDirectFetch(store.StatusFailed, err.Error())
		return err
	}
	c.store.SetDirectMessages(msgs)
	c.store.SetDirectFetch(store.StatusSucceeded, "")
	return nil
}

// RetryDirectMessages re-runs the bootstrap fetch after a failure.
func (c *Client) RetryDirectMessages(ctx context.Context) error {
	return c.loadDirectMessages(ctx)
}

func (c *Client) loadUsers(ctx context.Context) {
	users, err := c.rest.Users(ctx)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("user directory fetch failed")
		return
	}
	c.mu.Lock()
	for _, u := range users {
		c.users[u.ID] = u
	}
	c.mu.Unlock()
}

// User resolves a user id against the fetched directory.
func (c *Client) User(id int64) (domain.UserSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[id]
	return u, ok
}

// Watch calls fn with a freshly derived room list every time the store
// changes, until ctx is done. The store's notifications coalesce, so fn
// re-derives from current state rather than replaying individual
// mutations.
func (c *Client) Watch(ctx context.Context, fn func([]domain.ConversationRoom)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.store.Changes():
			fn(c.Rooms())
		}
	}
}

// Rooms derives the conversation list from current store state.
func (c *Client) Rooms() []domain.ConversationRoom {
	return conversation.Reconstruct(c.sess.UserID(), c.store.DirectMessages())
}

// Room returns the conversation with one counterpart, if any messages
// with them exist.
func (c *Client) Room(counterpartID int64) (domain.ConversationRoom, bool) {
	for _, room := range c.Rooms() {
		if room.ID == counterpartID {
			return room, true
		}
	}
	return domain.ConversationRoom{}, false
}

// OpenRoom marks the counterpart's unread messages as read. The local
// flags flip when the server echoes messageRead; nothing is assumed
// before that.
func (c *Client) OpenRoom(counterpartID int64) {
	room, ok := c.Room(counterpartID)
	if !ok {
		return
	}
	for _, msg := range room.Messages {
		if msg.Role == domain.RoleOther && !msg.IsRead && msg.ID != 0 {
			if err := c.adapter.MarkAsRead(msg.ID); err != nil {
				l := log.L()
				l.Warn().Err(err).Int64(log.FieldMessageID, msg.ID).Msg("mark as read failed")
				return
			}
		}
	}
	c.store.ResetUnreadBadge()
}

// SendDirect sends a direct message optimistically. A blank draft is a
// silent no-op. The optimistic entry is appended before the emit; if
// the socket emit fails the message is persisted over REST instead, and
// only when both paths fail is the whole pre-send state restored.
func (c *Client) SendDirect(ctx context.Context, receiverID int64, draft string) error {
	text, link := ExtractReference(draft)
	if strings.TrimSpace(text) == "" && link == "" {
		return nil
	}

	receiver := domain.UserSummary{ID: receiverID}
	if u, ok := c.User(receiverID); ok {
		receiver = u
	}

	clientID := uuid.NewString()
	optimistic := domain.DirectMessage{
		ClientID:      clientID,
		MessageText:   text,
		ReferenceLink: link,
		CreatedAt:     time.Now(),
		Sender:        c.sess.User,
		Receiver:      receiver,
	}
	payload := domain.SendMessagePayload{
		ReceiverID:    receiverID,
		MessageText:   text,
		ReferenceLink: link,
		ClientID:      clientID,
	}

	snap := c.store.Snapshot()
	c.store.UpsertDirectMessage(optimistic)

	emitErr := c.adapter.SendMessage(payload)
	if emitErr == nil {
		return nil
	}

	l := log.L()
	l.Warn().Err(emitErr).Msg("socket send failed, falling back to http")

	created, err := c.rest.CreateMessage(ctx, payload)
	if err != nil {
		c.store.Restore(snap)
		return fmt.Errorf("send message: %w", emitErr)
	}
	msg := *created
	msg.ClientID = clientID
	c.store.UpsertDirectMessage(msg)
	return nil
}

// SelectClass switches the active class room: leaves the previous one,
// joins the new one and fetches its history. A stale history response
// arriving after another switch is dropped.
func (c *Client) SelectClass(ctx context.Context, classID string) error {
	c.mu.Lock()
	previous := c.activeClass
	c.activeClass = classID
	c.mu.Unlock()

	if previous != "" && previous != classID {
		if err := c.adapter.LeaveClassRoom(previous); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldClassID, previous).Msg("leave class room failed")
		}
		c.store.ClearPresence(previous)
	}

	c.adapter.SetActiveClass(classID)
	if err := c.adapter.JoinClassRoom(ctx, classID); err != nil {
		return err
	}

	return c.loadClassMessages(ctx, classID)
}

func (c *Client) loadClassMessages(ctx context.Context, classID string) error {
	c.store.SetGroupFetch(classID, store.StatusLoading, "")
	resp, err := c.rest.ClassMessages(ctx, classID)

	c.mu.Lock()
	stale := c.activeClass != classID
	c.mu.Unlock()
	if stale {
		return nil
	}

	if err != nil {
		c.store.SetGroupFetch(classID, store.StatusFailed, err.Error())
		return err
	}
	c.store.SetGroupMessages(classID, resp.Messages)
	if resp.AcademicClass != nil {
		c.mu.Lock()
		c.classHeader[classID] = *resp.AcademicClass
		c.mu.Unlock()
	}
	c.store.SetGroupFetch(classID, store.StatusSucceeded, "")
	return nil
}

// ClassHeader returns the fetched class header for a room.
func (c *Client) ClassHeader(classID string) (domain.AcademicClass, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.classHeader[classID]
	if !ok {
		return domain.AcademicClass{}, false
	}
	return h, true
}

// LeaveClass leaves the active class room and clears its presence.
func (c *Client) LeaveClass() {
	c.mu.Lock()
	classID := c.activeClass
	c.activeClass = ""
	c.mu.Unlock()
	if classID == "" {
		return
	}

	c.adapter.SetActiveClass("")
	if err := c.adapter.LeaveClassRoom(classID); err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldClassID, classID).Msg("leave class room failed")
	}
	c.store.ClearPresence(classID)
}

// SendGroup sends a class-room message and waits for the server ack.
// The returned error tells the caller to keep the draft; nil means the
// message was accepted and the draft can be cleared.
func (c *Client) SendGroup(ctx context.Context, classID string, draft string) error {
	text, link := ExtractReference(draft)
	if strings.TrimSpace(text) == "" && link == "" {
		return nil
	}

	ack, err := c.adapter.SendGroupMessage(ctx, domain.SendGroupMessagePayload{
		ClassID:       classID,
		MessageText:   text,
		ReferenceLink: link,
		SenderID:      c.sess.UserID(),
		Sender:        c.sess.User,
	})
	if err != nil {
		return fmt.Errorf("send group message: %w", err)
	}
	if ack.Message != nil {
		c.store.AddGroupMessage(*ack.Message)
	}
	return nil
}
