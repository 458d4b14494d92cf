package store

import (
	"sort"
	"sync"
	"time"

	"github.com/toniiplaycode/DNC-Learning-sub002/internal/domain"
)

// FetchStatus mirrors the lifecycle of a REST fetch backing a view.
type FetchStatus string

const (
	StatusIdle      FetchStatus = "idle"
	StatusLoading   FetchStatus = "loading"
	StatusSucceeded FetchStatus = "succeeded"
	StatusFailed    FetchStatus = "failed"
)

// Resource carries fetch state plus the captured error message, so a
// failed fetch renders a retry affordance instead of crashing a view.
type Resource struct {
	Status FetchStatus
	Error  string
}

// reconcileWindow bounds the content-match fallback used when a server
// echo carries no client correlation id.
const reconcileWindow = 5 * time.Second

// Store is the single shared message state for a session. Only the
// realtime dispatcher and REST response handlers write to it; every
// other component reads derived views.
type Store struct {
	mu sync.RWMutex

	direct      []domain.DirectMessage
	group       map[string][]domain.GroupMessage
	presence    map[string]map[int64]struct{}
	unreadBadge int

	directFetch Resource
	groupFetch  map[string]Resource

	changed chan struct{}
}

func New() *Store {
	return &Store{
		group:       make(map[string][]domain.GroupMessage),
		presence:    make(map[string]map[int64]struct{}),
		groupFetch:  make(map[string]Resource),
		directFetch: Resource{Status: StatusIdle},
		changed:     make(chan struct{}, 1),
	}
}

// Changes signals that derived views should be recomputed. The channel
// coalesces bursts; receivers re-derive from current state, never from
// the notification itself.
func (s *Store) Changes() <-chan struct{} {
	return s.changed
}

func (s *Store) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// SetDirectMessages replaces the whole direct message list (REST fetch
// or bulk "messages" snapshot).
func (s *Store) SetDirectMessages(msgs []domain.DirectMessage) {
	s.mu.Lock()
	s.direct = append([]domain.DirectMessage(nil), msgs...)
	s.mu.Unlock()
	s.notify()
}

// UpsertDirectMessage appends a message or reconciles it with an
// optimistic local entry. Matching is by client correlation id first;
// for servers that do not echo it, an unconfirmed entry with the same
// sender and text created within the reconcile window is replaced.
func (s *Store) UpsertDirectMessage(msg domain.DirectMessage) {
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		s.notify()
	}()

	if msg.ClientID != "" {
		for i, m := range s.direct {
			if m.ClientID == msg.ClientID {
				s.direct[i] = msg
				return
			}
		}
	}

	if msg.Confirmed() {
		for i, m := range s.direct {
			if m.Confirmed() && m.ID == msg.ID {
				s.direct[i] = msg
				return
			}
		}
		for i, m := range s.direct {
			if !m.Confirmed() &&
				m.Sender.ID == msg.Sender.ID &&
				m.MessageText == msg.MessageText &&
				absDuration(msg.CreatedAt.Sub(m.CreatedAt)) <= reconcileWindow {
				s.direct[i] = msg
				return
			}
		}
	}

	s.direct = append(s.direct, msg)
}

// MarkMessageRead flips isRead for the referenced message id.
func (s *Store) MarkMessageRead(messageID int64) {
	s.mu.Lock()
	for i, m := range s.direct {
		if m.Confirmed() && m.ID == messageID {
			s.direct[i].IsRead = true
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// DirectMessages returns a copy of the direct message list.
func (s *Store) DirectMessages() []domain.DirectMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.DirectMessage(nil), s.direct...)
}

// SetGroupMessages replaces a class's message list.
func (s *Store) SetGroupMessages(classID string, msgs []domain.GroupMessage) {
	s.mu.Lock()
	s.group[classID] = append([]domain.GroupMessage(nil), msgs...)
	s.mu.Unlock()
	s.notify()
}

// AddGroupMessage appends a message to its class room, dropping
// duplicates by id.
func (s *Store) AddGroupMessage(msg domain.GroupMessage) {
	s.mu.Lock()
	for _, m := range s.group[msg.ClassID] {
		if m.ID == msg.ID {
			s.mu.Unlock()
			return
		}
	}
	s.group[msg.ClassID] = append(s.group[msg.ClassID], msg)
	s.mu.Unlock()
	s.notify()
}

// GroupMessages returns a copy of a class's messages ordered ascending
// by creation time.
func (s *Store) GroupMessages(classID string) []domain.GroupMessage {
	s.mu.RLock()
	msgs := append([]domain.GroupMessage(nil), s.group[classID]...)
	s.mu.RUnlock()
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs
}

// SetRoomUsers replaces a class's presence set wholesale.
func (s *Store) SetRoomUsers(classID string, users []int64) {
	s.mu.Lock()
	set := make(map[int64]struct{}, len(users))
	for _, u := range users {
		set[u] = struct{}{}
	}
	s.presence[classID] = set
	s.mu.Unlock()
	s.notify()
}

// AddRoomUser records a user joining a class room.
func (s *Store) AddRoomUser(classID string, userID int64) {
	s.mu.Lock()
	if s.presence[classID] == nil {
		s.presence[classID] = make(map[int64]struct{})
	}
	s.presence[classID][userID] = struct{}{}
	s.mu.Unlock()
	s.notify()
}

// RemoveRoomUser records a user leaving a class room.
func (s *Store) RemoveRoomUser(classID string, userID int64) {
	s.mu.Lock()
	delete(s.presence[classID], userID)
	s.mu.Unlock()
	s.notify()
}

// RoomUsers returns the sorted presence set of a class.
func (s *Store) RoomUsers(classID string) []int64 {
	s.mu.RLock()
	users := make([]int64, 0, len(s.presence[classID]))
	for u := range s.presence[classID] {
		users = append(users, u)
	}
	s.mu.RUnlock()
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// ClearPresence discards a class's presence set (disconnect/unmount).
func (s *Store) ClearPresence(classID string) {
	s.mu.Lock()
	delete(s.presence, classID)
	s.mu.Unlock()
	s.notify()
}

// IncrementUnreadBadge bumps the layout-level unread counter.
func (s *Store) IncrementUnreadBadge() {
	s.mu.Lock()
	s.unreadBadge++
	s.mu.Unlock()
	s.notify()
}

// ResetUnreadBadge clears the layout-level unread counter.
func (s *Store) ResetUnreadBadge() {
	s.mu.Lock()
	s.unreadBadge = 0
	s.mu.Unlock()
	s.notify()
}

func (s *Store) UnreadBadge() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadBadge
}

// SetDirectFetch records the direct-message fetch lifecycle.
func (s *Store) SetDirectFetch(status FetchStatus, errMsg string) {
	s.mu.Lock()
	s.directFetch = Resource{Status: status, Error: errMsg}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) DirectFetch() Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.directFetch
}

// SetGroupFetch records a class's group-message fetch lifecycle.
func (s *Store) SetGroupFetch(classID string, status FetchStatus, errMsg string) {
	s.mu.Lock()
	s.groupFetch[classID] = Resource{Status: status, Error: errMsg}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) GroupFetch(classID string) Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.groupFetch[classID]; ok {
		return r
	}
	return Resource{Status: StatusIdle}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
