package store

import (
	"github.com/toniiplaycode/DNC-Learning-sub002/internal/domain"
)

// Snapshot is a verbatim copy of the message state taken before an
// optimistic action. Restoring it puts back the exact pre-action
// state; applying a recomputed inverse instead would drift whenever
// other mutations interleave with the in-flight action.
type Snapshot struct {
	direct      []domain.DirectMessage
	group       map[string][]domain.GroupMessage
	unreadBadge int
}

// Snapshot captures current message state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group := make(map[string][]domain.GroupMessage, len(s.group))
	for classID, msgs := range s.group {
		group[classID] = append([]domain.GroupMessage(nil), msgs...)
	}

	return Snapshot{
		direct:      append([]domain.DirectMessage(nil), s.direct...),
		group:       group,
		unreadBadge: s.unreadBadge,
	}
}

// Restore reverts message state to a previously taken snapshot.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	s.direct = append([]domain.DirectMessage(nil), snap.direct...)
	s.group = make(map[string][]domain.GroupMessage, len(snap.group))
	for classID, msgs := range snap.group {
		s.group[classID] = append([]domain.GroupMessage(nil), msgs...)
	}
	s.unreadBadge = snap.unreadBadge
	s.mu.Unlock()
	s.notify()
}
