package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toniiplaycode/DNC-Learning-sub002/internal/domain"
)

var base = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func direct(id int64, clientID, text string, at time.Time) domain.DirectMessage {
	return domain.DirectMessage{
		ID:          id,
		ClientID:    clientID,
		MessageText: text,
		CreatedAt:   at,
		Sender:      domain.UserSummary{ID: 1, Username: "me"},
		Receiver:    domain.UserSummary{ID: 2, Username: "alice"},
	}
}

func TestUpsertReconcilesByClientID(t *testing.T) {
	s := New()
	s.UpsertDirectMessage(direct(0, "c-1", "hello", base))

	echo := direct(77, "c-1", "hello", base.Add(200*time.Millisecond))
	s.UpsertDirectMessage(echo)

	msgs := s.DirectMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(77), msgs[0].ID)
	assert.True(t, msgs[0].Confirmed())
}

func TestUpsertContentFallbackWithinWindow(t *testing.T) {
	s := New()
	s.UpsertDirectMessage(direct(0, "c-1", "hello", base))

	// Server echo without the correlation id.
	echo := direct(77, "", "hello", base.Add(2*time.Second))
	s.UpsertDirectMessage(echo)

	msgs := s.DirectMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(77), msgs[0].ID)
}

func TestUpsertContentFallbackOutsideWindowAppends(t *testing.T) {
	s := New()
	s.UpsertDirectMessage(direct(0, "c-1", "hello", base))

	echo := direct(77, "", "hello", base.Add(time.Minute))
	s.UpsertDirectMessage(echo)

	assert.Len(t, s.DirectMessages(), 2)
}

func TestUpsertDuplicateConfirmedID(t *testing.T) {
	s := New()
	s.UpsertDirectMessage(direct(77, "", "hello", base))
	s.UpsertDirectMessage(direct(77, "", "hello edited", base))

	msgs := s.DirectMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello edited", msgs[0].MessageText)
}

func TestUpsertDistinctMessagesAppend(t *testing.T) {
	s := New()
	s.UpsertDirectMessage(direct(77, "", "one", base))
	s.UpsertDirectMessage(direct(78, "", "two", base.Add(time.Second)))

	assert.Len(t, s.DirectMessages(), 2)
}

func TestMarkMessageRead(t *testing.T) {
	s := New()
	s.UpsertDirectMessage(direct(77, "", "hello", base))
	s.MarkMessageRead(77)

	msgs := s.DirectMessages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsRead)
}

func TestSnapshotRestoreRevertsOptimisticAppend(t *testing.T) {
	s := New()
	s.UpsertDirectMessage(direct(10, "", "existing", base))
	s.IncrementUnreadBadge()

	snap := s.Snapshot()

	s.UpsertDirectMessage(direct(0, "c-9", "optimistic", base.Add(time.Second)))
	s.IncrementUnreadBadge()
	require.Len(t, s.DirectMessages(), 2)

	s.Restore(snap)

	msgs := s.DirectMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(10), msgs[0].ID)
	assert.Equal(t, 1, s.UnreadBadge())
}

func TestSnapshotIsolation(t *testing.T) {
	s := New()
	s.UpsertDirectMessage(direct(10, "", "existing", base))
	snap := s.Snapshot()

	// Mutations after the snapshot must not leak into it.
	s.MarkMessageRead(10)
	s.Restore(snap)

	msgs := s.DirectMessages()
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].IsRead)
}

func TestGroupMessagesDedupeAndOrder(t *testing.T) {
	s := New()
	s.AddGroupMessage(domain.GroupMessage{ID: 2, ClassID: "c1", MessageText: "second", CreatedAt: base.Add(time.Minute)})
	s.AddGroupMessage(domain.GroupMessage{ID: 1, ClassID: "c1", MessageText: "first", CreatedAt: base})
	s.AddGroupMessage(domain.GroupMessage{ID: 2, ClassID: "c1", MessageText: "second again", CreatedAt: base.Add(time.Minute)})

	msgs := s.GroupMessages("c1")
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].MessageText)
	assert.Equal(t, "second", msgs[1].MessageText)
}

func TestGroupMessagesIsolatedPerClass(t *testing.T) {
	s := New()
	s.AddGroupMessage(domain.GroupMessage{ID: 1, ClassID: "c1", CreatedAt: base})
	s.AddGroupMessage(domain.GroupMessage{ID: 2, ClassID: "c2", CreatedAt: base})

	assert.Len(t, s.GroupMessages("c1"), 1)
	assert.Len(t, s.GroupMessages("c2"), 1)
}

func TestPresenceLifecycle(t *testing.T) {
	s := New()
	s.SetRoomUsers("c1", []int64{3, 1})
	s.AddRoomUser("c1", 2)
	s.AddRoomUser("c1", 2)
	s.RemoveRoomUser("c1", 3)

	assert.Equal(t, []int64{1, 2}, s.RoomUsers("c1"))

	s.ClearPresence("c1")
	assert.Empty(t, s.RoomUsers("c1"))
}

func TestUnreadBadge(t *testing.T) {
	s := New()
	s.IncrementUnreadBadge()
	s.IncrementUnreadBadge()
	assert.Equal(t, 2, s.UnreadBadge())

	s.ResetUnreadBadge()
	assert.Equal(t, 0, s.UnreadBadge())
}

func TestFetchStatusTracking(t *testing.T) {
	s := New()
	assert.Equal(t, StatusIdle, s.DirectFetch().Status)

	s.SetDirectFetch(StatusLoading, "")
	assert.Equal(t, StatusLoading, s.DirectFetch().Status)

	s.SetDirectFetch(StatusFailed, "connection refused")
	got := s.DirectFetch()
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "connection refused", got.Error)

	assert.Equal(t, StatusIdle, s.GroupFetch("c1").Status)
	s.SetGroupFetch("c1", StatusSucceeded, "")
	assert.Equal(t, StatusSucceeded, s.GroupFetch("c1").Status)
}

func TestChangesCoalesce(t *testing.T) {
	s := New()
	s.IncrementUnreadBadge()
	s.IncrementUnreadBadge()
	s.IncrementUnreadBadge()

	select {
	case <-s.Changes():
	default:
		t.Fatal("expected a pending change notification")
	}

	select {
	case <-s.Changes():
		t.Fatal("notifications should coalesce to one")
	default:
	}
}
