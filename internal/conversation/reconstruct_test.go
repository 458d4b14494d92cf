package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toniiplaycode/DNC-Learning-sub002/internal/domain"
)

var base = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func user(id int64, username string) domain.UserSummary {
	return domain.UserSummary{ID: id, Username: username}
}

func msg(id int64, sender, receiver domain.UserSummary, text string, at time.Time, read bool) domain.DirectMessage {
	return domain.DirectMessage{
		ID:          id,
		MessageText: text,
		IsRead:      read,
		CreatedAt:   at,
		Sender:      sender,
		Receiver:    receiver,
	}
}

func TestReconstructGroupsByCounterpart(t *testing.T) {
	me := user(1, "me")
	alice := user(2, "alice")
	bob := user(3, "bob")

	rooms := Reconstruct(1, []domain.DirectMessage{
		msg(10, alice, me, "hi", base, true),
		msg(11, me, bob, "yo", base.Add(time.Minute), true),
		msg(12, me, alice, "hello", base.Add(2*time.Minute), true),
		msg(13, bob, me, "sup", base.Add(3*time.Minute), true),
	})

	require.Len(t, rooms, 2)
	assert.Equal(t, int64(2), rooms[0].ID)
	assert.Equal(t, int64(3), rooms[1].ID)
	assert.Len(t, rooms[0].Messages, 2)
	assert.Len(t, rooms[1].Messages, 2)
}

func TestReconstructCounterpartNeverSelf(t *testing.T) {
	me := user(1, "me")
	alice := user(2, "alice")

	rooms := Reconstruct(1, []domain.DirectMessage{
		msg(10, me, alice, "sent", base, true),
		msg(11, alice, me, "received", base.Add(time.Second), true),
	})

	require.Len(t, rooms, 1)
	assert.Equal(t, int64(2), rooms[0].Counterpart.ID)
	for _, m := range rooms[0].Messages {
		assert.NotEqual(t, domain.SenderRole(""), m.Role)
	}
	assert.Equal(t, domain.RoleSelf, rooms[0].Messages[0].Role)
	assert.Equal(t, domain.RoleOther, rooms[0].Messages[1].Role)
}

func TestReconstructSortsAscendingWithin(t *testing.T) {
	me := user(1, "me")
	alice := user(2, "alice")

	rooms := Reconstruct(1, []domain.DirectMessage{
		msg(12, alice, me, "third", base.Add(2*time.Hour), true),
		msg(10, alice, me, "first", base, true),
		msg(11, me, alice, "second", base.Add(time.Hour), true),
	})

	require.Len(t, rooms, 1)
	got := rooms[0].Messages
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "second", got[1].Content)
	assert.Equal(t, "third", got[2].Content)
}

func TestReconstructStableOnEqualTimestamps(t *testing.T) {
	me := user(1, "me")
	alice := user(2, "alice")

	rooms := Reconstruct(1, []domain.DirectMessage{
		msg(10, alice, me, "a", base, true),
		msg(11, alice, me, "b", base, true),
		msg(12, alice, me, "c", base, true),
	})

	require.Len(t, rooms, 1)
	got := rooms[0].Messages
	assert.Equal(t, "a", got[0].Content)
	assert.Equal(t, "b", got[1].Content)
	assert.Equal(t, "c", got[2].Content)
}

func TestReconstructUnreadCountsInboundOnly(t *testing.T) {
	me := user(1, "me")
	alice := user(2, "alice")

	rooms := Reconstruct(1, []domain.DirectMessage{
		msg(10, alice, me, "unread in", base, false),
		msg(11, alice, me, "read in", base.Add(time.Second), true),
		msg(12, me, alice, "unread out", base.Add(2*time.Second), false),
	})

	require.Len(t, rooms, 1)
	assert.Equal(t, 1, rooms[0].UnreadCount)
}

func TestReconstructSkipsMalformed(t *testing.T) {
	me := user(1, "me")
	alice := user(2, "alice")

	rooms := Reconstruct(1, []domain.DirectMessage{
		msg(10, alice, me, "good", base, true),
		{ID: 11, MessageText: "no participants", CreatedAt: base},
		msg(12, domain.UserSummary{}, me, "no sender", base, true),
	})

	require.Len(t, rooms, 1)
	assert.Len(t, rooms[0].Messages, 1)
}

func TestReconstructPureAndDeterministic(t *testing.T) {
	me := user(1, "me")
	alice := user(2, "alice")
	input := []domain.DirectMessage{
		msg(11, alice, me, "b", base.Add(time.Minute), false),
		msg(10, me, alice, "a", base, true),
	}
	snapshot := append([]domain.DirectMessage(nil), input...)

	first := Reconstruct(1, input)
	second := Reconstruct(1, input)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, input)
}

func TestReconstructDisplayNamePreference(t *testing.T) {
	me := user(1, "me")
	instructor := domain.UserSummary{
		ID:       5,
		Username: "jsmith",
		Role:     "instructor",
		Instructor: &domain.InstructorProfile{
			FullName:          "Dr. Jane Smith",
			ProfessionalTitle: "Senior Lecturer",
		},
	}

	rooms := Reconstruct(1, []domain.DirectMessage{
		msg(10, instructor, me, "office hours moved", base, true),
	})

	require.Len(t, rooms, 1)
	assert.Equal(t, "Dr. Jane Smith", rooms[0].Counterpart.Name)
	assert.Equal(t, "Senior Lecturer", rooms[0].Counterpart.Role)
	assert.Equal(t, "Dr. Jane Smith", rooms[0].Messages[0].Name)
}

func TestReconstructRoleLabelFallsBackToCapitalizedRole(t *testing.T) {
	me := user(1, "me")
	student := domain.UserSummary{
		ID:       6,
		Username: "bob",
		Role:     "student",
		Student:  &domain.StudentProfile{FullName: "Bob Lee"},
	}

	rooms := Reconstruct(1, []domain.DirectMessage{
		msg(10, student, me, "question about lab 3", base, false),
	})

	require.Len(t, rooms, 1)
	assert.Equal(t, "Bob Lee", rooms[0].Counterpart.Name)
	assert.Equal(t, "Student", rooms[0].Counterpart.Role)
}

func TestReconstructInterleavedHistory(t *testing.T) {
	me := user(1, "me")
	alice := user(2, "alice")
	bob := user(3, "bob")
	carol := user(4, "carol")

	rooms := Reconstruct(1, []domain.DirectMessage{
		msg(20, alice, me, "a1", base.Add(5*time.Minute), false),
		msg(21, me, bob, "b1", base, true),
		msg(22, carol, me, "c1", base.Add(time.Minute), false),
		msg(23, me, alice, "a2", base.Add(2*time.Minute), true),
		msg(24, bob, me, "b2", base.Add(3*time.Minute), false),
		msg(25, carol, me, "c2", base.Add(4*time.Minute), true),
	})

	require.Len(t, rooms, 3)

	byID := map[int64]domain.ConversationRoom{}
	for _, r := range rooms {
		byID[r.ID] = r
	}

	assert.Equal(t, []string{"a2", "a1"}, contents(byID[2].Messages))
	assert.Equal(t, []string{"b1", "b2"}, contents(byID[3].Messages))
	assert.Equal(t, []string{"c1", "c2"}, contents(byID[4].Messages))
	assert.Equal(t, 1, byID[2].UnreadCount)
	assert.Equal(t, 1, byID[3].UnreadCount)
	assert.Equal(t, 1, byID[4].UnreadCount)
}

func contents(msgs []domain.RoomMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}
