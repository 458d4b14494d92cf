package conversation

import (
	"sort"

	"github.com/toniiplaycode/DNC-Learning-sub002/internal/domain"
)

// Reconstruct folds a flat direct-message list into one conversation
// room per distinct counterpart of the current user.
//
// It is a pure function: repeated calls over the same input yield the
// same output, and it never mutates its arguments. Messages missing a
// sender or receiver id are skipped rather than failing the whole
// reconstruction.
//
// Rooms come out in the order their counterpart first appears in the
// input. Within a room, messages are sorted ascending by timestamp
// with a stable sort, so records with equal timestamps keep their
// original relative order.
func Reconstruct(currentUserID int64, msgs []domain.DirectMessage) []domain.ConversationRoom {
	byCounterpart := make(map[int64]*domain.ConversationRoom)
	var order []int64

	for _, msg := range msgs {
		if !msg.Valid() {
			continue
		}

		counterpart := msg.Receiver
		if msg.Sender.ID != currentUserID {
			counterpart = msg.Sender
		}

		room, ok := byCounterpart[counterpart.ID]
		if !ok {
			room = &domain.ConversationRoom{
				ID: counterpart.ID,
				Counterpart: domain.Counterpart{
					ID:        counterpart.ID,
					Name:      counterpart.DisplayName(),
					AvatarURL: counterpart.AvatarURL,
					Role:      counterpart.RoleLabel(),
				},
			}
			byCounterpart[counterpart.ID] = room
			order = append(order, counterpart.ID)
		}

		room.Messages = append(room.Messages, project(currentUserID, msg))

		if !msg.IsRead && msg.Sender.ID != currentUserID {
			room.UnreadCount++
		}
	}

	rooms := make([]domain.ConversationRoom, 0, len(order))
	for _, id := range order {
		room := byCounterpart[id]
		sort.SliceStable(room.Messages, func(i, j int) bool {
			return room.Messages[i].Timestamp.Before(room.Messages[j].Timestamp)
		})
		rooms = append(rooms, *room)
	}

	return rooms
}

func project(currentUserID int64, msg domain.DirectMessage) domain.RoomMessage {
	role := domain.RoleOther
	if msg.Sender.ID == currentUserID {
		role = domain.RoleSelf
	}

	return domain.RoomMessage{
		ID:            msg.ID,
		ClientID:      msg.ClientID,
		Content:       msg.MessageText,
		Role:          role,
		Timestamp:     msg.CreatedAt,
		Avatar:        msg.Sender.AvatarURL,
		Name:          msg.Sender.DisplayName(),
		IsRead:        msg.IsRead,
		SenderID:      msg.Sender.ID,
		ReceiverID:    msg.Receiver.ID,
		ReferenceLink: msg.ReferenceLink,
	}
}
