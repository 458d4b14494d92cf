package domain

import (
	"strings"
	"time"
)

// UserSummary is the user shape embedded in messages. Role-specific
// profile objects are present only for the matching role.
type UserSummary struct {
	ID         int64                   `json:"id"`
	Username   string                  `json:"username"`
	Email      string                  `json:"email,omitempty"`
	AvatarURL  string                  `json:"avatarUrl,omitempty"`
	Role       string                  `json:"role,omitempty"`
	Instructor *InstructorProfile      `json:"userInstructor,omitempty"`
	Student    *StudentProfile         `json:"userStudent,omitempty"`
	Academic   *AcademicStudentProfile `json:"userStudentAcademic,omitempty"`
}

type InstructorProfile struct {
	FullName          string `json:"fullName"`
	ProfessionalTitle string `json:"professionalTitle,omitempty"`
}

type StudentProfile struct {
	FullName string `json:"fullName"`
}

type AcademicStudentProfile struct {
	FullName        string `json:"fullName"`
	AcademicClassID string `json:"academicClassId,omitempty"`
}

// DisplayName prefers the role-specific profile name and falls back to
// the username.
func (u UserSummary) DisplayName() string {
	switch {
	case u.Instructor != nil && u.Instructor.FullName != "":
		return u.Instructor.FullName
	case u.Student != nil && u.Student.FullName != "":
		return u.Student.FullName
	case u.Academic != nil && u.Academic.FullName != "":
		return u.Academic.FullName
	default:
		return u.Username
	}
}

// RoleLabel prefers an instructor's professional title, otherwise the
// capitalized role name.
func (u UserSummary) RoleLabel() string {
	if u.Instructor != nil && u.Instructor.ProfessionalTitle != "" {
		return u.Instructor.ProfessionalTitle
	}
	if u.Role == "" {
		return ""
	}
	return strings.ToUpper(u.Role[:1]) + u.Role[1:]
}

// DirectMessage is a one-to-one message. ID is zero until the server
// has confirmed the message; ClientID is the locally minted correlation
// id carried through send and echoed back on messageSent.
type DirectMessage struct {
	ID            int64       `json:"id,omitempty"`
	ClientID      string      `json:"clientId,omitempty"`
	MessageText   string      `json:"messageText"`
	ReferenceLink string      `json:"referenceLink,omitempty"`
	IsRead        bool        `json:"isRead"`
	CreatedAt     time.Time   `json:"createdAt"`
	Sender        UserSummary `json:"sender"`
	Receiver      UserSummary `json:"receiver"`
}

// Confirmed reports whether the server has assigned the message an id.
func (m DirectMessage) Confirmed() bool { return m.ID != 0 }

// Valid reports whether both participants are identified. Malformed
// records are skipped, never rendered or grouped.
func (m DirectMessage) Valid() bool {
	return m.Sender.ID != 0 && m.Receiver.ID != 0
}

// GroupMessage is a message in an academic class room.
type GroupMessage struct {
	ID            int64       `json:"id"`
	ClassID       string      `json:"classId"`
	SenderID      int64       `json:"senderId"`
	MessageText   string      `json:"messageText"`
	ReferenceLink string      `json:"referenceLink,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	Sender        UserSummary `json:"sender"`
}

// SenderRole marks a display record as written by the current user or
// by the counterpart.
type SenderRole string

const (
	RoleSelf  SenderRole = "self"
	RoleOther SenderRole = "other"
)

// RoomMessage is the display projection of a DirectMessage inside a
// conversation room.
type RoomMessage struct {
	ID            int64
	ClientID      string
	Content       string
	Role          SenderRole
	Timestamp     time.Time
	Avatar        string
	Name          string
	IsRead        bool
	SenderID      int64
	ReceiverID    int64
	ReferenceLink string
}

// Counterpart describes the other participant of a direct conversation.
type Counterpart struct {
	ID        int64
	Name      string
	AvatarURL string
	Role      string
}

// ConversationRoom is a derived, client-side-only thread between the
// current user and one counterpart. Never persisted.
type ConversationRoom struct {
	ID          int64
	Counterpart Counterpart
	Messages    []RoomMessage
	UnreadCount int
}

// AcademicClass is the class header shown on a group chat room.
type AcademicClass struct {
	ID        string `json:"id"`
	ClassCode string `json:"classCode"`
	ClassName string `json:"className"`
	Semester  string `json:"semester"`
	Status    string `json:"status,omitempty"`
}
