package model

type User struct {
	ID           string
	DisplayName  string
	Email        string
	PhoneNumber  string
	PasswordHash string
	Verified     bool
	CreatedAt    int64
}

type EdgeStatus string

const (
	EdgePending  EdgeStatus = "pending"
	EdgeAccepted EdgeStatus = "accepted"
	EdgeDeclined EdgeStatus = "declined"
)

type FriendEdge struct {
	ID          string
	SenderID    string
	RecipientID string
	Status      EdgeStatus
	SentAt      int64
	ResolvedAt  int64
}

// Resolved reports whether the edge has left the pending state.
// Resolved edges are kept for history and never transition again.
func (e FriendEdge) Resolved() bool {
	return e.Status != EdgePending
}

type PresenceRecord struct {
	UserID      string
	ActiveCount int
	LastSeen    int64
	Online      bool
}

type PresenceEvent struct {
	UserID   string
	Online   bool
	LastSeen int64
}
