package domain

// Member is a whiteboard room member's payload.
// No transport or lifecycle logic here.
type Member struct {
	UserID   StreamID `json:"userId"`
	Identity Role     `json:"identity"`
	Username string   `json:"username,omitempty"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(userID StreamID, identity Role, username string) Member {
	return Member{UserID: userID, Identity: identity, Username: username}
}
