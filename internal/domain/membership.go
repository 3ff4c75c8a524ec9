package domain

// Membership is the set of account ids allowed to post in a chat.
type Membership map[int64]struct{}

func NewMembership(members []Account) Membership {
	m := make(Membership, len(members))
	for _, member := range members {
		m[member.ID] = struct{}{}
	}

	return m
}

func (m Membership) Contains(accountID int64) bool {
	_, ok := m[accountID]
	return ok
}

// CanCompose reports whether account may post into a chat with the given members.
func CanCompose(account Account, members []Account) bool {
	if account.ID == 0 {
		return false
	}

	return NewMembership(members).Contains(account.ID)
}
