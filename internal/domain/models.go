package domain

import "time"

// RemovedUsername is displayed for authors whose account no longer exists.
const RemovedUsername = "[removed]"

type Chat struct {
	ID      int64
	Name    string
	OwnerID int64
}

type Message struct {
	ID     int64
	ChatID int64
	// AccountID is nil when the author account was removed.
	AccountID *int64
	Text      string
	CreatedAt time.Time
}

type Account struct {
	ID       int64
	Username string
	Email    string
}

// DisplayName returns the username or RemovedUsername for deleted accounts.
func (a Account) DisplayName() string {
	if a.Username == "" {
		return RemovedUsername
	}

	return a.Username
}
