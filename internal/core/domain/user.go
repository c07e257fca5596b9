package domain

import "time"

// Phone is a single contact number attached to a user.
type Phone struct {
	Number   string
	AreaCode string
}

// User models a registered account together with its latest session token.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phones       []Phone
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  time.Time
	SessionToken string
}

// Clone returns a deep copy so stores never share phone slices with callers.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Phones != nil {
		c.Phones = make([]Phone, len(u.Phones))
		copy(c.Phones, u.Phones)
	}
	return &c
}

// Identity is the set of claims carried by a verified session token.
type Identity struct {
	ID        string
	Email     string
	IssuedAt  int64
	ExpiresAt int64
}
