package models

import "time"

// AccountView is the reduced projection returned by the by-login and
// current-user queries. It never exposes credentials or audit fields.
type AccountView struct {
	Name     string     `json:"name"`
	Gender   Gender     `json:"gender"`
	Birthday *time.Time `json:"birthday"`
	IsActive bool       `json:"isActive"`
}

func NewAccountView(a *Account) *AccountView {
	view := &AccountView{
		Name:     a.Name,
		Gender:   a.Gender,
		IsActive: a.IsActive(),
	}
	if a.Birthday != nil {
		b := *a.Birthday
		view.Birthday = &b
	}
	return view
}
