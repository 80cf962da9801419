package cqrs

import (
	"time"

	"github.com/useradmin/userapi/shared/models"
)

type CreateAccountCommand struct {
	Login    string        `validate:"required,login"`
	Password string        `validate:"required"`
	Name     string        `validate:"notblank"`
	Gender   models.Gender `validate:"gender"`
	Birthday *time.Time
	Admin    bool
	Caller   models.Caller `validate:"-"`
}

type UpdateDetailsCommand struct {
	Login    string
	Name     string        `validate:"notblank"`
	Gender   models.Gender `validate:"gender"`
	Birthday *time.Time
	Caller   models.Caller `validate:"-"`
}

// ChangePasswordCommand carries an optional OldPassword; it is only
// consulted for non-admin callers.
type ChangePasswordCommand struct {
	Login       string
	OldPassword string
	NewPassword string        `validate:"required,login"`
	Caller      models.Caller `validate:"-"`
}

type UpdateLoginCommand struct {
	Login    string
	NewLogin string        `validate:"required,login"`
	Caller   models.Caller `validate:"-"`
}

// RevokeAccountCommand soft-deletes the account, or removes it permanently
// when Hard is set.
type RevokeAccountCommand struct {
	Login  string
	Hard   bool
	Caller models.Caller
}

type RestoreAccountCommand struct {
	Login  string
	Caller models.Caller
}

type LoginCommand struct {
	Login    string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}
