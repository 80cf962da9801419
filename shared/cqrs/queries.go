package cqrs

import "github.com/useradmin/userapi/shared/models"

// GetAccountQuery fetches the projection of a single account by login.
type GetAccountQuery struct {
	Login  string
	Caller models.Caller
}

// GetCurrentAccountQuery fetches the projection of the caller's own account.
type GetCurrentAccountQuery struct {
	Caller models.Caller
}

// ListOlderThanQuery lists accounts whose birthday is at least Age years ago.
type ListOlderThanQuery struct {
	Age    int
	Caller models.Caller
}

// ListActiveQuery lists every account that is not revoked.
type ListActiveQuery struct {
	Caller models.Caller
}
