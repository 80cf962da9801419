package models

import (
	"strings"
	"time"
)

// Gender is the closed enumeration stored on an account profile.
type Gender int

const (
	GenderUnspecified Gender = 0
	GenderMale        Gender = 1
	GenderFemale      Gender = 2
)

func (g Gender) Valid() bool {
	return g >= GenderUnspecified && g <= GenderFemale
}

// SystemActor is recorded as created-by/modified-by for writes that no
// authenticated caller initiated, such as the bootstrap administrator.
const SystemActor = "System"

// Account is the write model. Password holds whatever the configured
// credential hasher produced and is never serialised.
type Account struct {
	ID         string     `json:"id"`
	Login      string     `json:"login"`
	Password   string     `json:"-"`
	Name       string     `json:"name"`
	Gender     Gender     `json:"gender"`
	Birthday   *time.Time `json:"birthday"`
	Admin      bool       `json:"admin"`
	CreatedAt  time.Time  `json:"createdOn"`
	CreatedBy  string     `json:"createdBy"`
	ModifiedAt time.Time  `json:"modifiedOn"`
	ModifiedBy string     `json:"modifiedBy"`
	RevokedAt  *time.Time `json:"revokedOn"`
	RevokedBy  string     `json:"revokedBy,omitempty"`
}

func (a *Account) IsActive() bool {
	return a.RevokedAt == nil
}

// Clone returns a deep copy so that callers never share time pointers with
// the store.
func (a *Account) Clone() *Account {
	c := *a
	if a.Birthday != nil {
		b := *a.Birthday
		c.Birthday = &b
	}
	if a.RevokedAt != nil {
		r := *a.RevokedAt
		c.RevokedAt = &r
	}
	return &c
}

// Caller is the identity asserted by the authentication boundary for the
// current request. An empty Login means the request is unauthenticated.
type Caller struct {
	Login string
	Admin bool
}

func (c Caller) Authenticated() bool {
	return c.Login != ""
}

// NormalizeLogin is the form logins are compared and cached under.
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}
