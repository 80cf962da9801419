package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenderValid(t *testing.T) {
	assert.True(t, GenderUnspecified.Valid())
	assert.True(t, GenderMale.Valid())
	assert.True(t, GenderFemale.Valid())
	assert.False(t, Gender(-1).Valid())
	assert.False(t, Gender(3).Valid())
}

func TestAccountClone_DoesNotShareTimes(t *testing.T) {
	birthday := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	revoked := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &Account{Login: "alice", Birthday: &birthday, RevokedAt: &revoked}

	c := a.Clone()
	require.Equal(t, a, c)
	*c.Birthday = c.Birthday.AddDate(1, 0, 0)
	c.RevokedAt = nil

	assert.Equal(t, 1990, a.Birthday.Year())
	assert.False(t, a.IsActive())
	assert.True(t, c.IsActive())
}

func TestAccountJSON_OmitsPassword(t *testing.T) {
	raw, err := json.Marshal(&Account{Login: "alice", Password: "pw1", Name: "Alice"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "pw1")
	assert.Contains(t, string(raw), `"revokedOn":null`)
}

func TestNewAccountView(t *testing.T) {
	birthday := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &Account{Name: "Alice", Gender: GenderFemale, Birthday: &birthday}

	view := NewAccountView(a)
	assert.Equal(t, &AccountView{Name: "Alice", Gender: GenderFemale, Birthday: &birthday, IsActive: true}, view)
	assert.NotSame(t, a.Birthday, view.Birthday)
}

func TestCallerAndNormalizeLogin(t *testing.T) {
	assert.False(t, Caller{}.Authenticated())
	assert.True(t, Caller{Login: "bob"}.Authenticated())
	assert.Equal(t, "alice", NormalizeLogin("  ALice\n"))
}
