package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMood_Valid(t *testing.T) {
	for _, m := range Moods {
		assert.True(t, m.Valid(), "%q should be valid", m)
	}

	for _, m := range []Mood{"", "Happy", "angry", "neutral "} {
		assert.False(t, m.Valid(), "%q should be invalid", m)
	}
}

func TestUser_PasswordHashNeverSerialised(t *testing.T) {
	u := User{ID: "u1", Email: "a@b.c", PasswordHash: "$2a$04$secret"}

	b, err := json.Marshal(u)
	require.NoError(t, err)

	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "passwordHash")
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "maya", (&User{Username: "maya", Login: "maya-gh"}).DisplayName())
	assert.Equal(t, "maya-gh", (&User{Login: "maya-gh"}).DisplayName())
}

func TestDailySentiment_Total(t *testing.T) {
	d := DailySentiment{Date: "2024-01-01", Positive: 2, Negative: 1, Neutral: 3}
	assert.Equal(t, 6, d.Total())
}
