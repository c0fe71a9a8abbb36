package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage("Fix the car's brakes")
	require.NoError(t, err)

	assert.Equal(t, uint(0), msg.ID, "id is assigned by the store, not the constructor")
	assert.Equal(t, "Fix the car's brakes", msg.Body)
	assert.Equal(t, Today(), msg.AddedAt)
}

func TestNewMessage_EmptyBody(t *testing.T) {
	msg, err := NewMessage("")
	assert.Nil(t, msg)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "message", validationErr.Field)
}

func TestMessageString(t *testing.T) {
	msg := &Message{
		ID:      5,
		AddedAt: NewDate(2026, 8, 23),
		Body:    "Call the dentist tomorrow.",
	}
	assert.Equal(t, "Message 5 (2026-08-23):\nCall the dentist tomorrow.", msg.String())
}
