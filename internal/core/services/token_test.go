package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService(t *testing.T) {
	svc := NewTokenService("test-secret", "courier-backend", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		token, err := svc.Generate("id-alice")
		require.NoError(t, err)
		id, err := svc.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "id-alice", id)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := svc.Validate("not-a-token")
		assert.Error(t, err)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		other := NewTokenService("other-secret", "courier-backend", time.Hour)
		token, err := other.Generate("id-alice")
		require.NoError(t, err)
		_, err = svc.Validate(token)
		assert.Error(t, err)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		shortLived := NewTokenService("test-secret", "courier-backend", -time.Minute)
		token, err := shortLived.Generate("id-alice")
		require.NoError(t, err)
		_, err = svc.Validate(token)
		assert.Error(t, err)
	})
}
