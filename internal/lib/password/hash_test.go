package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "regular password", password: "password123"},
		{name: "password with special chars", password: "p@ssw0rd!@#$%^&*()"},
		{name: "short password", password: "short"},
		{name: "too long for bcrypt", password: strings.Repeat("a", 80), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := GetHash(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)
			assert.NoError(t, CompareHash(hash, tt.password))
		})
	}
}

func TestCompareHash(t *testing.T) {
	hash, err := GetHash("password123")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		err := CompareHash(hash, "password124")
		assert.ErrorIs(t, err, ErrMismatch)
	})

	t.Run("broken hash", func(t *testing.T) {
		err := CompareHash("not-a-hash", "password123")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMismatch)
	})
}
