package passwordauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
	apperrors "github.com/hellforge/tradepost/internal/errors"
)

type stubSource struct {
	ident domainauth.Identity
	hash  string
	err   error
}

func (s *stubSource) GetCredentials(context.Context, string) (domainauth.Identity, string, error) {
	return s.ident, s.hash, s.err
}

func TestAuthenticate_Success(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)

	auth := New(&stubSource{
		ident: domainauth.Identity{UserID: "u1", Username: "sorc", Email: "sorc@example.com"},
		hash:  hash,
	}, time.Hour)

	ident, err := auth.Authenticate(context.Background(), "sorc@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), ident.ExpiresAt, time.Minute)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	hash, err := HashPassword("correct-password")
	require.NoError(t, err)

	auth := New(&stubSource{hash: hash}, time.Hour)

	_, err = auth.Authenticate(context.Background(), "sorc@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	auth := New(&stubSource{err: apperrors.NotFound("no credentials")}, time.Hour)

	_, err := auth.Authenticate(context.Background(), "nobody@example.com", "whatever1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_EmptyInputs(t *testing.T) {
	auth := New(&stubSource{}, time.Hour)

	_, err := auth.Authenticate(context.Background(), "", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Authenticate(context.Background(), "a@b.c", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestHashPassword_RejectsShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.Error(t, err)
}
