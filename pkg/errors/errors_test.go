package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	appErr := FromError(ErrInvalidCredentials)
	require.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
	require.Equal(t, http.StatusUnauthorized, appErr.StatusCode)

	wrapped := FromError(stderrors.New("boom"))
	require.Equal(t, ErrInternalServer.Code, wrapped.Code)
	require.Equal(t, http.StatusInternalServerError, wrapped.StatusCode)
}

func TestWithInternalPreservesChain(t *testing.T) {
	cause := stderrors.New("db unreachable")
	err := ErrInternalServer.WithInternal(cause)

	require.ErrorIs(t, err, cause)
	// The shared sentinel is untouched.
	require.Nil(t, ErrInternalServer.Internal)
	require.Contains(t, err.Error(), "db unreachable")
}

func TestNewBadRequestAndConflict(t *testing.T) {
	bad := NewBadRequest("title is required")
	require.Equal(t, http.StatusBadRequest, bad.StatusCode)
	require.Equal(t, "title is required", bad.Message)

	conflict := NewConflict("Email already registered")
	require.Equal(t, http.StatusConflict, conflict.StatusCode)
	require.Equal(t, "Email already registered", conflict.Message)
}
