package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"network", NewNetworkError("list", errors.New("reset")), CodeNetwork},
		{"http", NewHTTPError("list", http.StatusUnauthorized, ""), CodeHTTP},
		{"validation", NewValidationError("name", "empty"), CodeValidation},
		{"database", NewDatabaseError("query", errors.New("locked")), CodeDatabase},
		{"config", NewConfigError("bad", nil), CodeConfig},
		{"wrapped", fmt.Errorf("outer: %w", NewHTTPError("x", 500, "")), CodeHTTP},
		{"plain", errors.New("plain"), CodeUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestNetworkErrorUnwraps(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewNetworkError("create", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "create")

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "create", netErr.Op)
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrap: %w", NewHTTPError("destroy", http.StatusNotFound, "missing"))
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.False(t, IsStatus(err, http.StatusInternalServerError))
	assert.False(t, IsStatus(errors.New("x"), http.StatusNotFound))
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "missing")
}
