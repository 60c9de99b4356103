package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("create payment: %w", Validation("bill %d already paid", 7))

	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindValidation))
	assert.False(t, Is(wrapped, KindNotFound))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found keeps message", NotFound("bill", 7), "bill 7 not found"},
		{"validation keeps message", Validation("bill already paid"), "bill already paid"},
		{"dependency hides cause", Dependency("create invoice", errors.New("xendit: 500 INTERNAL")), "upstream service unavailable, please retry"},
		{"plain error is internal", errors.New("sql: connection refused"), "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicMessage(tt.err))
		})
	}
}

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("payment", 1)))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("x")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(Unauthenticated(errors.New("expired"))))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(Dependency("get invoice", errors.New("timeout"))))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))

	connectErr := ToConnect(Dependency("get invoice", errors.New("dial tcp: refused")))
	assert.Equal(t, connect.CodeUnavailable, connectErr.Code())
	assert.NotContains(t, connectErr.Message(), "dial tcp")
}

func TestDependencyUnwraps(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := Dependency("get invoice", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "get invoice failed: deadline exceeded", err.Error())
}
