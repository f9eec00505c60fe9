package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name       string
		err        error
		wantKind   Kind
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        Validation("missing required field(s): %s", "title"),
			wantKind:   KindValidation,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "missing required field(s): title",
		},
		{
			name:       "not found wrapped",
			err:        fmt.Errorf("update: %w", NotFound("post %s not found", "p1")),
			wantKind:   KindNotFound,
			wantStatus: http.StatusNotFound,
			wantMsg:    "post p1 not found",
		},
		{
			name:       "persistence hides cause",
			err:        Persistence(cause, "list posts"),
			wantKind:   KindPersistence,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "internal server error",
		},
		{
			name:       "rate limited",
			err:        RateLimited("slow down"),
			wantKind:   KindRateLimited,
			wantStatus: http.StatusTooManyRequests,
			wantMsg:    "slow down",
		},
		{
			name:       "plain error",
			err:        cause,
			wantKind:   KindUnknown,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind := KindOf(tt.err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantStatus, kind.HTTPStatus())
			assert.Equal(t, tt.wantMsg, ClientMessage(tt.err))
		})
	}
}

func TestPersistenceUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Persistence(cause, "insert post")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert post: disk full", err.Error())
	assert.True(t, IsNotFound(NotFound("x")))
	assert.True(t, IsValidation(Validation("x")))
	assert.False(t, IsNotFound(err))
}
