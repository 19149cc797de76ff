package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeDependencyConflict: http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeStoreConflict:      http.StatusInternalServerError,
		CodeUnavailable:        http.StatusInternalServerError,
		CodeRateLimited:        http.StatusTooManyRequests,
		CodeMethodNotAllowed:   http.StatusMethodNotAllowed,
		CodeInternal:           http.StatusInternalServerError,
		Code("unknown"):        http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}

func TestHasCodeThroughWrapping(t *testing.T) {
	base := New(CodeNotFound, "Camp not found")
	wrapped := fmt.Errorf("get camp: %w", base)

	assert.True(t, HasCode(wrapped, CodeNotFound))
	assert.False(t, HasCode(wrapped, CodeValidation))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
}

func TestPublicMessage(t *testing.T) {
	t.Run("coded errors expose their message", func(t *testing.T) {
		assert.Equal(t, "No fields to update", PublicMessage(New(CodeValidation, "No fields to update")))
	})

	t.Run("internal errors hide the cause", func(t *testing.T) {
		err := Wrap(errors.New(`pq: relation "relief_camp" does not exist`), CodeInternal, "list camps")
		assert.Equal(t, "Internal server error", PublicMessage(err))
	})

	t.Run("uncoded errors are internal", func(t *testing.T) {
		assert.Equal(t, "Internal server error", PublicMessage(errors.New("driver: bad connection")))
		assert.Equal(t, http.StatusInternalServerError, Status(errors.New("boom")))
	})
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := Wrap(cause, CodeStoreConflict, "Request conflicts with existing data")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "deadlock detected")
}
