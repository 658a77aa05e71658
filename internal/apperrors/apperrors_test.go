package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad score"), http.StatusBadRequest},
		{Auth("token expired"), http.StatusUnauthorized},
		{Forbidden("not yours"), http.StatusForbidden},
		{NotFound("photo not found"), http.StatusNotFound},
		{Conflict("already rated"), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
		{fmt.Errorf("outer: %w", NotFound("photo not found")), http.StatusNotFound},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "err: %v", tt.err)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(cause, CodeInternal, "failed to upload image")

	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to upload image: dial tcp: refused", err.Error())
}
