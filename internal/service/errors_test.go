package service

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", NewValidationError(MsgEmptyCity), KindValidation},
		{"not found", newNotFoundError(StageResolve, MsgPlaceNotFound), KindNotFound},
		{"wrapped request failed", fmt.Errorf("outer: %w", newRequestFailedError(StageFetch, "x", 500)), KindRequestFailed},
		{"plain error", errors.New("boom"), KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestUserMessage_StripsRequestURL(t *testing.T) {
	cause := &url.Error{Op: "Get", URL: "https://example.test/point?key=hunter2", Err: errors.New("connection refused")}

	err := newUnexpectedError(StageFetch, cause)

	assert.Equal(t, "connection refused", UserMessage(err))
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Error(), "hunter2")
}

func TestUserMessage_Nil(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
}

func TestError_String(t *testing.T) {
	err := newRequestFailedError(StageResolve, MsgFindFailed, 503)
	assert.Equal(t, "resolve request_failed: Failed to find place (status 503)", err.Error())
}
