package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"sentinel", ErrTaskNotFound, ErrNotFound, "task not found"},
		{"wrapped sentinel", fmt.Errorf("%w: limit is 2", ErrSubmissionLimitReached), ErrBadRequest, "maximum number of submissions reached: limit is 2"},
		{"forbidden", ErrTaskAccessDenied, ErrForbidden, "access denied to this task"},
		{"invalid", invalid(errors.New("bad config")), ErrBadRequest, "bad config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.Equal(t, tt.msg, tt.err.Error())
		})
	}

	assert.NoError(t, invalid(nil))
	assert.False(t, errors.Is(ErrTaskNotFound, ErrBadRequest))
}
