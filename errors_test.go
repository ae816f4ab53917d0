package crew

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFatalError(t *testing.T) {
	cause := errors.New("permission denied")

	plain := Fatal("prompt", "template failed to parse")
	assert.Equal(t, "prompt: template failed to parse", plain.Error())
	assert.Nil(t, plain.Unwrap())

	wrapped := Fatalw("vertex init", "client construction failed", cause)
	assert.Equal(t, "vertex init: client construction failed: permission denied", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(Fatal("op", "msg")))
	assert.True(t, IsFatal(fmt.Errorf("outer: %w", Fatal("op", "msg"))))
	assert.False(t, IsFatal(errors.New("just an error")))
	assert.False(t, IsFatal(ErrUnknownTool))
	assert.False(t, IsFatal(nil))
}
