package crew

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Tool {
	return Tool{
		Name:        name,
		Description: "Echoes the input",
		Handler: func(ctx context.Context, input string) (string, error) {
			return input, nil
		},
	}
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry().
		Register(echoTool("echo")).
		Register(echoTool("echo2"))

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"echo", "echo2"}, reg.Names())

	tool, ok := reg.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", tool.Name)

	_, ok = reg.Get("Echo")
	assert.False(t, ok, "lookup is case-sensitive")
}

func TestRegistryRegisterPanics(t *testing.T) {
	t.Run("empty name", func(t *testing.T) {
		assert.Panics(t, func() {
			NewRegistry().Register(echoTool(""))
		})
	})

	t.Run("nil handler", func(t *testing.T) {
		assert.Panics(t, func() {
			NewRegistry().Register(Tool{Name: "broken"})
		})
	})

	t.Run("duplicate name", func(t *testing.T) {
		reg := NewRegistry().Register(echoTool("echo"))
		assert.Panics(t, func() {
			reg.Register(echoTool("echo"))
		})
	})
}

func TestRegistryCatalog(t *testing.T) {
	reg := NewRegistry().
		Register(Tool{Name: "read_file", Description: "Read a file", Handler: echoTool("x").Handler}).
		Register(Tool{Name: "write_file", Description: "Write a file", Handler: echoTool("x").Handler})

	assert.Equal(t, "read_file: Read a file\nwrite_file: Write a file", reg.Catalog())
	assert.Equal(t, "", NewRegistry().Catalog())
}

func TestRegistryInvoke(t *testing.T) {
	reg := NewRegistry().Register(echoTool("echo"))

	out, err := reg.Invoke(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestRegistryInvokeUnknownTool(t *testing.T) {
	reg := NewRegistry().Register(echoTool("echo"))

	_, err := reg.Invoke(context.Background(), "missing", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.Contains(t, err.Error(), "missing")
}

func TestRegistryInvokeRecoversPanic(t *testing.T) {
	reg := NewRegistry().Register(Tool{
		Name:        "explode",
		Description: "Panics",
		Handler: func(ctx context.Context, input string) (string, error) {
			panic("boom")
		},
	})

	_, err := reg.Invoke(context.Background(), "explode", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolPanicked)
	assert.Contains(t, err.Error(), "boom")
}

func TestRegistryInvokeHandlerError(t *testing.T) {
	handlerErr := errors.New("not available")
	reg := NewRegistry().Register(Tool{
		Name:        "flaky",
		Description: "Fails",
		Handler: func(ctx context.Context, input string) (string, error) {
			return "", handlerErr
		},
	})

	_, err := reg.Invoke(context.Background(), "flaky", "x")
	assert.ErrorIs(t, err, handlerErr)
}
