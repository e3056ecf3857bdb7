package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "socket", ErrKindSocket.String())
	assert.Equal(t, "channel", ErrKindChannel.String())
	assert.Equal(t, "parsing", ErrKindParsing.String())
	assert.Equal(t, "unknown", ErrorKind(0).String())
}

func TestNewSocketError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewSocketError(cause)

	assert.Equal(t, ErrKindSocket, err.Kind)
	assert.Equal(t, "pcp: socket: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestNewChannelError(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := NewChannelError(cause)
		assert.Equal(t, ErrKindChannel, err.Kind)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("nil cause defaults to severed", func(t *testing.T) {
		err := NewChannelError(nil)
		assert.Equal(t, ErrKindChannel, err.Kind)
		assert.ErrorIs(t, err, ErrChannelSevered)
	})
}

func TestNewParsingError(t *testing.T) {
	perr := &ParsingError{Field: "version", Detail: "unsupported version 1"}
	err := NewParsingError(perr)

	assert.Equal(t, ErrKindParsing, err.Kind)
	assert.Contains(t, err.Error(), "parse version")

	var got *ParsingError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, "version", got.Field)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrKindSocket, KindOf(NewSocketError(errors.New("x"))))
	assert.Equal(t, ErrKindChannel, KindOf(NewChannelError(nil)))
	assert.Equal(t, ErrKindParsing, KindOf(NewParsingError(&ParsingError{Field: "f", Detail: "d"})))

	// 非本层错误
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(0), KindOf(nil))

	// 包装后仍可识别
	wrapped := fmt.Errorf("request failed: %w", NewSocketError(errors.New("io")))
	assert.Equal(t, ErrKindSocket, KindOf(wrapped))
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsSocketError(NewSocketError(errors.New("x"))))
	assert.False(t, IsSocketError(NewChannelError(nil)))

	assert.True(t, IsChannelError(NewChannelError(nil)))
	assert.False(t, IsChannelError(NewSocketError(errors.New("x"))))

	assert.True(t, IsParsingError(NewParsingError(&ParsingError{Field: "f", Detail: "d"})))
	assert.False(t, IsParsingError(NewChannelError(nil)))
}
