package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorKind(t *testing.T) {
	msgs := KnownErrorMessages()
	require.Len(t, msgs, 12)

	for _, msg := range msgs {
		kind := ParseErrorKind(msg)
		assert.NotEqual(t, ERROR_UNKNOWN, kind, msg)
		assert.Equal(t, msg, kind.Message())
	}

	assert.Equal(t, ERROR_WIF_EXPIRED, ParseErrorKind("wif expired"))
	assert.Equal(t, ERROR_GENERIC, ParseErrorKind("error"))
	assert.Equal(t, ERROR_UNKNOWN, ParseErrorKind("Wif Expired"))
	assert.Equal(t, ERROR_UNKNOWN, ParseErrorKind(""))
	assert.Equal(t, "unknown", ERROR_UNKNOWN.String())
}

func TestProtocolError(t *testing.T) {
	known := &ProtocolError{Kind: ERROR_NO_HEX, Message: "no hex"}
	assert.True(t, known.Known())
	assert.Equal(t, "node error: no hex", known.Error())

	unknown := &ProtocolError{Message: "segfault"}
	assert.False(t, unknown.Known())
	assert.Contains(t, unknown.Error(), "outside known vocabulary")
}
