package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, body string) *Response {
	t.Helper()
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &fields))
	return NewResponse(fields)
}

func TestRPCRequestEncoding(t *testing.T) {
	b, err := json.Marshal(RPCRequest{
		JSONRPC: JSONRPC_VERSION,
		Method:  "spend",
		Params:  []interface{}{"RUp3xudmdTtxvaRnt3oq78FJBjotXy55uu", 0.1},
		ID:      7,
	})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"jsonrpc":"2.0","method":"spend","params":["RUp3xudmdTtxvaRnt3oq78FJBjotXy55uu",0.1],"id":7}`,
		string(b))
}

func TestNewResponse(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		resp := decodeResponse(t, `{"result":"success","numhdrs":113,"address":"R1"}`)
		assert.Nil(t, resp.Err)
		assert.True(t, resp.Succeeded())
		assert.Equal(t, "R1", resp.String("address"))
		n, ok := resp.Float("numhdrs")
		assert.True(t, ok)
		assert.Equal(t, 113.0, n)
		assert.NoError(t, resp.WellFormed())
	})

	t.Run("KnownError", func(t *testing.T) {
		resp := decodeResponse(t, `{"error":"no height"}`)
		require.NotNil(t, resp.Err)
		assert.Equal(t, ERROR_NO_HEIGHT, resp.Err.Kind)
		assert.False(t, resp.Succeeded())
		assert.NoError(t, resp.WellFormed())
	})

	t.Run("UnknownError", func(t *testing.T) {
		resp := decodeResponse(t, `{"error":{"code":-32601,"message":"nope"}}`)
		require.NotNil(t, resp.Err)
		assert.Equal(t, ERROR_UNKNOWN, resp.Err.Kind)
	})

	t.Run("EmptyErrorIsNoError", func(t *testing.T) {
		resp := decodeResponse(t, `{"result":"success","error":""}`)
		assert.Nil(t, resp.Err)
	})

	t.Run("Neither", func(t *testing.T) {
		resp := decodeResponse(t, `{"address":"R1"}`)
		assert.Error(t, resp.WellFormed())
	})

	t.Run("Both", func(t *testing.T) {
		resp := decodeResponse(t, `{"result":"success","error":"timeout"}`)
		assert.Error(t, resp.WellFormed())
	})

	t.Run("ErrorWithResultField", func(t *testing.T) {
		resp := decodeResponse(t, `{"result":"error","error":"no height"}`)
		assert.False(t, resp.Succeeded())
		assert.NoError(t, resp.WellFormed())
	})

	t.Run("Nil", func(t *testing.T) {
		var resp *Response
		assert.Nil(t, resp.Get("result"))
		assert.False(t, resp.Has("result"))
		assert.False(t, resp.Succeeded())
	})
}
