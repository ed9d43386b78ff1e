package common

import (
	"fmt"
)

const JSONRPC_VERSION = "2.0"

// SUCCESS is the literal value of the "result" field on a successful reply.
const SUCCESS = "success"

type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

// Response is a decoded reply from the nspv node. The node doesn't nest its
// payload under "result", it puts every field at the top level and uses
// "result" only as the success marker, so we keep the raw fields around and
// translate the "error" field into an ErrorKind as soon as it arrives.
type Response struct {
	Fields map[string]interface{}
	Err    *ProtocolError
}

func NewResponse(fields map[string]interface{}) *Response {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	resp := &Response{Fields: fields}

	if raw, ok := fields["error"]; ok && raw != nil {
		msg, isString := raw.(string)
		if !isString {
			msg = fmt.Sprint(raw)
		}
		if msg != "" {
			resp.Err = &ProtocolError{Kind: ParseErrorKind(msg), Message: msg}
		}
	}

	return resp
}

func (r *Response) Get(key string) interface{} {
	if r == nil {
		return nil
	}
	return r.Fields[key]
}

// Has tells if the field is present at all, regardless of its value.
func (r *Response) Has(key string) bool {
	if r == nil {
		return false
	}
	_, ok := r.Fields[key]
	return ok
}

func (r *Response) String(key string) string {
	s, _ := r.Get(key).(string)
	return s
}

func (r *Response) Float(key string) (float64, bool) {
	f, ok := r.Get(key).(float64)
	return f, ok
}

func (r *Response) Succeeded() bool {
	return r.String("result") == SUCCESS
}

// WellFormed checks the envelope carries exactly one of the success marker or
// an error. Error replies may still carry a non-success "result".
func (r *Response) WellFormed() error {
	hasResult := r.Succeeded()
	hasError := r.Err != nil
	switch {
	case hasResult && hasError:
		return fmt.Errorf("reply claims success but carries error %q", r.Err.Message)
	case !hasResult && !hasError:
		return fmt.Errorf("reply carries neither result nor error")
	}
	return nil
}
