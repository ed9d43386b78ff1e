// Package expect holds the checks every nspv reply is held to. Each check
// returns a *Failure describing what was wrong, or nil.
package expect

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/fiatjaf/nspvtest/common"
	"github.com/kr/pretty"
)

type Failure struct {
	Msg    string
	Values []interface{}
}

func (f *Failure) Error() string {
	if len(f.Values) == 0 {
		return f.Msg
	}
	parts := make([]string, len(f.Values))
	for i, v := range f.Values {
		parts[i] = pretty.Sprint(v)
	}
	return f.Msg + ": " + strings.Join(parts, ", ")
}

func fail(msg string, values ...interface{}) error {
	return &Failure{Msg: msg, Values: values}
}

// Success wants "result" to be literally "success".
func Success(resp *common.Response) error {
	if resp == nil {
		return fail("Unexpected response, got nothing")
	}
	if err := Equal(resp.Get("result"), common.SUCCESS); err != nil {
		if resp.Err != nil {
			return fail("Expected success", resp.Err.Message)
		}
		return err
	}
	if err := resp.WellFormed(); err != nil {
		return fail("Success reply also carries an error", resp.Err.Message)
	}
	return nil
}

// Error wants an error envelope from the known vocabulary.
func Error(resp *common.Response) error {
	if resp == nil || resp.Err == nil {
		var fields interface{}
		if resp != nil {
			fields = resp.Fields
		}
		return fail("Unexpected response", fields)
	}
	if err := resp.WellFormed(); err != nil {
		return fail("Unexpected response", err.Error())
	}
	if !resp.Err.Known() {
		return fail("Unknown error message", resp.Err.Message)
	}
	return nil
}

// ErrorKind is Error plus a specific kind.
func ErrorKind(resp *common.Response, kind common.ErrorKind) error {
	if err := Error(resp); err != nil {
		return err
	}
	if resp.Err.Kind != kind {
		return fail("Unexpected error", resp.Err.Message, kind.Message())
	}
	return nil
}

// Contains wants key to be present with a truthy value. subject can also be a
// raw JSON object as bytes.
func Contains(subject interface{}, key string) error {
	fields, err := normalize(subject)
	if err != nil {
		return err
	}
	if !truthy(fields[key]) {
		return fail("Unexpected response, missing param", key)
	}
	return nil
}

// NotContains wants key to be absent or falsy.
func NotContains(subject interface{}, key string) error {
	fields, err := normalize(subject)
	if err != nil {
		return err
	}
	if truthy(fields[key]) {
		return fail("Unexpected response, unexpected param", key, fields[key])
	}
	return nil
}

// In wants the value under key to be one of allowed.
func In(subject interface{}, key string, allowed ...interface{}) error {
	fields, err := normalize(subject)
	if err != nil {
		return err
	}
	content := fields[key]
	for _, a := range allowed {
		if equal(content, a) {
			return nil
		}
	}
	return fail("Error", content, "not in", allowed)
}

// Equal is strict equality, except that numbers compare by value: JSON gives
// us float64 where the fixtures have ints.
func Equal(first, second interface{}) error {
	if !equal(first, second) {
		return fail("Values differ", first, "not equal to", second)
	}
	return nil
}

func equal(a, b interface{}) bool {
	if fa, ok := number(a); ok {
		fb, ok := number(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func normalize(subject interface{}) (map[string]interface{}, error) {
	switch s := subject.(type) {
	case *common.Response:
		if s == nil {
			return nil, fail("Unexpected response, got nothing")
		}
		return s.Fields, nil
	case common.Response:
		return s.Fields, nil
	case map[string]interface{}:
		return s, nil
	case json.RawMessage:
		return decode(s)
	case []byte:
		return decode(s)
	case nil:
		return nil, fail("Unexpected response, got nothing")
	}
	return nil, fail("Unexpected response type", fmt.Sprintf("%T", subject))
}

func decode(b []byte) (map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fail("Unexpected response, not a JSON object", string(b))
	}
	return fields, nil
}

// truthy follows the usual dynamic-language rules: nil, false, zero, empty
// strings and empty collections are all "not there".
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	}
	if n, ok := number(v); ok {
		return n != 0
	}
	return true
}
