package common

import "fmt"

// ErrorKind is the closed vocabulary of "error" strings an nspv node replies
// with. Anything else is ERROR_UNKNOWN.
type ErrorKind uint8

const (
	ERROR_UNKNOWN ErrorKind = iota
	ERROR_NO_HEIGHT
	ERROR_INVALID_HEIGHT_RANGE
	ERROR_INVALID_METHOD
	ERROR_TIMEOUT
	ERROR_GENERIC
	ERROR_NO_HEX
	ERROR_ADDRESS_UTXOS
	ERROR_INVALID_ADDRESS_OR_AMOUNT
	ERROR_NOT_ENOUGH_FUNDS
	ERROR_INVALID_UTXO
	ERROR_WIF_EXPIRED
	ERROR_NOT_IMPLEMENTED
)

var errorMessages = map[ErrorKind]string{
	ERROR_NO_HEIGHT:                 "no height",
	ERROR_INVALID_HEIGHT_RANGE:      "invalid height range",
	ERROR_INVALID_METHOD:            "invalid method",
	ERROR_TIMEOUT:                   "timeout",
	ERROR_GENERIC:                   "error",
	ERROR_NO_HEX:                    "no hex",
	ERROR_ADDRESS_UTXOS:             "couldnt get addressutxos",
	ERROR_INVALID_ADDRESS_OR_AMOUNT: "invalid address or amount too small",
	ERROR_NOT_ENOUGH_FUNDS:          "not enough funds",
	ERROR_INVALID_UTXO:              "invalid utxo",
	ERROR_WIF_EXPIRED:               "wif expired",
	ERROR_NOT_IMPLEMENTED:           "not implemented yet",
}

var errorKinds = func() map[string]ErrorKind {
	m := make(map[string]ErrorKind, len(errorMessages))
	for kind, msg := range errorMessages {
		m[msg] = kind
	}
	return m
}()

func ParseErrorKind(msg string) ErrorKind {
	return errorKinds[msg]
}

// Message returns the wire string for this kind, empty for ERROR_UNKNOWN.
func (k ErrorKind) Message() string {
	return errorMessages[k]
}

func (k ErrorKind) String() string {
	if msg, ok := errorMessages[k]; ok {
		return msg
	}
	return "unknown"
}

// KnownErrorMessages lists the whole vocabulary, in ErrorKind order.
func KnownErrorMessages() []string {
	msgs := make([]string, 0, len(errorMessages))
	for k := ERROR_NO_HEIGHT; k <= ERROR_NOT_IMPLEMENTED; k++ {
		msgs = append(msgs, errorMessages[k])
	}
	return msgs
}

// ProtocolError is an error envelope returned by the node.
type ProtocolError struct {
	Kind    ErrorKind
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Kind == ERROR_UNKNOWN {
		return fmt.Sprintf("node error (outside known vocabulary): %q", e.Message)
	}
	return "node error: " + e.Message
}

func (e *ProtocolError) Known() bool {
	return e.Kind != ERROR_UNKNOWN
}
