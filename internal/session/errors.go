package session

import "strings"

// ErrorKind classifies a flow error.
type ErrorKind int

const (
	// KindDerivation is reserved: key derivation accepts every passphrase.
	KindDerivation ErrorKind = iota + 1
	KindRemoteRead
	KindRemoteWrite
	KindInvalidInput
)

func (k ErrorKind) String() string {
	switch k {
	case KindDerivation:
		return "derivation"
	case KindRemoteRead:
		return "remote_read"
	case KindRemoteWrite:
		return "remote_write"
	case KindInvalidInput:
		return "invalid_input"
	}
	return "unknown"
}

// FlowError is one failure recorded on a session.
type FlowError struct {
	Kind ErrorKind
	Op   string // e.g. "save note", "persist index"
	Key  string
	Err  error
}

func (e *FlowError) Error() string {
	return e.Err.Error()
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// JoinErrors renders errs as one display string.
func JoinErrors(errs []*FlowError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}
