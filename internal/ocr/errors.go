package ocr

import "fmt"

// Code classifies engine failures so callers can branch on the failure class
// without parsing messages.
type Code int

const (
	CodeUnknown Code = iota
	CodeNotInitialized
	CodePreprocess
	CodeInference
	CodeDecode
)

func (c Code) String() string {
	switch c {
	case CodeNotInitialized:
		return "not_initialized"
	case CodePreprocess:
		return "preprocess"
	case CodeInference:
		return "inference"
	case CodeDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the structured error type returned by the engine.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ocr %s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("ocr %s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code Code, msg string, err error) *Error {
	return &Error{Code: code, Msg: msg, Err: err}
}
