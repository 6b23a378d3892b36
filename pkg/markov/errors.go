package markov

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is matched (through errors.Is) by every RequestError.
// It is returned before any sampling begins; no partial result is produced.
var ErrInvalidRequest = errors.New("markov: invalid generation request")

// RequestError reports which generation parameter was rejected and why.
type RequestError struct {
	Param  string
	Value  int
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("markov: invalid %s=%d: %s", e.Param, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidRequest) hold for any *RequestError.
func (e *RequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

func invalid(param string, value int, reason string) error {
	return &RequestError{Param: param, Value: value, Reason: reason}
}
