package core

import (
	"errors"
	"fmt"
)

// Outcome is the single result of a dispatch. Exactly one of Success /
// failure is reported; Err keeps the structured cause for Go callers and is
// not serialized.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Err     error  `json:"-"`
}

// Succeeded wraps a successful value.
func Succeeded(data any) Outcome {
	return Outcome{Success: true, Data: data}
}

// SucceededWithMessage wraps a successful value and a message.
func SucceededWithMessage(data any, msg string) Outcome {
	return Outcome{Success: true, Message: msg, Data: data}
}

// Failed wraps err. A nil err is reported as an unknown failure.
func Failed(err error) Outcome {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return Outcome{Success: false, Message: err.Error(), Err: err}
}

// Code returns the numeric code of a failure, 200 for success, or 500 for
// failures that carry no RouteError.
func (o Outcome) Code() int {
	if o.Success {
		return 200
	}
	var re *RouteError
	if errors.As(o.Err, &re) {
		return re.Code()
	}
	return 500
}

// Kind returns the RouteError kind of a failure, or 0.
func (o Outcome) Kind() ErrorKind { return KindOf(o.Err) }

// Error returns Err for failures, or nil.
func (o Outcome) Error() error {
	if o.Success {
		return nil
	}
	if o.Err != nil {
		return o.Err
	}
	return errors.New(o.Message)
}

func (o Outcome) String() string {
	if o.Success {
		return fmt.Sprintf("success(%v)", o.Data)
	}
	return "failure(" + o.Message + ")"
}
