package status

import "fmt"

// Status is the platform status code carried across the component-object
// boundary. Negative values are errors, zero and positive values are success;
// Pending is a success-class code signalling an in-flight operation.
type Status int32

const (
	Success               Status = 0
	Pending               Status = 0x00000103
	Unsuccessful          Status = -0x3FFFFFFF // 0xC0000001
	InvalidParameter      Status = -0x3FFFFFF3 // 0xC000000D
	NotSupported          Status = -0x3FFFFF45 // 0xC00000BB
	InsufficientResources Status = -0x3FFFFF66 // 0xC000009A
	Cancelled             Status = -0x3FFFFEE0 // 0xC0000120
	NoInterface           Status = -0x3FFFFD47 // 0xC00002B9
	Retry                 Status = -0x3FFFFB99 // 0xC0000467
)

// IsSuccess reports whether s belongs to the success class (Pending included).
func (s Status) IsSuccess() bool {
	return s >= 0
}

// IsError reports whether s is an error code.
func (s Status) IsError() bool {
	return s < 0
}

// IsPending reports whether s signals an in-flight operation.
func (s Status) IsPending() bool {
	return s == Pending
}

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Pending:
		return "pending"
	case Unsuccessful:
		return "unsuccessful"
	case InvalidParameter:
		return "invalid parameter"
	case NotSupported:
		return "not supported"
	case InsufficientResources:
		return "insufficient resources"
	case Cancelled:
		return "cancelled"
	case NoInterface:
		return "no interface"
	case Retry:
		return "retry in a different context"
	}
	return fmt.Sprintf("status(0x%08X)", uint32(s))
}

// Err maps s onto the error domain: success-class codes yield nil.
func (s Status) Err() error {
	if s.IsSuccess() {
		return nil
	}
	return &Error{Code: s}
}

// Error wraps an error-class Status as a Go error.
type Error struct {
	Code Status
}

func (e *Error) Error() string {
	return fmt.Sprintf("status error: %v", e.Code)
}

// FromError maps err onto a status code: nil maps to Success, a wrapped
// *Error keeps its original code, anything else maps to fallback.
func FromError(err error, fallback Status) Status {
	if err == nil {
		return Success
	}
	if sErr, ok := err.(*Error); ok {
		return sErr.Code
	}
	return fallback
}

// FromBool maps a success/failure outcome 1:1 onto a status code: success
// maps to the designated OK code, failure to the caller-supplied code.
func FromBool(ok bool, onFailure Status) Status {
	if ok {
		return Success
	}
	return onFailure
}

// PendingResult distinguishes a still-pending outcome from a ready one at
// call sites that treat Pending as flow control rather than data.
type PendingResult uint8

const (
	Ready PendingResult = iota
	StillPending
)

// ToPendingResult classifies s, separating Pending from plain success; error
// codes are returned unchanged alongside Ready.
func (s Status) ToPendingResult() (PendingResult, error) {
	if s == Pending {
		return StillPending, nil
	}
	if s.IsError() {
		return Ready, &Error{Code: s}
	}
	return Ready, nil
}
