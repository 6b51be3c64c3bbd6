package sffs

import "strconv"

// ResultCode is the closed set of error kinds the engine ever returns.
// Ordering is stable: it is part of the on-wire contract with the IPC
// dispatcher, which maps a non-Success code to a guest-visible negative
// integer via IPCCode.
type ResultCode int

const (
	Success ResultCode = iota
	Invalid
	AccessDenied
	SuperblockInitFailed
	NotFound
	AlreadyExists
	TooManyPathComponents
	InUse
	BadBlock
	NoFreeHandle
	NoFreeSpace
	FstFull
	FileNotEmpty
	CheckFailed
	SuperblockWriteFailed
)

var resultCodeNames = [...]string{
	Success:               "Success",
	Invalid:               "Invalid",
	AccessDenied:          "AccessDenied",
	SuperblockInitFailed:  "SuperblockInitFailed",
	NotFound:              "NotFound",
	AlreadyExists:         "AlreadyExists",
	TooManyPathComponents: "TooManyPathComponents",
	InUse:                 "InUse",
	BadBlock:              "BadBlock",
	NoFreeHandle:          "NoFreeHandle",
	NoFreeSpace:           "NoFreeSpace",
	FstFull:               "FstFull",
	FileNotEmpty:          "FileNotEmpty",
	CheckFailed:           "CheckFailed",
	SuperblockWriteFailed: "SuperblockWriteFailed",
}

func (rc ResultCode) String() string {
	if int(rc) < 0 || int(rc) >= len(resultCodeNames) {
		return "ResultCode(" + strconv.Itoa(int(rc)) + ")"
	}
	return resultCodeNames[rc]
}

// Error adapts a ResultCode to the error interface so operations can
// return it through a plain Go error while callers that need the raw
// code can recover it with errors.As. Cause, when set, is the
// underlying I/O error that produced a BadBlock result; it is not part
// of the public result-code contract, only of diagnostics.
type Error struct {
	Code  ResultCode
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return "sffs: " + e.Code.String() + ": " + e.Cause.Error()
	}
	return "sffs: " + e.Code.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Err wraps a ResultCode as an error, or returns nil for Success.
func Err(code ResultCode) error {
	if code == Success {
		return nil
	}
	return &Error{Code: code}
}

// Code extracts the ResultCode carried by err, returning Success for a
// nil error and Invalid for an error that did not originate here.
func Code(err error) ResultCode {
	if err == nil {
		return Success
	}
	if se, ok := err.(*Error); ok {
		return se.Code
	}
	return Invalid
}

// IPCCode maps a ResultCode to the guest-visible negative integer the
// IPC dispatcher uses, per spec.md §6: 0 on success, else -(100+ordinal).
// The CORE does not perform this mapping itself -- that belongs to the
// out-of-scope dispatcher -- but the formula is a pure function of this
// package's closed enum, so it is exposed as a convenience.
func (rc ResultCode) IPCCode() int32 {
	if rc == Success {
		return 0
	}
	return -(100 + int32(rc))
}
