package serr

import (
	"errors"
	"fmt"
)

//
// Kernel error codes. Codes below TErrFatal are protocol violations by
// the calling process and end with the process being killed; the rest
// are ordinary conditions reported to the process as a sentinel value.
//

type Terror uint32

const (
	TErrNoError Terror = iota
	TErrBadAddr
	TErrBadFd
	TErrBadCall
	TErrInval

	TErrFatal // marker, not an error

	TErrNotfound
	TErrExists
	TErrMFile
	TErrNoProc
	TErrChild
	TErrPerm
	TErrNoLoad
	TErrHalted
	TErrNoSpace
	TErrError
)

func (err Terror) String() string {
	switch err {
	case TErrNoError:
		return "no error"
	case TErrBadAddr:
		return "bad address"
	case TErrBadFd:
		return "bad file descriptor"
	case TErrBadCall:
		return "bad system call"
	case TErrInval:
		return "invalid argument"
	case TErrNotfound:
		return "file not found"
	case TErrExists:
		return "file exists"
	case TErrMFile:
		return "too many open files"
	case TErrNoProc:
		return "too many processes"
	case TErrChild:
		return "no child process"
	case TErrPerm:
		return "operation not permitted"
	case TErrNoLoad:
		return "load failed"
	case TErrHalted:
		return "machine halted"
	case TErrNoSpace:
		return "no space left on device"
	case TErrError:
		return "Error"
	default:
		return fmt.Sprintf("unknown error %d", uint32(err))
	}
}

type Err struct {
	ErrCode Terror
	Obj     string
	Err     error
}

func NewErr(code Terror, obj interface{}) *Err {
	return &Err{
		ErrCode: code,
		Obj:     fmt.Sprintf("%v", obj),
		Err:     nil,
	}
}

func NewErrError(error error) *Err {
	return &Err{ErrCode: TErrError, Err: error}
}

func (err *Err) Code() Terror {
	return err.ErrCode
}

func (err *Err) Unwrap() error { return err.Err }

func (err *Err) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("{Err: %q Obj: %q (%v)}", err.ErrCode, err.Obj, err.Err)
	}
	return fmt.Sprintf("{Err: %q Obj: %q}", err.ErrCode, err.Obj)
}

func (err *Err) String() string {
	return err.Error()
}

// IsFatal reports whether err is a protocol violation that must cost the
// caller its life rather than a sentinel return. Unknown errors are
// treated as fatal: an error nobody classified is a kernel-side fault.
func (err *Err) IsFatal() bool {
	return (err.ErrCode > TErrNoError && err.ErrCode < TErrFatal) || err.ErrCode == TErrError
}

func IsErr(error error) (*Err, bool) {
	var err *Err
	if errors.As(error, &err) {
		return err, true
	}
	return nil, false
}

func IsErrCode(error error, code Terror) bool {
	if err, ok := IsErr(error); ok {
		return err.ErrCode == code
	}
	return false
}

func IsFatal(error error) bool {
	if error == nil {
		return false
	}
	if err, ok := IsErr(error); ok {
		return err.IsFatal()
	}
	return true
}

func IsErrNotfound(error error) bool {
	return IsErrCode(error, TErrNotfound)
}
