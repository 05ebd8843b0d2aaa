package vm

import (
	"ukern/abi"
)

// IsValidPtr reports whether va is non-null, below the kernel/user split
// and mapped in as.
func IsValidPtr(as AddrSpace, va abi.Tva) bool {
	if va == 0 || va >= as.Top() {
		return false
	}
	_, ok := as.Translate(va)
	return ok
}

// IsValidRange reports whether every byte of [va, va+n) is a valid user
// pointer. Each page the range touches is checked, not only the ends.
func IsValidRange(as AddrSpace, va abi.Tva, n uint32) bool {
	if n == 0 {
		return true
	}
	end := uint64(va) + uint64(n)
	if end > uint64(as.Top()) {
		return false
	}
	if !IsValidPtr(as, va) {
		return false
	}
	for pg := uint64(abi.PgRoundDown(va)) + abi.PGSIZE; pg < end; pg += abi.PGSIZE {
		if !IsValidPtr(as, abi.Tva(pg)) {
			return false
		}
	}
	return true
}

// IsValidCString reports whether a NUL is reached from va before any
// invalid byte.
func IsValidCString(as AddrSpace, va abi.Tva) bool {
	_, ok := scanCString(as, va, nil)
	return ok
}

// scanCString validates and consumes one byte at a time, so it never
// touches a byte past the first invalid address. If f is non-nil it is
// handed every byte before the terminator.
func scanCString(as AddrSpace, va abi.Tva, f func(byte)) (uint32, bool) {
	for n := uint32(0); ; n++ {
		a := uint64(va) + uint64(n)
		if a >= uint64(as.Top()) || !IsValidPtr(as, abi.Tva(a)) {
			return n, false
		}
		b, _ := as.Translate(abi.Tva(a))
		if b[0] == 0 {
			return n, true
		}
		if f != nil {
			f(b[0])
		}
	}
}
