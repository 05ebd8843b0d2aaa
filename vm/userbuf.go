package vm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"ukern/abi"
	db "ukern/debug"
	"ukern/serr"
)

func badAddr(va abi.Tva, n uint32) error {
	return serr.NewErr(serr.TErrBadAddr, fmt.Sprintf("%#x+%d", uint32(va), n))
}

// CopyInString copies the NUL-terminated string at va into the kernel.
func CopyInString(as AddrSpace, va abi.Tva) (string, error) {
	var sb strings.Builder
	if n, ok := scanCString(as, va, func(b byte) { sb.WriteByte(b) }); !ok {
		db.DPrintf(db.VM_ERR, "CopyInString %#x: invalid after %d bytes", uint32(va), n)
		return "", badAddr(va, n)
	}
	return sb.String(), nil
}

// CopyIn copies n bytes at va into a new kernel buffer.
func CopyIn(as AddrSpace, va abi.Tva, n uint32) ([]byte, error) {
	b := make([]byte, n)
	if err := tx(as, va, b, false); err != nil {
		return nil, err
	}
	return b, nil
}

// CopyOut copies src to user memory at va.
func CopyOut(as AddrSpace, va abi.Tva, src []byte) error {
	return tx(as, va, src, true)
}

func ReadWord(as AddrSpace, va abi.Tva) (abi.Tword, error) {
	var b [abi.WORDSZ]byte
	if err := tx(as, va, b[:], false); err != nil {
		return 0, err
	}
	return abi.Tword(binary.LittleEndian.Uint32(b[:])), nil
}

func WriteWord(as AddrSpace, va abi.Tva, w abi.Tword) error {
	var b [abi.WORDSZ]byte
	binary.LittleEndian.PutUint32(b[:], uint32(w))
	return tx(as, va, b[:], true)
}

// tx checks the whole range before moving a single byte, then copies
// page by page.
func tx(as AddrSpace, va abi.Tva, buf []byte, write bool) error {
	n := uint32(len(buf))
	if !IsValidRange(as, va, n) {
		db.DPrintf(db.VM_ERR, "tx %#x+%d write %v: invalid range", uint32(va), n, write)
		return badAddr(va, n)
	}
	for off := uint32(0); off < n; {
		ubuf, ok := as.Translate(va + abi.Tva(off))
		if !ok {
			db.DFatalf("tx: %#x validated but unmapped", uint32(va)+off)
		}
		var c int
		if write {
			c = copy(ubuf, buf[off:])
		} else {
			c = copy(buf[off:], ubuf)
		}
		off += uint32(c)
	}
	return nil
}

// Userbuf is a user buffer whose whole range was validated when it was
// made. Handlers move data through it without further checks.
type Userbuf struct {
	as  AddrSpace
	va  abi.Tva
	len uint32
	// 0 <= off <= len
	off uint32
}

func NewUserbuf(as AddrSpace, va abi.Tva, n uint32) (*Userbuf, error) {
	if !IsValidRange(as, va, n) {
		db.DPrintf(db.VM_ERR, "NewUserbuf %#x+%d: invalid range", uint32(va), n)
		return nil, badAddr(va, n)
	}
	return &Userbuf{as: as, va: va, len: n}, nil
}

func (ub *Userbuf) Remain() int {
	return int(ub.len - ub.off)
}

func (ub *Userbuf) Totalsz() int {
	return int(ub.len)
}

// Uioread copies user bytes into dst, advancing the buffer.
func (ub *Userbuf) Uioread(dst []byte) (int, error) {
	return ub._tx(dst, false)
}

// Uiowrite copies src into user memory, advancing the buffer.
func (ub *Userbuf) Uiowrite(src []byte) (int, error) {
	return ub._tx(src, true)
}

func (ub *Userbuf) _tx(buf []byte, write bool) (int, error) {
	n := uint32(len(buf))
	if r := ub.len - ub.off; n > r {
		n = r
	}
	if err := tx(ub.as, ub.va+abi.Tva(ub.off), buf[:n], write); err != nil {
		return 0, err
	}
	ub.off += n
	return int(n), nil
}

func (ub *Userbuf) String() string {
	return fmt.Sprintf("{va %#x len %d off %d}", uint32(ub.va), ub.len, ub.off)
}
