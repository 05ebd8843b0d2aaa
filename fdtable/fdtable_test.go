package fdtable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ukern/abi"
	"ukern/fdtable"
	"ukern/serr"
)

const NSLOT = 128 + abi.NRESERVED

type handle struct {
	name string
}

func TestCompile(t *testing.T) {
}

func TestAllocLookupRelease(t *testing.T) {
	fdt := fdtable.NewFdTable[*handle](NSLOT)
	h := &handle{"a"}
	fd, err := fdt.Alloc(h)
	assert.Nil(t, err)
	assert.Equal(t, fdtable.Tfd(abi.NRESERVED), fd)

	h1, err := fdt.Lookup(fd)
	assert.Nil(t, err)
	assert.Equal(t, h, h1)

	h1, err = fdt.Release(fd)
	assert.Nil(t, err)
	assert.Equal(t, h, h1)
	assert.Equal(t, 0, fdt.Len())

	_, err = fdt.Lookup(fd)
	assert.True(t, serr.IsErrCode(err, serr.TErrBadFd))
	_, err = fdt.Release(fd)
	assert.True(t, serr.IsErrCode(err, serr.TErrBadFd))
}

func TestLowestFree(t *testing.T) {
	fdt := fdtable.NewFdTable[*handle](NSLOT)
	for i := 0; i < 5; i++ {
		fd, err := fdt.Alloc(&handle{})
		assert.Nil(t, err)
		assert.Equal(t, fdtable.Tfd(abi.NRESERVED+i), fd)
	}
	_, err := fdt.Release(3)
	assert.Nil(t, err)
	_, err = fdt.Release(5)
	assert.Nil(t, err)
	fd, err := fdt.Alloc(&handle{})
	assert.Nil(t, err)
	assert.Equal(t, fdtable.Tfd(3), fd)
	fd, err = fdt.Alloc(&handle{})
	assert.Nil(t, err)
	assert.Equal(t, fdtable.Tfd(5), fd)
}

func TestReserved(t *testing.T) {
	fdt := fdtable.NewFdTable[*handle](NSLOT)
	for _, fd := range []fdtable.Tfd{abi.STDIN_FILENO, abi.STDOUT_FILENO} {
		assert.True(t, fdtable.IsReserved(fd))
		_, err := fdt.Lookup(fd)
		assert.True(t, serr.IsErrCode(err, serr.TErrBadFd))
		_, err = fdt.Release(fd)
		assert.True(t, serr.IsErrCode(err, serr.TErrBadFd))
	}
	assert.False(t, fdtable.IsReserved(abi.NRESERVED))
}

func TestOutOfRange(t *testing.T) {
	fdt := fdtable.NewFdTable[*handle](NSLOT)
	for _, fd := range []fdtable.Tfd{-1, NSLOT, NSLOT + 1, 1 << 30} {
		_, err := fdt.Lookup(fd)
		assert.True(t, serr.IsErrCode(err, serr.TErrBadFd), "fd %d", fd)
	}
}

func TestFull(t *testing.T) {
	fdt := fdtable.NewFdTable[*handle](NSLOT)
	assert.Equal(t, 128, fdt.Cap())
	for i := 0; i < fdt.Cap(); i++ {
		_, err := fdt.Alloc(&handle{})
		assert.Nil(t, err)
	}
	fd, err := fdt.Alloc(&handle{})
	assert.True(t, serr.IsErrCode(err, serr.TErrMFile))
	assert.Equal(t, fdtable.Tfd(-1), fd)
	assert.Equal(t, 128, fdt.Len())

	// Freeing any slot makes room again.
	_, err = fdt.Release(77)
	assert.Nil(t, err)
	fd, err = fdt.Alloc(&handle{})
	assert.Nil(t, err)
	assert.Equal(t, fdtable.Tfd(77), fd)
}

func TestReleaseAll(t *testing.T) {
	fdt := fdtable.NewFdTable[*handle](NSLOT)
	for _, n := range []string{"a", "b", "c"} {
		_, err := fdt.Alloc(&handle{n})
		assert.Nil(t, err)
	}
	_, err := fdt.Release(3)
	assert.Nil(t, err)
	hs := fdt.ReleaseAll()
	assert.Equal(t, 2, len(hs))
	assert.Equal(t, "a", hs[0].name)
	assert.Equal(t, "c", hs[1].name)
	assert.Equal(t, 0, fdt.Len())
	fd, err := fdt.Alloc(&handle{})
	assert.Nil(t, err)
	assert.Equal(t, fdtable.Tfd(abi.NRESERVED), fd)
}
