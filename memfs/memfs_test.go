package memfs_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"ukern/memfs"
	"ukern/serr"
	"ukern/test"
)

const (
	MAXNAME = 14
	NDISK   = 1 << 20
)

func TestCompile(t *testing.T) {
}

func TestCreateOpen(t *testing.T) {
	mfs := memfs.NewMemFs(MAXNAME, NDISK)
	assert.Nil(t, mfs.Create("f", 100))
	err := mfs.Create("f", 10)
	assert.True(t, serr.IsErrCode(err, serr.TErrExists))

	f, err := mfs.Open("f")
	assert.Nil(t, err)
	assert.Equal(t, uint32(100), f.Length())
	assert.Equal(t, uint32(0), f.Tell())
	assert.Nil(t, f.Close())

	_, err = mfs.Open("g")
	assert.True(t, serr.IsErrNotfound(err))
	assert.Equal(t, []string{"f"}, mfs.Names())
}

func TestBadNames(t *testing.T) {
	mfs := memfs.NewMemFs(MAXNAME, NDISK)
	for _, n := range []string{"", "a/b", "fifteen-chars-x"} {
		err := mfs.Create(n, 1)
		assert.True(t, serr.IsErrCode(err, serr.TErrInval), "name %q", n)
	}
	assert.Nil(t, mfs.Create("fourteen-chars", 1))
}

func TestReadWrite(t *testing.T) {
	mfs := memfs.NewMemFs(MAXNAME, NDISK)
	assert.Nil(t, mfs.Create("f", 1000))
	f, err := mfs.Open("f")
	assert.Nil(t, err)

	buf := test.MkBuf(64)
	assert.Nil(t, test.Writer(f, buf, 960))
	assert.Equal(t, uint32(960), f.Tell())

	// The file does not grow.
	n, err := f.Write(buf)
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, 40, n)
	assert.Equal(t, uint32(1000), f.Length())
	n, err = f.Write(buf)
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, 0, n)

	f.Seek(64)
	b := make([]byte, 64)
	n, err = f.Read(b)
	assert.Nil(t, err)
	assert.Equal(t, 64, n)
	assert.Equal(t, buf, b)

	f.Seek(990)
	n, err = f.Read(b)
	assert.Nil(t, err)
	assert.Equal(t, 10, n)
	n, err = f.Read(b)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, n)

	f.Seek(5000)
	assert.Equal(t, uint32(5000), f.Tell())
	_, err = f.Read(b)
	assert.ErrorIs(t, err, io.EOF)
}

func TestIndependentPositions(t *testing.T) {
	mfs := memfs.NewMemFs(MAXNAME, NDISK)
	assert.Nil(t, mfs.PutFile("f", []byte("hello")))
	f1, err := mfs.Open("f")
	assert.Nil(t, err)
	f2, err := mfs.Open("f")
	assert.Nil(t, err)
	b := make([]byte, 3)
	_, err = f1.Read(b)
	assert.Nil(t, err)
	assert.Equal(t, uint32(3), f1.Tell())
	assert.Equal(t, uint32(0), f2.Tell())
}

func TestRemoveOpen(t *testing.T) {
	mfs := memfs.NewMemFs(MAXNAME, NDISK)
	assert.Nil(t, mfs.PutFile("f", []byte("data")))
	f, err := mfs.Open("f")
	assert.Nil(t, err)
	assert.Nil(t, mfs.Remove("f"))
	assert.True(t, serr.IsErrNotfound(mfs.Remove("f")))
	_, err = mfs.Open("f")
	assert.True(t, serr.IsErrNotfound(err))

	// Open handles keep the data.
	b := make([]byte, 4)
	n, err := f.Read(b)
	assert.Nil(t, err)
	assert.Equal(t, "data", string(b[:n]))

	assert.Nil(t, f.Close())
	err = f.Close()
	assert.True(t, serr.IsErrCode(err, serr.TErrBadFd))
}

func TestDiskFull(t *testing.T) {
	mfs := memfs.NewMemFs(MAXNAME, NDISK)
	assert.Nil(t, mfs.Create("a", NDISK/2))
	assert.Nil(t, mfs.Create("b", NDISK/4))
	err := mfs.Create("c", NDISK/2)
	assert.True(t, serr.IsErrCode(err, serr.TErrNoSpace))
	assert.False(t, serr.IsFatal(err))
	_, err = mfs.Open("c")
	assert.True(t, serr.IsErrNotfound(err))
	assert.Equal(t, uint64(NDISK*3/4), mfs.Used())

	// The last byte fits exactly.
	assert.Nil(t, mfs.Create("c", NDISK/4))
	err = mfs.Create("d", 1)
	assert.True(t, serr.IsErrCode(err, serr.TErrNoSpace))

	// A removed file keeps its space until the last handle closes.
	f, err := mfs.Open("a")
	assert.Nil(t, err)
	assert.Nil(t, mfs.Remove("a"))
	assert.Equal(t, uint64(NDISK), mfs.Used())
	err = mfs.Create("d", NDISK/2)
	assert.True(t, serr.IsErrCode(err, serr.TErrNoSpace))
	assert.Equal(t, uint32(NDISK/2), f.Length())
	assert.Nil(t, f.Close())
	assert.Equal(t, uint64(NDISK/2), mfs.Used())
	assert.Nil(t, mfs.Create("d", NDISK/2))

	// A second close frees nothing twice.
	assert.NotNil(t, f.Close())
	assert.Equal(t, uint64(NDISK), mfs.Used())

	err = mfs.PutFile("e", []byte("x"))
	assert.True(t, serr.IsErrCode(err, serr.TErrNoSpace))
}
