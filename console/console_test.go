package console_test

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ukern/console"
)

func TestCompile(t *testing.T) {
}

func TestReadWrite(t *testing.T) {
	cons, out := console.NewBufConsole()
	n, err := cons.Write([]byte("hi\n"))
	assert.Nil(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "hi\n", out.String())

	cons.Feed([]byte("ab"))
	cons.CloseInput()
	for _, want := range []byte("ab") {
		c, err := cons.ReadByte()
		assert.Nil(t, err)
		assert.Equal(t, want, c)
	}
	_, err = cons.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadBlocks(t *testing.T) {
	cons, _ := console.NewBufConsole()
	ch := make(chan byte)
	go func() {
		c, err := cons.ReadByte()
		assert.Nil(t, err)
		ch <- c
	}()
	select {
	case <-ch:
		assert.Fail(t, "read without input")
	case <-time.After(50 * time.Millisecond):
	}
	cons.Feed([]byte("x"))
	assert.Equal(t, byte('x'), <-ch)
}
