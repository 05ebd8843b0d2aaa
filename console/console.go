// Package console is the keyboard and display device pair behind the
// reserved descriptors 0 and 1.
package console

import (
	"bytes"
	"io"
	"sync"

	db "ukern/debug"
)

type Dev interface {
	// ReadByte blocks until a key is available.
	ReadByte() (byte, error)
	// Write displays b in one piece.
	Write(b []byte) (int, error)
}

type Console struct {
	mu     sync.Mutex
	cond   *sync.Cond
	in     []byte
	closed bool
	outmu  sync.Mutex
	out    io.Writer
}

func NewConsole(out io.Writer) *Console {
	c := &Console{out: out}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// NewBufConsole makes a console whose display is an in-memory buffer.
func NewBufConsole() (*Console, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewConsole(&syncWriter{w: buf}), buf
}

// Feed queues keystrokes.
func (c *Console) Feed(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.in = append(c.in, b...)
	c.cond.Broadcast()
}

// CloseInput makes readers see io.EOF once the queued input is gone.
func (c *Console) CloseInput() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.cond.Broadcast()
}

func (c *Console) ReadByte() (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.in) == 0 {
		if c.closed {
			return 0, io.EOF
		}
		c.cond.Wait()
	}
	b := c.in[0]
	c.in = c.in[1:]
	return b, nil
}

func (c *Console) Write(b []byte) (int, error) {
	c.outmu.Lock()
	defer c.outmu.Unlock()

	db.DPrintf(db.CONSOLE, "Write %d bytes", len(b))
	return c.out.Write(b)
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (sw *syncWriter) Write(b []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(b)
}
