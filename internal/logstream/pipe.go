package logstream

import (
	"errors"
	"io"
	"sync"
)

// ErrPipeClosed is returned by writes after Close.
var ErrPipeClosed = errors.New("logstream: write on closed pipe")

// Pipe is an unbounded in-memory byte pipe. Writes never block; reads
// block until data arrives, the producer finishes, or the pipe is closed.
type Pipe struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	done   bool
	closed bool
}

// NewPipe creates an empty pipe.
func NewPipe() *Pipe {
	p := &Pipe{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Write appends b to the pipe.
func (p *Pipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPipeClosed
	}
	p.buf = append(p.buf, b...)
	p.cond.Broadcast()
	return len(b), nil
}

// SetDone marks whether the producer has finished. While done, reads on
// an empty pipe return io.EOF instead of waiting.
func (p *Pipe) SetDone(done bool) {
	p.mu.Lock()
	p.done = done
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Close ends the pipe. Buffered bytes can still be read; once they are
// gone reads return io.EOF. Close is idempotent.
func (p *Pipe) Close() error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	return nil
}

// Available returns the number of buffered bytes.
func (p *Pipe) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}

// ReadByte blocks for the next byte.
func (p *Pipe) ReadByte() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.wait() {
		return 0, io.EOF
	}
	c := p.buf[0]
	p.shift(1)
	return c, nil
}

// Read blocks until at least one byte is available.
func (p *Pipe) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.wait() {
		return 0, io.EOF
	}
	n := copy(b, p.buf)
	p.shift(n)
	return n, nil
}

// ReadLine reads up to and including the next '\n'. At end of stream it
// returns what was read, with io.EOF.
func (p *Pipe) ReadLine() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var line []byte
	for {
		if !p.wait() {
			return line, io.EOF
		}
		for i, c := range p.buf {
			if c == '\n' {
				line = append(line, p.buf[:i+1]...)
				p.shift(i + 1)
				return line, nil
			}
		}
		line = append(line, p.buf...)
		p.shift(len(p.buf))
	}
}

// ReadAll drains the pipe until the producer is done or the pipe is
// closed and nothing remains buffered.
func (p *Pipe) ReadAll() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []byte
	for p.wait() {
		out = append(out, p.buf...)
		p.shift(len(p.buf))
	}
	return out
}

// wait blocks until data is buffered or the stream has ended.
// It reports whether data is available. p.mu must be held.
func (p *Pipe) wait() bool {
	for len(p.buf) == 0 && !p.done && !p.closed {
		p.cond.Wait()
	}
	return len(p.buf) > 0
}

func (p *Pipe) shift(n int) {
	if n >= len(p.buf) {
		p.buf = nil
		return
	}
	p.buf = p.buf[n:]
}
