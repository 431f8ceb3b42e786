package logstream

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeReadByte(t *testing.T) {
	p := NewPipe()
	_, err := p.Write([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, 2, p.Available())

	c, err := p.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('a'), c)
	assert.Equal(t, 1, p.Available())
}

func TestPipeReadLineAcrossWrites(t *testing.T) {
	p := NewPipe()
	go func() {
		_, _ = p.Write([]byte("hel"))
		time.Sleep(10 * time.Millisecond)
		_, _ = p.Write([]byte("lo\nworld"))
	}()

	line, err := p.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(line))
	assert.Equal(t, 5, p.Available())
}

func TestPipeReadBlocksUntilWrite(t *testing.T) {
	p := NewPipe()
	got := make(chan []byte)

	go func() {
		buf := make([]byte, 8)
		n, _ := p.Read(buf)
		got <- buf[:n]
	}()

	select {
	case <-got:
		t.Fatal("read returned before any write")
	case <-time.After(20 * time.Millisecond):
	}

	_, err := p.Write([]byte("x"))
	require.NoError(t, err)

	select {
	case b := <-got:
		assert.Equal(t, []byte("x"), b)
	case <-time.After(time.Second):
		t.Fatal("read did not wake up")
	}
}

func TestPipeCloseUnblocksReader(t *testing.T) {
	p := NewPipe()
	done := make(chan error)

	go func() {
		_, err := p.ReadByte()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, p.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(time.Second):
		t.Fatal("reader still blocked after close")
	}
}

func TestPipeDrainsBufferAfterClose(t *testing.T) {
	p := NewPipe()
	_, _ = p.Write([]byte("left\nover"))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	line, err := p.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "left\n", string(line))

	line, err = p.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "over", string(line))

	_, err = p.Write([]byte("late"))
	assert.ErrorIs(t, err, ErrPipeClosed)
}

func TestPipeReadAllStopsWhenDone(t *testing.T) {
	p := NewPipe()
	go func() {
		for _, chunk := range []string{"one ", "two ", "three"} {
			_, _ = p.Write([]byte(chunk))
			time.Sleep(5 * time.Millisecond)
		}
		p.SetDone(true)
	}()

	assert.Equal(t, "one two three", string(p.ReadAll()))
}

func TestPipeDoneEmptyReturnsEOF(t *testing.T) {
	p := NewPipe()
	p.SetDone(true)

	_, err := p.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
	assert.Empty(t, p.ReadAll())

	// a restarted producer makes reads block again
	p.SetDone(false)
	_, _ = p.Write([]byte("z"))
	c, err := p.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('z'), c)
}
