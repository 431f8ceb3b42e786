package logstream

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/rickgorman/testbed/pkg/logger"
)

// ErrNoMatch is returned by WaitFor when the stream ends without a match.
var ErrNoMatch = errors.New("logstream: stream ended before a matching line")

// Stream collects a container's output and serves it to synchronous
// readers. It implements Handler for the producer side.
//
// Every frame is written raw (NUL bytes included) to an internal pipe that
// backs the Read methods. When enabled, a NUL-stripped copy is also
// appended to the capture buffer and printed to the sink.
type Stream struct {
	name   string
	pipe   *Pipe
	logger *log.Logger

	completed atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	st state
}

// state is the part of a Stream shared between the producer goroutine and
// readers. All fields are guarded by mu.
type state struct {
	mu        sync.Mutex
	capturing bool
	capture   []byte
	filter    Filter
	print     bool
	sink      io.Writer
	closer    io.Closer
	err       error
}

// Option configures a Stream.
type Option func(*Stream)

// WithName labels the stream in diagnostics, usually with the container name.
func WithName(name string) Option {
	return func(s *Stream) { s.name = name }
}

// WithPrint enables or disables echoing output to the sink.
func WithPrint(enabled bool) Option {
	return func(s *Stream) { s.st.print = enabled }
}

// WithSink sets where printed output goes. The default is os.Stdout.
func WithSink(w io.Writer) Option {
	return func(s *Stream) { s.st.sink = w }
}

// WithCapture starts the stream with capture enabled.
func WithCapture() Option {
	return func(s *Stream) {
		s.st.capturing = true
		s.st.capture = []byte{}
	}
}

// WithFilter sets the filter applied to reads and captured text.
func WithFilter(f Filter) Option {
	return func(s *Stream) { s.st.filter = f }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Stream) { s.logger = l }
}

// New creates a stream. Printing to os.Stdout is on by default.
func New(opts ...Option) *Stream {
	s := &Stream{pipe: NewPipe()}
	s.st.print = true
	s.st.sink = os.Stdout
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrDefault(s.logger)
	if s.name != "" {
		s.logger = s.logger.With("container", s.name)
	}
	return s
}

// Name returns the stream's label.
func (s *Stream) Name() string {
	return s.name
}

// OnStart implements Handler.
func (s *Stream) OnStart(closer io.Closer) {
	s.completed.Store(false)
	s.pipe.SetDone(false)

	s.st.mu.Lock()
	s.st.closer = closer
	s.st.mu.Unlock()

	// Close raced ahead of delivery: stop it right away.
	if s.closed.Load() && closer != nil {
		_ = closer.Close()
	}
}

// OnNext implements Handler.
func (s *Stream) OnNext(frame Frame) {
	if s.closed.Load() {
		return
	}

	s.st.mu.Lock()
	echo, sink := s.st.print, s.st.sink
	var text []byte
	if s.st.capturing || echo {
		text = stripNUL(append([]byte(nil), frame.Payload...))
		if s.st.capturing {
			s.st.capture = append(s.st.capture, text...)
		}
	}
	s.st.mu.Unlock()

	if echo && sink != nil && len(text) > 0 {
		if _, err := io.WriteString(sink, toText(text)); err != nil {
			s.logger.Debug("print failed", "err", err)
		}
	}

	if _, err := s.pipe.Write(frame.Payload); err != nil {
		s.logger.Debug("dropped frame", "stream", frame.Stream, "bytes", len(frame.Payload), "err", err)
	}
}

// OnComplete implements Handler. Buffered output stays readable.
func (s *Stream) OnComplete() {
	s.completed.Store(true)
	s.pipe.SetDone(true)
}

// OnError implements Handler. The error ends the stream.
func (s *Stream) OnError(err error) {
	s.st.mu.Lock()
	s.st.err = err
	s.st.mu.Unlock()

	s.logger.Warn("log delivery failed", "err", err)
	_ = s.Close()
}

// Close stops delivery and ends the pipe; blocked readers return what was
// buffered. It is safe to call from any goroutine and more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)

		s.st.mu.Lock()
		closer := s.st.closer
		s.st.mu.Unlock()

		if closer != nil {
			if err := closer.Close(); err != nil {
				s.logger.Debug("closing log delivery", "err", err)
				s.closeErr = err
			}
		}
		_ = s.pipe.Close()
	})
	return s.closeErr
}

// Closed reports whether Close has been called.
func (s *Stream) Closed() bool {
	return s.closed.Load()
}

// Completed reports whether the runtime signaled the end of output.
func (s *Stream) Completed() bool {
	return s.completed.Load()
}

// Err returns the error delivered through OnError, if any.
func (s *Stream) Err() error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.err
}

// ReadLineRaw reads up to and including the next '\n'. NUL bytes are
// kept. At end of stream the remaining bytes are returned, possibly none.
func (s *Stream) ReadLineRaw() []byte {
	line, _ := s.readLineRaw()
	return line
}

func (s *Stream) readLineRaw() ([]byte, error) {
	line, err := s.pipe.ReadLine()
	if err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("reading log line", "err", err)
	}
	if line == nil {
		line = []byte{}
	}
	return line, err
}

// ReadLine reads the next line with NUL bytes removed, the filter
// applied and the trailing newline dropped.
func (s *Stream) ReadLine() string {
	return s.decodeLine(s.ReadLineRaw())
}

// ReadAllRaw returns everything the producer delivers until it completes
// or the stream is closed.
func (s *Stream) ReadAllRaw() []byte {
	out := s.pipe.ReadAll()
	if out == nil {
		out = []byte{}
	}
	return out
}

// ReadAll is ReadAllRaw with NUL bytes removed and the filter applied.
func (s *Stream) ReadAll() string {
	return s.decode(s.ReadAllRaw())
}

// WaitFor reads lines until match accepts one and returns that line.
// It returns ErrNoMatch, joined with any delivery error, if the stream
// ends first.
func (s *Stream) WaitFor(match func(line string) bool) (string, error) {
	for {
		raw, err := s.readLineRaw()
		if len(raw) > 0 {
			line := s.decodeLine(raw)
			if match(line) {
				return line, nil
			}
		}
		if err != nil {
			if deliveryErr := s.Err(); deliveryErr != nil {
				return "", errors.Join(ErrNoMatch, deliveryErr)
			}
			return "", ErrNoMatch
		}
	}
}

// WaitForText waits for a line containing text.
func (s *Stream) WaitForText(text string) (string, error) {
	line, err := s.WaitFor(func(line string) bool {
		return strings.Contains(line, text)
	})
	if err != nil {
		return "", fmt.Errorf("waiting for %q: %w", text, err)
	}
	return line, nil
}

// SetCapture enables or disables capture. Enabling starts a new, empty
// buffer; disabling discards it.
func (s *Stream) SetCapture(capture bool) *Stream {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	s.st.capturing = capture
	if capture {
		s.st.capture = []byte{}
	} else {
		s.st.capture = nil
	}
	return s
}

// Capturing reports whether capture is enabled.
func (s *Stream) Capturing() bool {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.capturing
}

// Captured returns the filtered text captured since capture was enabled.
// ok is false when capture is disabled. The filter is applied to the
// buffer itself, so later snapshots see the filtered bytes.
func (s *Stream) Captured() (text string, ok bool) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	if !s.st.capturing {
		return "", false
	}
	if s.st.filter != nil {
		s.st.capture = s.st.filter.Filter(s.st.capture)
	}
	return toText(s.st.capture), true
}

// SetPrint enables or disables echoing output to the sink.
func (s *Stream) SetPrint(enabled bool) *Stream {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.print = enabled
	return s
}

// Print reports whether output is echoed to the sink.
func (s *Stream) Print() bool {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.print
}

// SetSink changes where printed output goes.
func (s *Stream) SetSink(w io.Writer) *Stream {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.sink = w
	return s
}

// SetFilter replaces the filter. A nil filter disables filtering.
func (s *Stream) SetFilter(f Filter) *Stream {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.filter = f
	return s
}

func (s *Stream) currentFilter() Filter {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.filter
}

func (s *Stream) decode(raw []byte) string {
	b := stripNUL(raw)
	if f := s.currentFilter(); f != nil {
		b = f.Filter(b)
	}
	return toText(b)
}

func (s *Stream) decodeLine(raw []byte) string {
	return strings.TrimSuffix(s.decode(raw), "\n")
}

func toText(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
