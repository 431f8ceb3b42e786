package logstream

import "io"

// StreamType identifies where a frame's payload came from.
type StreamType int

const (
	Raw StreamType = iota
	Stdin
	Stdout
	Stderr
)

func (t StreamType) String() string {
	switch t {
	case Stdin:
		return "stdin"
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "raw"
	}
}

// Frame is one chunk of container output as delivered by the runtime.
type Frame struct {
	Stream  StreamType
	Payload []byte
}

// Handler receives a container's output asynchronously. The runtime calls
// OnStart once delivery begins, OnNext for every frame, and finally either
// OnComplete or OnError. Calls come from a goroutine owned by the runtime.
type Handler interface {
	// OnStart hands over the resource that stops delivery when closed.
	OnStart(closer io.Closer)
	OnNext(frame Frame)
	OnComplete()
	OnError(err error)
}
