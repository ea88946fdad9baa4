package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrDisposed is returned once the output graph has been torn down.
	ErrDisposed = errors.New("audio output disposed")
	// ErrNoContext is returned when a generator builds before EnsureReady.
	ErrNoContext = errors.New("audio context not ready")
	// ErrSuspended means the context exists but the platform refused to
	// resume it, usually an autoplay policy. Retry on the next user gesture.
	ErrSuspended = errors.New("audio context suspended")
	// ErrUnsupported is returned by a context that cannot build a node type.
	ErrUnsupported = errors.New("audio node unsupported")
)

// GraphError reports a node a generator could not build.
type GraphError struct {
	Generator string
	Node      string
	Cause     error
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("%s: build %s: %v", e.Generator, e.Node, e.Cause)
}

func (e *GraphError) Unwrap() error {
	return e.Cause
}

func graphErr(generator, node string, err error) error {
	return &GraphError{Generator: generator, Node: node, Cause: err}
}
