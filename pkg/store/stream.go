package store

import (
	"context"
	"sync"

	"github.com/aleksaelezovic/trigo-conceptnet/pkg/rdf"
)

// Sink receives the results of one query.
//
// Push and Close are called from a single producer goroutine. Error and
// SetMetadata settle the stream; only the first of them takes effect.
type Sink interface {
	Push(quad *rdf.Quad)
	Close()
	Error(err error)
	SetMetadata(meta Metadata)
}

// QuadStream is a channel-backed Sink. Consumers range over Quads and then
// call Wait for the count metadata or the error that ended the query.
type QuadStream struct {
	quads     chan *rdf.Quad
	settled   chan struct{}
	abandoned chan struct{}

	mu     sync.Mutex
	closed bool
	err    error
	meta   *Metadata

	abandonOnce sync.Once
}

// NewQuadStream creates a stream whose quad channel holds up to buffer
// undelivered quads.
func NewQuadStream(buffer int) *QuadStream {
	return &QuadStream{
		quads:     make(chan *rdf.Quad, buffer),
		settled:   make(chan struct{}),
		abandoned: make(chan struct{}),
	}
}

// Push delivers a quad, blocking until the consumer takes it or abandons
// the stream.
func (s *QuadStream) Push(quad *rdf.Quad) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	select {
	case s.quads <- quad:
	case <-s.abandoned:
	}
}

// Close ends quad delivery. Metadata may still follow.
func (s *QuadStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.quads)
}

// Error settles the stream with err. Later errors and metadata are dropped.
func (s *QuadStream) Error(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isSettled() {
		return
	}
	s.err = err
	close(s.settled)
}

// SetMetadata settles the stream with the count metadata.
func (s *QuadStream) SetMetadata(meta Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isSettled() {
		return
	}
	s.meta = &meta
	close(s.settled)
}

func (s *QuadStream) isSettled() bool {
	return s.err != nil || s.meta != nil
}

// Quads returns the channel of delivered quads. It is closed by Close.
func (s *QuadStream) Quads() <-chan *rdf.Quad {
	return s.quads
}

// Abandon tells the producer the consumer stopped reading. Pending and
// future pushes are discarded.
func (s *QuadStream) Abandon() {
	s.abandonOnce.Do(func() { close(s.abandoned) })
}

// Wait blocks until the stream is settled by metadata or an error.
func (s *QuadStream) Wait(ctx context.Context) (Metadata, error) {
	select {
	case <-s.settled:
	case <-ctx.Done():
		return Metadata{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Metadata{}, s.err
	}
	return *s.meta, nil
}

// Collect drains the stream and waits for its metadata.
func Collect(ctx context.Context, s *QuadStream) ([]*rdf.Quad, Metadata, error) {
	var quads []*rdf.Quad
	for {
		select {
		case quad, ok := <-s.Quads():
			if !ok {
				meta, err := s.Wait(ctx)
				return quads, meta, err
			}
			quads = append(quads, quad)
		case <-ctx.Done():
			s.Abandon()
			return quads, Metadata{}, ctx.Err()
		}
	}
}
