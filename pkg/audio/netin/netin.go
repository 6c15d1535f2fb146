// Package netin receives live 16-bit PCM over the network.
//
// Two transports are supported. Over TCP a connection starts with the sample
// rate as a 4-byte big-endian integer, followed by raw little-endian stereo
// samples until the peer closes. Over WebSocket the first binary message is a
// msgpack Header and every following binary message carries samples in the
// declared channel layout; mono is duplicated to stereo on arrival.
//
// Connections are handled one at a time, since the sink accepts a single
// feeder. Each is presented to a Handler as a Stream.
package netin

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// MaxSampleRate bounds the sample rate a peer may declare.
const MaxSampleRate = 768000

var (
	// ErrBadHeader is returned when a stream header is missing or invalid.
	ErrBadHeader = errors.New("netin: bad stream header")

	// ErrBusy is returned to a peer that connects while another stream is
	// being handled.
	ErrBusy = errors.New("netin: busy")
)

// Header describes a WebSocket stream.
type Header struct {
	SampleRate int `msgpack:"sample_rate"`
	Channels   int `msgpack:"channels"`
}

// Validate checks the rate and channel count.
func (h Header) Validate() error {
	if h.SampleRate <= 0 || h.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: sample rate %d", ErrBadHeader, h.SampleRate)
	}
	if h.Channels != 1 && h.Channels != 2 {
		return fmt.Errorf("%w: %d channels", ErrBadHeader, h.Channels)
	}
	return nil
}

// Stream is one incoming connection delivering stereo L16 at SampleRate.
// Read returns io.EOF when the peer finishes.
type Stream struct {
	ID         string
	Remote     string
	SampleRate int

	r io.Reader
}

// Read reads stereo L16 bytes.
func (s *Stream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// Handler consumes a Stream. The connection is closed when it returns.
type Handler interface {
	HandleStream(ctx context.Context, s *Stream) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, s *Stream) error

// HandleStream calls f.
func (f HandlerFunc) HandleStream(ctx context.Context, s *Stream) error {
	return f(ctx, s)
}
