package netin

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/google/uuid"
)

// ServeTCP accepts connections on ln and hands them to h one at a time until
// ctx is done or ln fails. ln is closed when ctx is done.
func ServeTCP(ctx context.Context, ln net.Listener, h Handler) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	slog.Info("netin: tcp listening", "addr", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("netin: accept: %w", err)
		}
		serveConn(ctx, conn, h)
	}
}

func serveConn(ctx context.Context, conn net.Conn, h Handler) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	remote := conn.RemoteAddr().String()
	rate, err := ReadTCPHeader(conn)
	if err != nil {
		slog.Warn("netin: tcp header", "remote", remote, "error", err)
		return
	}
	s := &Stream{ID: uuid.NewString(), Remote: remote, SampleRate: rate, r: conn}
	slog.Info("netin: tcp stream", "stream", s.ID, "remote", remote, "sample_rate", rate)
	if err := h.HandleStream(ctx, s); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("netin: tcp stream failed", "stream", s.ID, "error", err)
		return
	}
	slog.Info("netin: tcp stream done", "stream", s.ID)
}

// ReadTCPHeader reads and validates the 4-byte big-endian sample rate.
func ReadTCPHeader(r io.Reader) (int, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}
	rate := int(binary.BigEndian.Uint32(b[:]))
	if rate <= 0 || rate > MaxSampleRate {
		return 0, fmt.Errorf("%w: sample rate %d", ErrBadHeader, rate)
	}
	return rate, nil
}

// WriteTCPHeader writes the sample rate header.
func WriteTCPHeader(w io.Writer, rate int) error {
	if rate <= 0 || rate > MaxSampleRate {
		return fmt.Errorf("%w: sample rate %d", ErrBadHeader, rate)
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(rate))
	_, err := w.Write(b[:])
	return err
}

// SendTCP dials addr and streams stereo L16 from r at rate until r is
// exhausted or ctx is done.
func SendTCP(ctx context.Context, addr string, rate int, r io.Reader) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("netin: dial: %w", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := WriteTCPHeader(conn, rate); err != nil {
		return err
	}
	if _, err := io.Copy(conn, r); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("netin: send: %w", err)
	}
	return nil
}
