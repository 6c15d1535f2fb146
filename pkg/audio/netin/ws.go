package netin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/pcmsink/pkg/audio/pcm"
)

// maxCloseReason keeps a close frame within the 125-byte control frame limit.
const maxCloseReason = 120

// WSServer is an http.Handler that accepts WebSocket PCM streams.
type WSServer struct {
	handler  Handler
	upgrader websocket.Upgrader
	busy     atomic.Bool
}

// NewWSServer creates a WSServer delivering streams to h.
func NewWSServer(h Handler) *WSServer {
	return &WSServer{
		handler: h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler. A second client is refused with 409
// while a stream is active.
func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.busy.CompareAndSwap(false, true) {
		http.Error(w, ErrBusy.Error(), http.StatusConflict)
		return
	}
	defer s.busy.Store(false)

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("netin: ws upgrade", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer ws.Close()

	hdr, err := readWSHeader(ws)
	if err != nil {
		slog.Warn("netin: ws header", "remote", r.RemoteAddr, "error", err)
		reason := err.Error()
		if len(reason) > maxCloseReason {
			reason = reason[:maxCloseReason]
		}
		if err := ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseUnsupportedData, reason)); err != nil {
			slog.Debug("netin: ws close", "remote", r.RemoteAddr, "error", err)
		}
		return
	}

	pr, pw := io.Pipe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pw.CloseWithError(pumpWS(ws, pw))
	}()

	var src io.Reader = pr
	if hdr.Channels == 1 {
		src = pcm.NewMonoToStereoReader(pr)
	}
	stream := &Stream{ID: uuid.NewString(), Remote: r.RemoteAddr, SampleRate: hdr.SampleRate, r: src}
	slog.Info("netin: ws stream",
		"stream", stream.ID,
		"remote", stream.Remote,
		"sample_rate", hdr.SampleRate,
		"channels", hdr.Channels)

	herr := s.handler.HandleStream(r.Context(), stream)
	pr.Close()
	ws.Close()
	wg.Wait()

	if herr != nil && !errors.Is(herr, context.Canceled) {
		slog.Warn("netin: ws stream failed", "stream", stream.ID, "error", herr)
		return
	}
	slog.Info("netin: ws stream done", "stream", stream.ID)
}

func readWSHeader(ws *websocket.Conn) (Header, error) {
	var hdr Header
	mt, data, err := ws.ReadMessage()
	if err != nil {
		return hdr, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}
	if mt != websocket.BinaryMessage {
		return hdr, fmt.Errorf("%w: message type %d", ErrBadHeader, mt)
	}
	if err := msgpack.Unmarshal(data, &hdr); err != nil {
		return hdr, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}
	return hdr, hdr.Validate()
}

// pumpWS copies binary messages into w until the peer closes. A normal close
// returns nil.
func pumpWS(ws *websocket.Conn, w io.Writer) error {
	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
}

// WSConn sends a PCM stream to a WSServer.
type WSConn struct {
	ws *websocket.Conn
}

// DialWS connects to url and sends the stream header.
func DialWS(ctx context.Context, url string, h Header) (*WSConn, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusConflict {
			return nil, fmt.Errorf("netin: dial %s: %w", url, ErrBusy)
		}
		return nil, fmt.Errorf("netin: dial %s: %w", url, err)
	}
	data, err := msgpack.Marshal(h)
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("netin: encode header: %w", err)
	}
	if err := ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		ws.Close()
		return nil, fmt.Errorf("netin: send header: %w", err)
	}
	return &WSConn{ws: ws}, nil
}

// Write sends p as one binary message.
func (c *WSConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close ends the stream normally and closes the connection.
func (c *WSConn) Close() error {
	err := c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if cerr := c.ws.Close(); err == nil {
		err = cerr
	}
	return err
}
