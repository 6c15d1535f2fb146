package netin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

type result struct {
	rate int
	data []byte
	err  error
}

// collect returns a Handler that reads each stream to the end.
func collect(out chan<- result) Handler {
	return HandlerFunc(func(ctx context.Context, s *Stream) error {
		data, err := io.ReadAll(s)
		out <- result{rate: s.SampleRate, data: data, err: err}
		return err
	})
}

func wait(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no stream received")
	}
	return result{}
}

func TestTCPHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTCPHeader(&buf, 44100); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0, 0, 0xac, 0x44}) {
		t.Errorf("header = %x", buf.Bytes())
	}
	rate, err := ReadTCPHeader(&buf)
	if err != nil || rate != 44100 {
		t.Errorf("ReadTCPHeader = %d, %v", rate, err)
	}

	for _, raw := range [][]byte{{0, 0, 0, 0}, {0xff, 0xff, 0xff, 0xff}, {0, 1}} {
		if _, err := ReadTCPHeader(bytes.NewReader(raw)); !errors.Is(err, ErrBadHeader) {
			t.Errorf("ReadTCPHeader(%x) = %v, want ErrBadHeader", raw, err)
		}
	}
	if err := WriteTCPHeader(io.Discard, 0); !errors.Is(err, ErrBadHeader) {
		t.Errorf("WriteTCPHeader(0) = %v", err)
	}
}

func TestServeTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan result, 2)
	served := make(chan error, 1)
	go func() { served <- ServeTCP(ctx, ln, collect(got)) }()

	payload := bytes.Repeat([]byte{1, 2, 3, 4}, 1000)
	for _, rate := range []int{8000, 48000} {
		if err := SendTCP(ctx, ln.Addr().String(), rate, bytes.NewReader(payload)); err != nil {
			t.Fatalf("SendTCP: %v", err)
		}
		r := wait(t, got)
		if r.err != nil || r.rate != rate || !bytes.Equal(r.data, payload) {
			t.Fatalf("stream = rate %d, %d bytes, err %v", r.rate, len(r.data), r.err)
		}
	}

	// A bad header is dropped without reaching the handler.
	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	conn.Write([]byte{0, 0, 0, 0, 1, 2, 3, 4})
	conn.Close()

	if err := SendTCP(ctx, ln.Addr().String(), 16000, bytes.NewReader(payload[:8])); err != nil {
		t.Fatal(err)
	}
	if r := wait(t, got); r.rate != 16000 {
		t.Errorf("rate = %d, want the stream after the bad one", r.rate)
	}

	cancel()
	select {
	case err := <-served:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("ServeTCP = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ServeTCP did not stop")
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSStereo(t *testing.T) {
	got := make(chan result, 1)
	srv := httptest.NewServer(NewWSServer(collect(got)))
	defer srv.Close()

	c, err := DialWS(context.Background(), wsURL(srv), Header{SampleRate: 44100, Channels: 2})
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	var want []byte
	for i := range 10 {
		msg := bytes.Repeat([]byte{byte(i), 0, byte(i), 1}, 50)
		want = append(want, msg...)
		if _, err := c.Write(msg); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	r := wait(t, got)
	if r.err != nil || r.rate != 44100 {
		t.Fatalf("rate = %d err = %v", r.rate, r.err)
	}
	if !bytes.Equal(r.data, want) {
		t.Errorf("received %d bytes, want %d", len(r.data), len(want))
	}
}

func TestWSMonoUpmix(t *testing.T) {
	got := make(chan result, 1)
	srv := httptest.NewServer(NewWSServer(collect(got)))
	defer srv.Close()

	c, err := DialWS(context.Background(), wsURL(srv), Header{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatal(err)
	}
	// A sample split across messages is reassembled.
	for _, msg := range [][]byte{{1, 2, 3}, {4}, {5, 6}} {
		if _, err := c.Write(msg); err != nil {
			t.Fatal(err)
		}
	}
	c.Close()

	r := wait(t, got)
	want := []byte{1, 2, 1, 2, 3, 4, 3, 4, 5, 6, 5, 6}
	if r.err != nil || !bytes.Equal(r.data, want) {
		t.Errorf("got %v (%v), want %v", r.data, r.err, want)
	}
}

func TestWSBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	srv := httptest.NewServer(NewWSServer(HandlerFunc(func(ctx context.Context, s *Stream) error {
		close(started)
		<-release
		return nil
	})))
	defer srv.Close()
	defer close(release)

	c, err := DialWS(context.Background(), wsURL(srv), Header{SampleRate: 8000, Channels: 2})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	<-started

	if _, err := DialWS(context.Background(), wsURL(srv), Header{SampleRate: 8000, Channels: 2}); !errors.Is(err, ErrBusy) {
		t.Errorf("second DialWS = %v, want ErrBusy", err)
	}
}

func TestWSBadHeader(t *testing.T) {
	srv := httptest.NewServer(NewWSServer(HandlerFunc(func(ctx context.Context, s *Stream) error {
		t.Error("handler called for bad header")
		return nil
	})))
	defer srv.Close()

	tests := []struct {
		name string
		mt   int
		data func() []byte
	}{
		{"text message", websocket.TextMessage, func() []byte { return []byte("hello") }},
		{"not msgpack", websocket.BinaryMessage, func() []byte { return []byte{0xc1} }},
		{"bad channels", websocket.BinaryMessage, func() []byte {
			b, _ := msgpack.Marshal(Header{SampleRate: 8000, Channels: 6})
			return b
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
			if err != nil {
				t.Fatal(err)
			}
			defer ws.Close()
			if err := ws.WriteMessage(tt.mt, tt.data()); err != nil {
				t.Fatal(err)
			}
			ws.SetReadDeadline(time.Now().Add(5 * time.Second))
			_, _, err = ws.ReadMessage()
			if !websocket.IsCloseError(err, websocket.CloseUnsupportedData) {
				t.Errorf("ReadMessage = %v, want close 1003", err)
			}
		})
	}
}

func TestHeaderValidate(t *testing.T) {
	tests := []struct {
		h  Header
		ok bool
	}{
		{Header{SampleRate: 44100, Channels: 2}, true},
		{Header{SampleRate: 8000, Channels: 1}, true},
		{Header{SampleRate: 0, Channels: 2}, false},
		{Header{SampleRate: MaxSampleRate + 1, Channels: 2}, false},
		{Header{SampleRate: 44100, Channels: 0}, false},
		{Header{SampleRate: 44100, Channels: 3}, false},
	}
	for _, tt := range tests {
		err := tt.h.Validate()
		if tt.ok != (err == nil) {
			t.Errorf("%+v.Validate() = %v", tt.h, err)
		}
		if err != nil && !errors.Is(err, ErrBadHeader) {
			t.Errorf("%+v.Validate() = %v, want ErrBadHeader", tt.h, err)
		}
	}
}
