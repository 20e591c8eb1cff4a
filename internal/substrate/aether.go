package substrate

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// AetherLink is the reference runtime an aether { } block's
// substrate.enter/aether.sync/substrate.exit sequence targets: one
// websocket connection per distributed substrate session, grounded on
// the teacher's internal/network/websocket.go WebSocketConn (trimmed
// to the synchronous request/ack shape aether.sync needs — no
// background reader goroutine, since a single Sync call owns the
// connection for its duration).
type AetherLink struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// DialAether opens a client-side aether link to url, the runtime
// counterpart of substrate.enter(AETHER).
func DialAether(ctx context.Context, url string) (*AetherLink, error) {
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("substrate: aether dial: %w", err)
	}
	return &AetherLink{conn: conn}, nil
}

// Sync sends payload and waits for the peer's acknowledgement,
// modeling the round-trip exchange aether.sync describes (§3.4): a
// distributed substrate op doesn't complete until its peer observes
// it.
func (l *AetherLink) Sync(ctx context.Context, payload []byte) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, fmt.Errorf("substrate: aether.sync on closed link")
	}
	if err := l.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		return nil, fmt.Errorf("substrate: aether.sync write: %w", err)
	}
	_, ack, err := l.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("substrate: aether.sync read: %w", err)
	}
	return ack, nil
}

// Close ends the aether link — the runtime counterpart of
// substrate.exit(AETHER).
func (l *AetherLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return l.conn.Close()
}

// EchoAetherServer is a minimal in-process aether peer for tests: it
// upgrades every connection and echoes each message back as its
// acknowledgement, standing in for a real distributed peer.
type EchoAetherServer struct {
	upgrader websocket.Upgrader
}

// NewEchoAetherServer returns an http.Handler suitable for
// httptest.NewServer, grounded on the teacher's WebSocketListen
// upgrade-and-echo handler shape.
func NewEchoAetherServer() http.Handler {
	s := &EchoAetherServer{upgrader: websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}}
	return http.HandlerFunc(s.serve)
}

func (s *EchoAetherServer) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := conn.WriteMessage(mt, msg); err != nil {
			return
		}
	}
}
