package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"energypolicy/internal/infrastructure"
)

const (
	// Time allowed to write a message to the peer
	defaultWriteWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	sendBuffer = 64
)

// ErrStreamClosed is returned by Send once the stream is closing or the peer
// has gone away
var ErrStreamClosed = errors.New("websocket: stream closed")

// Message is the envelope of every server message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Stream is a one-way message stream to a single peer. A read pump watches
// for the peer going away; a write pump delivers queued messages and pings.
type Stream struct {
	conn      Connection
	id        string
	logger    *slog.Logger
	writeWait time.Duration

	send    chan []byte
	closing chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup

	messagesSent atomic.Int64
	bytesSent    atomic.Int64
	connectedAt  time.Time
}

// NewStream wraps conn. The stream context derives from ctx and is cancelled
// when the peer disconnects or the stream is closed. A non-positive
// writeWait selects the default.
func NewStream(ctx context.Context, conn Connection, writeWait time.Duration, logger *slog.Logger) *Stream {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}

	id := uuid.New().String()
	sctx, cancel := context.WithCancel(ctx)
	return &Stream{
		conn: conn,
		id:   id,
		logger: logger.With(
			slog.String("component", "websocket.stream"),
			slog.String("stream_id", id),
			slog.String("remote_addr", conn.RemoteAddr()),
		),
		writeWait:   writeWait,
		send:        make(chan []byte, sendBuffer),
		closing:     make(chan struct{}),
		ctx:         sctx,
		cancel:      cancel,
		connectedAt: time.Now(),
	}
}

// ID identifies the stream in logs
func (s *Stream) ID() string { return s.id }

// Context is cancelled when the peer goes away or Close is called
func (s *Stream) Context() context.Context { return s.ctx }

// Start launches the read and write pumps
func (s *Stream) Start() {
	s.startOnce.Do(func() {
		s.wg.Add(2)
		go s.readPump()
		go s.writePump()
	})
}

// Send queues one message. It blocks while the queue is full and fails once
// the stream is closing or the peer has disconnected.
func (s *Stream) Send(msgType string, data interface{}) error {
	b, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msgType, err)
	}

	select {
	case <-s.closing:
		return ErrStreamClosed
	case <-s.ctx.Done():
		return ErrStreamClosed
	default:
	}

	select {
	case s.send <- b:
		return nil
	case <-s.closing:
		return ErrStreamClosed
	case <-s.ctx.Done():
		return ErrStreamClosed
	}
}

// Close flushes queued messages, sends a normal close frame and waits for
// both pumps to exit. It is safe to call more than once.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		close(s.closing)
	})
	s.Start()
	s.wg.Wait()
}

func (s *Stream) readPump() {
	defer func() {
		s.cancel()
		s.wg.Done()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.WarnContext(s.ctx, "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		// Clients have nothing to say; reads only keep the deadline and
		// close handshake moving.
	}
}

func (s *Stream) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
		s.cancel()
		s.logger.DebugContext(s.ctx, "WebSocket stream finished",
			slog.Duration("connection_duration", time.Since(s.connectedAt)),
			slog.Int64("messages_sent", s.messagesSent.Load()),
			slog.Int64("bytes_sent", s.bytesSent.Load()))
		s.wg.Done()
	}()

	for {
		select {
		case msg := <-s.send:
			if err := s.write(websocket.TextMessage, msg); err != nil {
				s.logger.DebugContext(s.ctx, "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.logger.DebugContext(s.ctx, "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		case <-s.closing:
			s.flush()
			_ = s.write(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-s.ctx.Done():
			return
		}
	}
}

// flush writes whatever is still queued
func (s *Stream) flush() {
	for {
		select {
		case msg := <-s.send:
			if err := s.write(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Stream) write(messageType int, data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
	if err := s.conn.WriteMessage(messageType, data); err != nil {
		return err
	}
	if messageType == websocket.TextMessage {
		s.messagesSent.Add(1)
		s.bytesSent.Add(int64(len(data)))
	}
	return nil
}
