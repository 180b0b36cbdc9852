package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	outboxDepth  = 256
	writeTimeout = 10 * time.Second
	readTimeout  = 60 * time.Second
	pingEvery    = 30 * time.Second
)

// Packet frames every message crossing the socket, in both directions.
type Packet struct {
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TrainerSession is one connected trainer. The write pump owns the
// socket's write side; everything else enqueues through SendChan.
type TrainerSession struct {
	AccountID   int64
	TrainerID   int64
	TrainerName string

	Conn *websocket.Conn

	SendChan chan []byte
	Done     chan struct{}
	TraceID  string
	LastSeq  uint64

	mu         sync.Mutex
	lastActive time.Time
	closeOnce  sync.Once

	logger *zap.Logger
}

// NewTrainerSession creates the session and starts its write pump.
func NewTrainerSession(accountID, trainerID int64, name string, conn *websocket.Conn, logger *zap.Logger) *TrainerSession {
	s := &TrainerSession{
		AccountID:   accountID,
		TrainerID:   trainerID,
		TrainerName: name,
		Conn:        conn,
		SendChan:    make(chan []byte, outboxDepth),
		Done:        make(chan struct{}),
		lastActive:  time.Now(),
		logger:      logger,
	}
	go s.writePump()
	return s
}

func (s *TrainerSession) write(kind int, data []byte) error {
	_ = s.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.Conn.WriteMessage(kind, data)
}

// writePump drains SendChan onto the socket and pings on an interval so
// dead connections surface quickly.
func (s *TrainerSession) writePump() {
	pinger := time.NewTicker(pingEvery)
	defer pinger.Stop()
	defer s.Conn.Close()

	for {
		select {
		case data, ok := <-s.SendChan:
			if !ok {
				return
			}
			if err := s.write(websocket.TextMessage, data); err != nil {
				s.logger.Warn("ws write error",
					zap.Int64("account_id", s.AccountID),
					zap.Error(err))
				return
			}
		case <-pinger.C:
			if s.write(websocket.PingMessage, nil) != nil {
				return
			}
		case <-s.Done:
			_ = s.write(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send encodes pkt and queues it without blocking. A full outbox or a
// closed session drops the packet.
func (s *TrainerSession) Send(pkt *Packet) {
	data, err := json.Marshal(pkt)
	if err != nil {
		return
	}
	s.enqueue(data, pkt.Type)
}

// SendRaw queues pre-encoded bytes under the same drop rules as Send.
func (s *TrainerSession) SendRaw(data []byte) {
	s.enqueue(data, "raw")
}

func (s *TrainerSession) enqueue(data []byte, pktType string) {
	if s.IsClosed() {
		return
	}
	select {
	case s.SendChan <- data:
	case <-s.Done:
	default:
		s.logger.Warn("outbox full, dropping packet",
			zap.Int64("account_id", s.AccountID),
			zap.String("type", pktType))
	}
}

// Close signals the write pump to shut down. Safe to call repeatedly
// and from any goroutine.
func (s *TrainerSession) Close() {
	s.closeOnce.Do(func() { close(s.Done) })
}

// IsClosed reports whether Close has run.
func (s *TrainerSession) IsClosed() bool {
	select {
	case <-s.Done:
		return true
	default:
		return false
	}
}

// Touch marks the session active. The read pump calls it per frame.
func (s *TrainerSession) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
}

// IdleFor returns how long the session has gone without client traffic.
func (s *TrainerSession) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActive)
}

// SendHeartbeatPong answers a client ping, echoing its clock next to
// the server's.
func (s *TrainerSession) SendHeartbeatPong(clientTS int64) {
	payload, _ := json.Marshal(map[string]int64{
		"client_ts": clientTS,
		"server_ts": time.Now().UnixMilli(),
	})
	s.Send(&Packet{Type: "pong", Payload: payload})
}

// SetReadDeadline pushes the read deadline out by one idle window.
func (s *TrainerSession) SetReadDeadline() {
	_ = s.Conn.SetReadDeadline(time.Now().Add(readTimeout))
}
