package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nanakusa/frontier/cache"
)

// announceChannel carries facility announcements between server
// instances.
const announceChannel = "frontier:announce"

// Manager maintains the registry of all connected TrainerSessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*TrainerSession // trainerID → session
	logger   *zap.Logger

	ps       cache.PubSub // nil until AttachPubSub
	psCancel func()
}

// NewManager creates a new Manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[int64]*TrainerSession),
		logger:   logger,
	}
}

// Register adds a session. If a previous session exists for the same
// trainer, it is closed first (handles duplicate login / reconnect).
func (m *Manager) Register(s *TrainerSession) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.sessions[s.TrainerID]; ok {
		old.Close()
		m.logger.Info("duplicate session displaced",
			zap.Int64("trainer_id", s.TrainerID))
	}
	m.sessions[s.TrainerID] = s
	m.logger.Info("trainer session registered",
		zap.Int64("trainer_id", s.TrainerID),
		zap.Int64("account_id", s.AccountID))
}

// Unregister removes the session for a trainer.
func (m *Manager) Unregister(trainerID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, trainerID)
	m.logger.Info("trainer session unregistered", zap.Int64("trainer_id", trainerID))
}

// Get returns the session for a trainer, or nil if not found.
func (m *Manager) Get(trainerID int64) *TrainerSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[trainerID]
}

// IsOnline reports whether a trainer is currently connected.
func (m *Manager) IsOnline(trainerID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[trainerID]
	return ok
}

// Count returns the number of currently connected sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// All returns a snapshot slice of all current sessions.
func (m *Manager) All() []*TrainerSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*TrainerSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// broadcast encodes pkt once and hands the bytes to every session.
// Slow clients drop the packet rather than stall the loop.
func (m *Manager) broadcast(pkt *Packet) {
	data, err := json.Marshal(pkt)
	if err != nil {
		m.logger.Error("broadcast packet marshal failed", zap.Error(err))
		return
	}
	for _, s := range m.All() {
		s.SendRaw(data)
	}
}

// AttachPubSub mirrors announcements across server instances: Announce
// publishes to the shared channel, and the subscription loop delivers
// everything on it, this instance's included, to the local sessions.
func (m *Manager) AttachPubSub(ctx context.Context, ps cache.PubSub) error {
	ch, cancel, err := ps.Subscribe(ctx, announceChannel)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.ps = ps
	m.psCancel = cancel
	m.mu.Unlock()

	go func() {
		for msg := range ch {
			m.announceLocal(msg.Payload)
		}
	}()
	return nil
}

// Announce broadcasts a facility announcement, such as a streak milestone.
func (m *Manager) Announce(message string) {
	m.mu.RLock()
	ps := m.ps
	m.mu.RUnlock()
	if ps != nil {
		if err := ps.Publish(context.Background(), announceChannel, message); err == nil {
			return
		}
		m.logger.Warn("announce publish failed, delivering locally only")
	}
	m.announceLocal(message)
}

func (m *Manager) announceLocal(message string) {
	payload, _ := json.Marshal(map[string]string{"message": message})
	m.broadcast(&Packet{Type: "announce", Payload: payload})
}

// SweepIdle closes sessions with no client traffic for longer than
// maxIdle and reports how many it closed. Disconnect cleanup happens in
// the read pump once the connection drops.
func (m *Manager) SweepIdle(maxIdle time.Duration) int {
	sessions := m.All()
	closed := 0
	for _, s := range sessions {
		if s.IdleFor() > maxIdle && !s.IsClosed() {
			s.Close()
			closed++
			m.logger.Info("stale session swept",
				zap.Int64("trainer_id", s.TrainerID),
				zap.Duration("idle", s.IdleFor()))
		}
	}
	return closed
}

// CloseAll gracefully closes all connected sessions.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	if m.psCancel != nil {
		m.psCancel()
		m.psCancel = nil
	}
	m.mu.Unlock()

	sessions := m.All()
	m.logger.Info("closing all sessions", zap.Int("count", len(sessions)))
	for _, s := range sessions {
		s.Close()
	}

	// Wait for the read pumps to unregister (with timeout).
	maxWait := 10 * time.Second
	start := time.Now()
	for time.Since(start) < maxWait {
		if m.Count() == 0 {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
}
