package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nanakusa/frontier/game/session"
)

// HandlerFunc processes one decoded client message.
type HandlerFunc func(ctx context.Context, s *session.TrainerSession, payload json.RawMessage) error

// Router maps message types to handlers and guards the per-session
// sequence counter.
type Router struct {
	byType map[string]HandlerFunc
	log    *zap.Logger
}

func NewRouter(log *zap.Logger) *Router {
	return &Router{byType: make(map[string]HandlerFunc), log: log}
}

// On registers the handler for one message type.
func (r *Router) On(msgType string, fn HandlerFunc) {
	r.byType[msgType] = fn
}

// Dispatch decodes one frame and runs its handler. Malformed frames,
// replayed sequence numbers, and unknown types are dropped.
func (r *Router) Dispatch(s *session.TrainerSession, frame []byte) {
	var pkt session.Packet
	if err := json.Unmarshal(frame, &pkt); err != nil {
		r.log.Warn("undecodable frame",
			zap.Int64("account_id", s.AccountID), zap.Error(err))
		return
	}
	if !acceptSeq(s, pkt.Seq) {
		r.log.Warn("stale frame",
			zap.Int64("account_id", s.AccountID),
			zap.Uint64("seq", pkt.Seq),
			zap.Uint64("last_seq", s.LastSeq))
		return
	}

	// Each dispatch gets a fresh trace ID, visible to the handler via
	// its context and to later log lines via the session.
	s.TraceID = uuid.NewString()
	ctx := withTraceID(context.Background(), s.TraceID)

	fn := r.byType[pkt.Type]
	if fn == nil {
		r.log.Debug("no handler for type",
			zap.String("type", pkt.Type), zap.Int64("account_id", s.AccountID))
		return
	}
	if err := fn(ctx, s, pkt.Payload); err != nil {
		r.log.Error("handler failed",
			zap.String("type", pkt.Type),
			zap.Int64("account_id", s.AccountID),
			zap.String("trace_id", s.TraceID),
			zap.Error(err))
	}
}

// acceptSeq enforces a strictly increasing sequence number per session,
// bumping it on success. Zero opts out of tracking for clients that do
// not number their frames.
func acceptSeq(s *session.TrainerSession, seq uint64) bool {
	if seq == 0 {
		return true
	}
	if seq <= s.LastSeq {
		return false
	}
	s.LastSeq = seq
	return true
}

type traceIDKey struct{}

func withTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// TraceIDFromCtx returns the dispatch trace ID, or "" when absent.
func TraceIDFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(traceIDKey{}).(string)
	return v
}
