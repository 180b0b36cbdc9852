package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nanakusa/frontier/cache"
	"github.com/nanakusa/frontier/config"
	"github.com/nanakusa/frontier/game/session"
	mw "github.com/nanakusa/frontier/middleware"
	"github.com/nanakusa/frontier/model"
)

// Handler is the Gin handler for GET /ws.
type Handler struct {
	db       *gorm.DB
	cache    cache.Cache
	sec      config.SecurityConfig
	sessions *session.Manager
	runner   *session.BattleRunner
	router   *Router
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket Handler.
func NewHandler(
	db *gorm.DB,
	c cache.Cache,
	sec config.SecurityConfig,
	sessions *session.Manager,
	runner *session.BattleRunner,
	router *Router,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		db:       db,
		cache:    c,
		sec:      sec,
		sessions: sessions,
		runner:   runner,
		router:   router,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(sec.AllowedOrigins),
		},
	}
}

// originChecker accepts any origin when the allow list is empty, which
// suits local development only.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, o := range allowed {
			if o == origin {
				return true
			}
		}
		return false
	}
}

// ServeWS handles GET /ws?token=<jwt>.
func (h *Handler) ServeWS(c *gin.Context) {
	claims, ok := h.authorize(c)
	if !ok {
		return
	}

	// Registration creates the trainer card, so a missing row means the
	// token predates this database.
	var prof model.TrainerProfile
	if err := h.db.Where("account_id = ?", claims.AccountID).First(&prof).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "no trainer profile"})
			return
		}
		h.logger.Error("profile lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", zap.Error(err))
		return
	}

	sess := session.NewTrainerSession(claims.AccountID, prof.ID, prof.Name, conn, h.logger)
	h.sessions.Register(sess)
	h.logger.Info("trainer connected",
		zap.Int64("account_id", sess.AccountID),
		zap.Int64("trainer_id", sess.TrainerID))

	// Blocks until the connection closes.
	h.readPump(sess)
}

// authorize checks the token query parameter against its signature and
// the session cache. On failure the 401 has already been written.
func (h *Handler) authorize(c *gin.Context) (*mw.Claims, bool) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return nil, false
	}
	claims, err := mw.ParseToken(tokenStr, h.sec.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if ok, err := h.cache.Exists(ctx, "session:"+tokenStr); err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return nil, false
	}
	return claims, true
}

// readPump reads frames off the socket and feeds them to the router.
func (h *Handler) readPump(s *session.TrainerSession) {
	defer h.handleDisconnect(s)

	s.SetReadDeadline()
	s.Conn.SetPongHandler(func(string) error {
		s.SetReadDeadline()
		return nil
	})

	for {
		_, raw, err := s.Conn.ReadMessage()
		if err != nil {
			if abnormalClose(err) {
				h.logger.Warn("ws read ended abnormally",
					zap.Int64("account_id", s.AccountID),
					zap.Error(err))
			}
			return
		}
		// Any inbound frame counts as liveness.
		s.SetReadDeadline()
		s.Touch()
		h.router.Dispatch(s, raw)
	}
}

// abnormalClose reports whether err is anything but a clean client
// goodbye.
func abnormalClose(err error) bool {
	return websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseNormalClosure,
		websocket.CloseNoStatusReceived)
}

// handleDisconnect cleans up the session after the connection closes.
// A live battle is forfeited; the runner files its report.
func (h *Handler) handleDisconnect(s *session.TrainerSession) {
	s.Close()

	if h.runner != nil {
		h.runner.Abort(s.TrainerID)
	}
	h.sessions.Unregister(s.TrainerID)

	h.logger.Info("trainer disconnected",
		zap.Int64("account_id", s.AccountID),
		zap.Int64("trainer_id", s.TrainerID))
}
