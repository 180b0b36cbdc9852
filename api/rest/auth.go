package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/nanakusa/frontier/audit"
	"github.com/nanakusa/frontier/cache"
	"github.com/nanakusa/frontier/config"
	mw "github.com/nanakusa/frontier/middleware"
	"github.com/nanakusa/frontier/model"
)

// AuthHandler handles authentication REST endpoints.
type AuthHandler struct {
	db    *gorm.DB
	cache cache.Cache
	sec   config.SecurityConfig
	audit *audit.Service
}

// NewAuthHandler creates a new AuthHandler. auditSvc may be nil.
func NewAuthHandler(db *gorm.DB, c cache.Cache, sec config.SecurityConfig, auditSvc *audit.Service) *AuthHandler {
	return &AuthHandler{db: db, cache: c, sec: sec, audit: auditSvc}
}

type registerRequest struct {
	Username    string `json:"username" binding:"required,min=2,max=32"`
	Password    string `json:"password" binding:"required,min=4,max=64"`
	TrainerName string `json:"trainer_name" binding:"omitempty,min=2,max=32"`
}

// Register handles POST /api/auth/register. The account and its
// trainer card are created together; the trainer name defaults to the
// username.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.sec.BcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	name := req.TrainerName
	if name == "" {
		name = req.Username
	}
	acc := model.Account{Username: req.Username, PasswordHash: string(hash), Status: 1}

	// One transaction, so a taken trainer name rolls the account back too.
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&acc).Error; err != nil {
			return err
		}
		return tx.Create(&model.TrainerProfile{AccountID: acc.ID, Name: name}).Error
	})
	switch {
	case err == nil:
	case isUniqueViolation(err):
		c.JSON(http.StatusConflict, gin.H{"error": "name already taken"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	h.auditLog(c, acc.ID, "auth.register", gin.H{"username": req.Username})
	c.JSON(http.StatusCreated, gin.H{"account_id": acc.ID})
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=4,max=64"`
}

// Login handles POST /api/auth/login. Unknown usernames are rejected,
// never auto-created.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var acc model.Account
	switch err := h.db.Where("username = ?", req.Username).First(&acc).Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if acc.Status == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "account banned"})
		return
	}

	token, err := mw.GenerateToken(acc.ID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}
	ctx, cancel := sessionCtx(c)
	defer cancel()
	h.openSession(ctx, token, acc.ID)

	// Last-login stamp is best-effort.
	_ = h.db.Model(&acc).Updates(map[string]interface{}{
		"last_login_at": time.Now(),
		"last_login_ip": c.ClientIP(),
	})

	h.auditLog(c, acc.ID, "auth.login", gin.H{"username": req.Username})
	c.JSON(http.StatusOK, gin.H{"token": token, "account_id": acc.ID})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	ctx, cancel := sessionCtx(c)
	defer cancel()
	h.closeSession(ctx, token)

	if accID := mw.GetAccountID(c); accID != 0 {
		h.auditLog(c, accID, "auth.logout", nil)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/auth/refresh. The presented token is
// revoked and a fresh one takes its place.
func (h *AuthHandler) Refresh(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	token, err := mw.GenerateToken(accountID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	ctx, cancel := sessionCtx(c)
	defer cancel()
	h.closeSession(ctx, bearerToken(c))
	h.openSession(ctx, token, accountID)

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// openSession writes the token's cache entry with the owning account as
// its value; the auth middleware matches token claims against it.
func (h *AuthHandler) openSession(ctx context.Context, token string, accountID int64) {
	_ = h.cache.Set(ctx, "session:"+token, strconv.FormatInt(accountID, 10), h.sec.JWTTTLH)
}

func (h *AuthHandler) closeSession(ctx context.Context, token string) {
	_ = h.cache.Del(ctx, "session:"+token)
}

// sessionCtx bounds cache calls so a stalled backend cannot hold a
// request open.
func sessionCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 2*time.Second)
}

func bearerToken(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

func (h *AuthHandler) auditLog(c *gin.Context, accountID int64, action string, req interface{}) {
	if h.audit == nil {
		return
	}
	h.audit.Log(audit.Entry{
		TraceID:   mw.GetTraceID(c),
		AccountID: &accountID,
		Action:    action,
		Request:   req,
		IP:        c.ClientIP(),
	})
}

// isUniqueViolation matches the duplicate-key wording of the supported
// database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"unique", "duplicate", "already exists"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
