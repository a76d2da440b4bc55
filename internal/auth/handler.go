package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-forge/internal/logging"
	"github.com/yourusername/quiz-forge/internal/session"
)

// Handler は /signup, /login, /logout のハンドラーです。
type Handler struct {
	authenticator *Authenticator
	sessions      *session.Store
	limiter       *LoginLimiter
	cookieOpts    sessions.Options
	logger        *slog.Logger
}

// NewHandler は Handler を作成します。limiter が nil の場合は既定値で作成します。
func NewHandler(
	authenticator *Authenticator,
	sessionStore *session.Store,
	limiter *LoginLimiter,
	cookieOpts sessions.Options,
	logger *slog.Logger,
) *Handler {
	if limiter == nil {
		limiter = NewLoginLimiter()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		authenticator: authenticator,
		sessions:      sessionStore,
		limiter:       limiter,
		cookieOpts:    cookieOpts,
		logger:        logger,
	}
}

// Signup は POST /signup のハンドラーです。
func (h *Handler) Signup(c *gin.Context) {
	creds, ok := h.readCredentials(c)
	if !ok {
		signups.WithLabelValues("rejected").Inc()
		return
	}

	account, err := h.authenticator.Signup(c.Request.Context(), creds.Username, creds.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateUsername):
			signups.WithLabelValues("rejected").Inc()
			respondError(c, http.StatusConflict, "USERNAME_TAKEN", "このユーザー名は既に使われています")
		case errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrEmptyPassword):
			signups.WithLabelValues("rejected").Inc()
			respondError(c, http.StatusBadRequest, "INVALID_INPUT", "ユーザー名とパスワードを入力してください")
		default:
			signups.WithLabelValues("error").Inc()
			h.internalError(c, "signup failed", err)
		}
		return
	}

	if !h.issueSession(c, account.ID) {
		signups.WithLabelValues("error").Inc()
		return
	}
	signups.WithLabelValues("success").Inc()
	c.Status(http.StatusNoContent)
}

// Login は POST /login のハンドラーです。
func (h *Handler) Login(c *gin.Context) {
	creds, ok := h.readCredentials(c)
	if !ok {
		loginAttempts.WithLabelValues("rejected").Inc()
		return
	}

	ip := c.ClientIP()
	if retryAfter := h.limiter.CheckLock(ip); retryAfter > 0 {
		loginAttempts.WithLabelValues("locked").Inc()
		// Retry-After は秒数で返す
		c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds())+1, 10))
		respondError(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "一定時間後に再度お試しください")
		return
	}

	account, err := h.authenticator.Login(c.Request.Context(), creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrAuthenticationFailed) {
			loginAttempts.WithLabelValues("rejected").Inc()
			remaining := h.limiter.RecordFailure(ip)
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":              "UNAUTHORIZED",
				"message":           "ユーザー名またはパスワードが正しくありません",
				"remainingAttempts": remaining,
			})
			return
		}
		loginAttempts.WithLabelValues("error").Inc()
		h.internalError(c, "login failed", err)
		return
	}

	h.limiter.Reset(ip)
	if !h.issueSession(c, account.ID) {
		loginAttempts.WithLabelValues("error").Inc()
		return
	}
	loginAttempts.WithLabelValues("success").Inc()
	c.Status(http.StatusNoContent)
}

// Logout は POST /logout のハンドラーです。セッションの有無にかかわらず 204 を返します。
func (h *Handler) Logout(c *gin.Context) {
	jar := session.NewCookieJar(c, h.cookieOpts)
	if _, err := h.sessions.Revoke(c.Request.Context(), jar); err != nil {
		logging.Error(c.Request.Context(), logging.FromContext(c, h.logger), "logout failed", err)
	}
	c.Status(http.StatusNoContent)
}

// readCredentials は Basic 認証ヘッダーを読み取ります。失敗時はレスポンスを書いて false を返します。
func (h *Handler) readCredentials(c *gin.Context) (*BasicCredentials, bool) {
	creds, err := DecodeBasicAuth(c.GetHeader("Authorization"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_TOKEN", "Authorization ヘッダーの形式が正しくありません")
		return nil, false
	}
	if creds == nil {
		respondError(c, http.StatusBadRequest, "INVALID_AUTHORIZATION_HEADER", "Basic 認証ヘッダーを送ってください")
		return nil, false
	}
	return creds, true
}

func (h *Handler) issueSession(c *gin.Context, accountID string) bool {
	jar := session.NewCookieJar(c, h.cookieOpts)
	if _, err := h.sessions.Issue(c.Request.Context(), accountID, jar); err != nil {
		h.internalError(c, "failed to issue session", err)
		return false
	}
	return true
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	logging.Error(c.Request.Context(), logging.FromContext(c, h.logger), msg, err)
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "サーバー内部でエラーが発生しました")
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}
