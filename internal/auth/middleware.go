package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-forge/internal/logging"
	"github.com/yourusername/quiz-forge/internal/models"
	"github.com/yourusername/quiz-forge/internal/session"
	"github.com/yourusername/quiz-forge/internal/store"
)

// ContextAccountKey は、ハンドラー間でログイン中のアカウントを共有するためのキーです。
const ContextAccountKey = "auth.account"

type accountCtxKey struct{}

// WithAccount はアカウントを context に載せます。
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, accountCtxKey{}, account)
}

// AccountFromContext は context からログイン中のアカウントを取り出します。
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	account, ok := ctx.Value(accountCtxKey{}).(*models.Account)
	return account, ok && account != nil
}

// CurrentAccount は gin.Context からログイン中のアカウントを取り出します。
func CurrentAccount(c *gin.Context) (*models.Account, bool) {
	v, ok := c.Get(ContextAccountKey)
	if !ok {
		return nil, false
	}
	account, ok := v.(*models.Account)
	return account, ok && account != nil
}

// Middleware はリクエストごとにセッションからアカウントを解決します。
type Middleware struct {
	sessions   *session.Store
	accounts   store.Repository[models.Account]
	cookieOpts sessions.Options
	logger     *slog.Logger
}

// NewMiddleware は Middleware を作成します。
func NewMiddleware(
	sessionStore *session.Store,
	accounts store.Repository[models.Account],
	cookieOpts sessions.Options,
	logger *slog.Logger,
) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{
		sessions:   sessionStore,
		accounts:   accounts,
		cookieOpts: cookieOpts,
		logger:     logger,
	}
}

// LoadAccount は Cookie のセッションを解決し、アカウントをコンテキストに載せます。
// 未ログインでもリクエストは続行します。
func (m *Middleware) LoadAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		jar := session.NewCookieJar(c, m.cookieOpts)

		accountID, ok, err := m.sessions.Resolve(ctx, jar)
		if err != nil {
			logging.Error(ctx, logging.FromContext(c, m.logger), "failed to resolve session", err)
			respondError(c, http.StatusInternalServerError, "SESSION_UNAVAILABLE", "セッションを確認できませんでした")
			return
		}
		if !ok {
			c.Next()
			return
		}

		account, err := m.accounts.ReadByID(ctx, accountID)
		if err != nil {
			logging.Error(ctx, logging.FromContext(c, m.logger), "failed to load account", err)
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "サーバー内部でエラーが発生しました")
			return
		}
		if account == nil {
			// アカウントが削除された後のセッションは未ログイン扱い
			logging.FromContext(c, m.logger).WarnContext(ctx, "session refers to missing account", "account_id", accountID)
			c.Next()
			return
		}

		c.Set(ContextAccountKey, account)
		c.Request = c.Request.WithContext(WithAccount(ctx, account))
		c.Next()
	}
}

// RequireLogin は LoadAccount の後に置き、未ログインのリクエストを 401 で拒否します。
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentAccount(c); !ok {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "ログインが必要です")
			return
		}
		c.Next()
	}
}
