package session

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// CookieName はセッションCookieの名前です。
const CookieName = "quiz_session"

// Cookie 内でセッションキーを保持するフィールド名
const cookieValueKey = "sid"

// CookieJar はセッションキーを Cookie に書き込み・読み出しします。
type CookieJar interface {
	// SessionID は Cookie に保存されたセッションキーを返します。
	SessionID() (string, bool)
	// Bind は既存の値を捨てて新しいセッションキーを書き込みます。
	Bind(id string) error
	// Clear は Cookie を削除します。
	Clear() error
}

// CookieOptions はセッションCookieの属性を返します。
// 値は Cookie ストア（gorilla/securecookie）で署名・暗号化されます。
func CookieOptions(secure bool) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   TTLSeconds(),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

type ginCookieJar struct {
	session sessions.Session
	opts    sessions.Options
}

// NewCookieJar は gin-contrib/sessions のセッションを CookieJar として扱います。
// sessions.Sessions(CookieName, store) ミドルウェアが前段に必要です。
func NewCookieJar(c *gin.Context, opts sessions.Options) CookieJar {
	return &ginCookieJar{
		session: sessions.Default(c),
		opts:    opts,
	}
}

func (j *ginCookieJar) SessionID() (string, bool) {
	id, ok := j.session.Get(cookieValueKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func (j *ginCookieJar) Bind(id string) error {
	j.session.Clear()
	j.session.Options(j.opts)
	j.session.Set(cookieValueKey, id)
	return j.session.Save()
}

func (j *ginCookieJar) Clear() error {
	j.session.Clear()
	opts := j.opts
	opts.MaxAge = -1
	j.session.Options(opts)
	return j.session.Save()
}
