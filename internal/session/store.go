// Package session はセッションの発行・解決・破棄を提供します。
//
// セッションは共有キャッシュ上の "session:xxxxxxxx" → アカウントID のエントリそのもので、
// 有効期限は発行から15日固定です（延長はしません）。
// セッションキーは署名・暗号化された HttpOnly / Secure Cookie でクライアントに渡します。
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/samber/oops"
)

// セッションの既定値
const (
	DefaultTTL         = 15 * 24 * time.Hour
	DefaultMaxAttempts = 100
)

var (
	// ErrSessionBuild は空きセッションIDを規定回数内に確保できなかった場合に返されます。
	ErrSessionBuild = errors.New("unable to build session")
	// ErrCache はキャッシュとの通信に失敗した場合に返されます。
	ErrCache = errors.New("session cache unavailable")
)

// TTLSeconds は Cookie の MaxAge に使う秒数を返します。
func TTLSeconds() int {
	return int(DefaultTTL.Seconds())
}

// Store はセッションの発行・解決・破棄を行います。
type Store struct {
	cache       Cache
	ttl         time.Duration
	maxAttempts int
	logger      *slog.Logger
	newRand     func() (*rand.Rand, error)
}

// NewStore は Store を作成します。
func NewStore(cache Cache, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cache:       cache,
		ttl:         DefaultTTL,
		maxAttempts: DefaultMaxAttempts,
		logger:      logger,
		newRand:     newRand,
	}
}

// Issue はアカウントIDに対する新しいセッションを発行し、Cookie に書き込みます。
// 発行したセッションキーを返しますが、クライアントには Cookie 経由でのみ渡します。
func (s *Store) Issue(ctx context.Context, accountID string, jar CookieJar) (string, error) {
	if accountID == "" {
		return "", oops.Code("SESSION_INVALID_ACCOUNT").Errorf("account id cannot be empty")
	}

	rng, err := s.newRand()
	if err != nil {
		issueFailures.WithLabelValues("rand").Inc()
		return "", oops.Code("SESSION_RAND_FAILED").Wrap(err)
	}

	var id string
	for attempt := 1; ; attempt++ {
		candidate := generateID(rng)
		stored, err := s.cache.SetIfAbsent(ctx, candidate, accountID, s.ttl)
		if err != nil {
			issueFailures.WithLabelValues("cache").Inc()
			return "", oops.Code("SESSION_CACHE_UNAVAILABLE").
				With("operation", "set if absent").
				Wrap(fmt.Errorf("%w: %w", ErrCache, err))
		}
		if stored {
			id = candidate
			break
		}

		idCollisions.Inc()
		if attempt >= s.maxAttempts {
			issueFailures.WithLabelValues("exhausted").Inc()
			s.logger.ErrorContext(ctx, "cannot find free session id", "attempts", attempt)
			return "", oops.Code("SESSION_BUILD_FAILED").
				With("attempts", attempt).
				Wrap(ErrSessionBuild)
		}
	}

	if err := jar.Bind(id); err != nil {
		issueFailures.WithLabelValues("cookie").Inc()
		// Cookie を返せないセッションは使われないので消しておく
		if _, delErr := s.cache.Delete(ctx, id); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete unbound session", "error", delErr)
		}
		return "", oops.Code("SESSION_COOKIE_FAILED").Wrap(err)
	}

	sessionsIssued.Inc()
	return id, nil
}

// Resolve は Cookie のセッションキーからアカウントIDを引きます。
// Cookie がない、またはキャッシュにエントリがない場合は ok=false でエラーにはしません。
func (s *Store) Resolve(ctx context.Context, jar CookieJar) (string, bool, error) {
	id, ok := jar.SessionID()
	if !ok {
		return "", false, nil
	}

	accountID, err := s.cache.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return "", false, nil
		}
		return "", false, oops.Code("SESSION_CACHE_UNAVAILABLE").
			With("operation", "get").
			Wrap(fmt.Errorf("%w: %w", ErrCache, err))
	}
	return accountID, true, nil
}

// Revoke は Cookie を削除し、対応するキャッシュエントリを消します。
// Cookie がなければ何もせず 0 を返します。
func (s *Store) Revoke(ctx context.Context, jar CookieJar) (int64, error) {
	id, ok := jar.SessionID()
	if !ok {
		return 0, nil
	}

	if err := jar.Clear(); err != nil {
		return 0, oops.Code("SESSION_COOKIE_FAILED").Wrap(err)
	}

	deleted, err := s.cache.Delete(ctx, id)
	if err != nil {
		return 0, oops.Code("SESSION_CACHE_UNAVAILABLE").
			With("operation", "delete").
			Wrap(fmt.Errorf("%w: %w", ErrCache, err))
	}
	if deleted > 0 {
		sessionsRevoked.Add(float64(deleted))
	}
	return deleted, nil
}
