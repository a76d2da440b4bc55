package auth

import (
	"sync"
	"time"
)

// ログイン失敗によるロックの既定値
const (
	DefaultLoginWindow      = 15 * time.Minute
	DefaultLockDuration     = 10 * time.Minute
	DefaultMaxLoginAttempts = 5
)

// 期限切れエントリを掃除する間隔
const limiterSweepInterval = time.Minute

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// LoginLimiter はクライアントIPごとのログイン失敗回数を数え、一定回数でロックします。
type LoginLimiter struct {
	window      time.Duration
	lockFor     time.Duration
	maxAttempts int
	now         func() time.Time

	lock      sync.Mutex
	attempts  map[string]*attemptState
	lastSweep time.Time
}

// NewLoginLimiter は既定値の LoginLimiter を作成します。
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		window:      DefaultLoginWindow,
		lockFor:     DefaultLockDuration,
		maxAttempts: DefaultMaxLoginAttempts,
		now:         time.Now,
		attempts:    make(map[string]*attemptState),
	}
}

// CheckLock はロック中であれば解除までの残り時間を返します。ロックされていなければ 0 です。
func (l *LoginLimiter) CheckLock(ip string) time.Duration {
	l.lock.Lock()
	defer l.lock.Unlock()

	state, ok := l.attempts[ip]
	if !ok {
		return 0
	}
	now := l.now()
	if !now.Before(state.lockedUntil) {
		return 0
	}
	return state.lockedUntil.Sub(now)
}

// RecordFailure は失敗を記録し、ロックまでの残り回数を返します。
func (l *LoginLimiter) RecordFailure(ip string) int {
	l.lock.Lock()
	defer l.lock.Unlock()

	now := l.now()
	l.sweep(now)

	state, ok := l.attempts[ip]
	lockExpired := ok && !state.lockedUntil.IsZero() && !now.Before(state.lockedUntil)
	if !ok || lockExpired || now.Sub(state.firstAttempt) > l.window {
		state = &attemptState{firstAttempt: now}
		l.attempts[ip] = state
	}

	state.count++
	if state.count >= l.maxAttempts {
		state.lockedUntil = now.Add(l.lockFor)
		state.count = l.maxAttempts
	}

	remaining := l.maxAttempts - state.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// sweep はウィンドウもロックも過ぎたエントリを消します。呼び出し側でロックを取ってください。
func (l *LoginLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < limiterSweepInterval {
		return
	}
	l.lastSweep = now
	for ip, state := range l.attempts {
		if now.Sub(state.firstAttempt) > l.window && !now.Before(state.lockedUntil) {
			delete(l.attempts, ip)
		}
	}
}

// Reset はログイン成功時にカウンターを消します。
func (l *LoginLimiter) Reset(ip string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	delete(l.attempts, ip)
}
