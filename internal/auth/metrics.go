package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 結果ラベル: success, rejected, locked, error
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_auth_login_attempts_total",
		Help: "Total number of login attempts by result",
	}, []string{"result"})

	signups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_auth_signups_total",
		Help: "Total number of signup attempts by result",
	}, []string{"result"})
)
