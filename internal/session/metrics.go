package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sessions_issued_total",
		Help: "Total number of sessions issued",
	})

	// 生成したIDが既に使われていた回数
	idCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_session_id_collisions_total",
		Help: "Total number of session id candidates rejected because the key already existed",
	})

	issueFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_session_issue_failures_total",
		Help: "Total number of failed session issuances by reason",
	}, []string{"reason"})

	sessionsRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sessions_revoked_total",
		Help: "Total number of sessions deleted by logout",
	})
)
