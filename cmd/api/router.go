package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"

	"github.com/yourusername/quiz-forge/internal/auth"
	"github.com/yourusername/quiz-forge/internal/logging"
	"github.com/yourusername/quiz-forge/internal/schema"
	"github.com/yourusername/quiz-forge/internal/session"
)

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "quiz-forge-api",
		"version": version,
	})
}

// newRouter はミドルウェアとルーティングを設定した gin.Engine を返します。
func newRouter(a *app) (*gin.Engine, error) {
	router := gin.New()
	// 未設定なら X-Forwarded-For を無視し、ClientIP は接続元アドレスになる
	if err := router.SetTrustedProxies(a.cfg.TrustedProxies()); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "parse TRUSTED_PROXIES").Wrap(err)
	}
	router.Use(gin.Recovery(), logging.RequestLogger(a.logger))

	// CORSミドルウェアの設定（Cookie を送るので credentials を許可）
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = a.cfg.AllowedOrigins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
		logging.RequestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{logging.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	router.Use(sessions.Sessions(session.CookieName, a.cookieStore))

	// まずは誰でも叩けるヘルスチェックとメトリクスを登録
	router.GET("/health", handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cookieOpts := session.CookieOptions(a.cfg.SessionCookieSecure)
	authenticator := auth.NewAuthenticator(a.repos.accounts, a.repos.credentials, auth.NewVault(), a.logger,
		a.authenticatorOptions()...)
	authHandler := auth.NewHandler(authenticator, a.sessions, a.limiter, cookieOpts, a.logger)
	authMiddleware := auth.NewMiddleware(a.sessions, a.repos.accounts, cookieOpts, a.logger)

	router.POST("/signup", authHandler.Signup)
	router.POST("/login", authHandler.Login)
	router.POST("/logout", authHandler.Logout)

	resolver := &schema.Resolver{
		Questions:     a.repos.questions,
		QuizTemplates: a.repos.quizTemplates,
		Logger:        a.logger,
	}
	if a.jobs != nil {
		resolver.Purger = a.jobs
	}
	gqlSchema, err := schema.New(resolver)
	if err != nil {
		return nil, oops.Code("GRAPHQL_SCHEMA_INVALID").Wrap(err)
	}
	graphqlHandler := schema.Handler(gqlSchema, a.logger)

	withAccount := router.Group("", authMiddleware.LoadAccount())
	{
		withAccount.GET("/graphql", graphqlHandler)
		withAccount.POST("/graphql", graphqlHandler)

		if a.jobs != nil {
			withAccount.GET("/jobs/:id", auth.RequireLogin(), jobStatusHandler(a.jobs))
		}
	}

	return router, nil
}

func (a *app) authenticatorOptions() []auth.AuthenticatorOption {
	if a.jobs == nil {
		return nil
	}
	return []auth.AuthenticatorOption{auth.WithOrphanReaper(a.jobs)}
}
