package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yourusername/quiz-forge/internal/config"
	"github.com/yourusername/quiz-forge/internal/models"
	"github.com/yourusername/quiz-forge/internal/store"
	"github.com/yourusername/quiz-forge/internal/store/memory"
	"github.com/yourusername/quiz-forge/internal/store/mongostore"
)

// repositories はコレクションごとのリポジトリをまとめたものです。
type repositories struct {
	accounts      store.Repository[models.Account]
	credentials   store.Repository[models.Credential]
	quizTemplates store.Repository[models.QuizTemplate]
	questions     store.Repository[models.Question]

	client *mongo.Client
}

// newMemoryRepositories はインメモリのリポジトリを作成します。
func newMemoryRepositories() *repositories {
	return &repositories{
		accounts:      memory.New(models.AccountUpdateDoc, memory.WithUnique("username")),
		credentials:   memory.New(models.CredentialUpdateDoc, memory.WithUnique("account_id")),
		quizTemplates: memory.New(models.QuizTemplateUpdateDoc),
		questions:     memory.New(models.QuestionUpdateDoc),
	}
}

// openRepositories は STORE_DRIVER に応じてリポジトリを初期化します。
func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repositories, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return newMemoryRepositories(), nil
	}

	client, err := mongostore.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to mongodb").Wrap(err)
	}
	db := client.Database(cfg.MongoDatabase)

	names, err := mongostore.EnsureIndexes(ctx, db)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, oops.Code("DB_INDEX_FAILED").With("operation", "ensure indexes").Wrap(err)
	}
	logger.Debug("indexes ensured", "indexes", names)

	return &repositories{
		accounts:      mongostore.New(db.Collection(models.AccountsCollection), models.AccountUpdateDoc),
		credentials:   mongostore.New(db.Collection(models.CredentialsCollection), models.CredentialUpdateDoc),
		quizTemplates: mongostore.New(db.Collection(models.QuizTemplatesCollection), models.QuizTemplateUpdateDoc),
		questions:     mongostore.New(db.Collection(models.QuestionsCollection), models.QuestionUpdateDoc),
		client:        client,
	}, nil
}

func (r *repositories) close(ctx context.Context) {
	if r.client == nil {
		return
	}
	_ = r.client.Disconnect(ctx)
}
