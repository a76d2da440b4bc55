package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yourusername/quiz-forge/internal/models"
)

// IndexSpec は1コレクション分のインデックス定義です。
type IndexSpec struct {
	Collection string
	Field      string
	Unique     bool
}

// Indexes はアプリケーションが前提とするインデックスの一覧です。
var Indexes = []IndexSpec{
	{Collection: models.AccountsCollection, Field: "username", Unique: true},
	{Collection: models.CredentialsCollection, Field: "account_id", Unique: true},
	{Collection: models.QuizTemplatesCollection, Field: "user_id"},
	{Collection: models.QuestionsCollection, Field: "quiz_template_id"},
}

// EnsureIndexes は Indexes を作成します。既存のインデックスはそのまま残ります。
func EnsureIndexes(ctx context.Context, db *mongo.Database) ([]string, error) {
	names := make([]string, 0, len(Indexes))
	for _, spec := range Indexes {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: spec.Field, Value: 1}},
			Options: options.Index().SetUnique(spec.Unique),
		}
		name, err := db.Collection(spec.Collection).Indexes().CreateOne(ctx, model)
		if err != nil {
			return names, fmt.Errorf("failed to create index %s.%s: %w", spec.Collection, spec.Field, err)
		}
		names = append(names, spec.Collection+"."+name)
	}
	return names, nil
}
