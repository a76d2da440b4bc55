// Package mongostore は MongoDB を使った store.Repository の実装です。
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yourusername/quiz-forge/internal/store"
)

// Repository は1コレクションに対する汎用 CRUD です。ドキュメントの _id は文字列で保存します。
type Repository[T store.Entity] struct {
	collection *mongo.Collection
	updateDoc  store.UpdateDocFunc[T]
}

// New はコレクションに対するリポジトリを作成します。
func New[T store.Entity](collection *mongo.Collection, updateDoc func(T) store.Document) *Repository[T] {
	return &Repository[T]{
		collection: collection,
		updateDoc:  updateDoc,
	}
}

// Create はドキュメントを挿入し、読み戻した内容を返します。
func (r *Repository[T]) Create(ctx context.Context, model T) (T, error) {
	var zero T
	if model.EntityID() == "" {
		return zero, store.ErrInvalidID
	}
	if _, err := r.collection.InsertOne(ctx, model); err != nil {
		return zero, wrapError(err)
	}
	created, err := r.ReadByID(ctx, model.EntityID())
	if err != nil {
		return zero, err
	}
	if created == nil {
		return zero, store.ErrInsert
	}
	return *created, nil
}

// ReadAll は全件を返します。
func (r *Repository[T]) ReadAll(ctx context.Context) ([]T, error) {
	return r.ReadByFilter(ctx, nil)
}

// ReadByID は該当がない場合 nil を返します。
func (r *Repository[T]) ReadByID(ctx context.Context, id string) (*T, error) {
	var model T
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&model)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, wrapError(err)
	}
	return &model, nil
}

// ReadByFilter は条件に一致するドキュメントを返します。
func (r *Repository[T]) ReadByFilter(ctx context.Context, filter store.Filter) ([]T, error) {
	cursor, err := r.collection.Find(ctx, toBSON(filter))
	if err != nil {
		return nil, wrapError(err)
	}
	results := make([]T, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, wrapError(err)
	}
	return results, nil
}

// UpdateByID は更新ペイロードを $set します。対象が存在すれば値が同じでも true です。
func (r *Repository[T]) UpdateByID(ctx context.Context, id string, model T) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M(r.updateDoc(model))},
	)
	if err != nil {
		return false, wrapError(err)
	}
	return result.MatchedCount == 1, nil
}

// DeleteByID は削除できた場合 true を返します。
func (r *Repository[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, wrapError(err)
	}
	return result.DeletedCount == 1, nil
}

// DeleteByFilter は削除件数を返します。
func (r *Repository[T]) DeleteByFilter(ctx context.Context, filter store.Filter) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, toBSON(filter))
	if err != nil {
		return 0, wrapError(err)
	}
	return result.DeletedCount, nil
}

func toBSON(filter store.Filter) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return bson.M(filter)
}

func wrapError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}

// Connect は MongoDB に接続し、疎通確認まで行います。
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}
