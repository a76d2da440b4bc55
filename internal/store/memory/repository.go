// Package memory は store.Repository のプロセス内実装です。
// 開発時の STORE_DRIVER=memory とテストで使います。
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/yourusername/quiz-forge/internal/store"
)

// Repository はドキュメントを BSON 形式で保持するインメモリリポジトリです。
// フィルタと $set はいずれも BSON 化したフィールドに対して評価されます。
type Repository[T store.Entity] struct {
	mu        sync.RWMutex
	docs      map[string]bson.M
	order     []string
	updateDoc store.UpdateDocFunc[T]
	unique    []string
}

// Option は Repository の設定です。
type Option func(*options)

type options struct {
	unique []string
}

// WithUnique はフィールドにユニーク制約を設定します（Mongo のユニークインデックス相当）。
func WithUnique(fields ...string) Option {
	return func(o *options) {
		o.unique = append(o.unique, fields...)
	}
}

// New は空のリポジトリを作成します。
func New[T store.Entity](updateDoc func(T) store.Document, opts ...Option) *Repository[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[T]{
		docs:      make(map[string]bson.M),
		updateDoc: updateDoc,
		unique:    o.unique,
	}
}

// Create はドキュメントを保存します。
func (r *Repository[T]) Create(ctx context.Context, model T) (T, error) {
	var zero T
	id := model.EntityID()
	if id == "" {
		return zero, store.ErrInvalidID
	}
	doc, err := toDocument(model)
	if err != nil {
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[id]; exists {
		return zero, fmt.Errorf("%w: _id %s", store.ErrDuplicate, id)
	}
	if err := r.checkUnique(id, doc); err != nil {
		return zero, err
	}
	r.docs[id] = doc
	r.order = append(r.order, id)

	return fromDocument[T](doc)
}

// ReadAll は挿入順で全件を返します。
func (r *Repository[T]) ReadAll(ctx context.Context) ([]T, error) {
	return r.ReadByFilter(ctx, nil)
}

// ReadByID は該当がない場合 nil を返します。
func (r *Repository[T]) ReadByID(ctx context.Context, id string) (*T, error) {
	r.mu.RLock()
	doc, ok := r.docs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	model, err := fromDocument[T](doc)
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// ReadByFilter は条件に一致するドキュメントを返します。
func (r *Repository[T]) ReadByFilter(ctx context.Context, filter store.Filter) ([]T, error) {
	want, err := normalize(filter)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]T, 0)
	for _, id := range r.order {
		doc := r.docs[id]
		if !matches(doc, want) {
			continue
		}
		model, err := fromDocument[T](doc)
		if err != nil {
			return nil, err
		}
		results = append(results, model)
	}
	return results, nil
}

// UpdateByID は更新ペイロードのフィールドだけを上書きします。
func (r *Repository[T]) UpdateByID(ctx context.Context, id string, model T) (bool, error) {
	set, err := normalize(store.Filter(r.updateDoc(model)))
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.docs[id]
	if !ok {
		return false, nil
	}
	updated := make(bson.M, len(current))
	for k, v := range current {
		updated[k] = v
	}
	for k, v := range set {
		updated[k] = v
	}
	if err := r.checkUnique(id, updated); err != nil {
		return false, err
	}
	r.docs[id] = updated
	return true, nil
}

// DeleteByID は削除できた場合 true を返します。
func (r *Repository[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return false, nil
	}
	r.remove(id)
	return true, nil
}

// DeleteByFilter は一致したドキュメントをすべて削除します。
func (r *Repository[T]) DeleteByFilter(ctx context.Context, filter store.Filter) (int64, error) {
	want, err := normalize(filter)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for _, id := range r.order {
		if matches(r.docs[id], want) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		r.remove(id)
	}
	return int64(len(ids)), nil
}

func (r *Repository[T]) remove(id string) {
	delete(r.docs, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Repository[T]) checkUnique(id string, doc bson.M) error {
	for _, field := range r.unique {
		value, ok := doc[field]
		if !ok {
			continue
		}
		for otherID, other := range r.docs {
			if otherID != id && reflect.DeepEqual(other[field], value) {
				return fmt.Errorf("%w: %s", store.ErrDuplicate, field)
			}
		}
	}
	return nil
}

func matches(doc, want bson.M) bool {
	for k, v := range want {
		if !reflect.DeepEqual(doc[k], v) {
			return false
		}
	}
	return true
}

func toDocument(v any) (bson.M, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument[T any](doc bson.M) (T, error) {
	var model T
	data, err := bson.Marshal(doc)
	if err != nil {
		return model, err
	}
	if err := bson.Unmarshal(data, &model); err != nil {
		return model, err
	}
	return model, nil
}

// normalize はフィルタを保存済みドキュメントと同じ BSON 型に揃えます。
func normalize(filter store.Filter) (bson.M, error) {
	if len(filter) == 0 {
		return bson.M{}, nil
	}
	return toDocument(bson.M(filter))
}
