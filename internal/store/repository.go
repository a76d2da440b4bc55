// Package store はドキュメントストアに対する汎用 CRUD の抽象を提供します。
//
// エンティティごとの差分は Repository[T] の型パラメータと、
// 更新時の $set ペイロードを組み立てる UpdateDocFunc だけで表現します。
package store

import (
	"context"
	"errors"
)

var (
	// ErrDuplicate はユニーク制約に違反した場合に返されます。
	ErrDuplicate = errors.New("duplicate key")
	// ErrInsert は挿入したドキュメントを読み戻せなかった場合に返されます。
	ErrInsert = errors.New("could not insert document")
	// ErrInvalidID は空のIDが渡された場合に返されます。
	ErrInvalidID = errors.New("invalid id")
)

// Entity はリポジトリで扱えるドキュメントが実装します。
type Entity interface {
	EntityID() string
}

// Document は更新ペイロードなどに使うフィールド名→値のマップです。
type Document map[string]any

// Filter は等価比較によるフィルタ条件です。
type Filter map[string]any

// UpdateDocFunc はエンティティから $set 用のペイロードを組み立てます。
type UpdateDocFunc[T Entity] func(model T) Document

// Repository は1コレクション分の汎用 CRUD 操作です。
type Repository[T Entity] interface {
	// Create はドキュメントを挿入し、保存された内容を返します。
	Create(ctx context.Context, model T) (T, error)
	// ReadAll は全件を返します。
	ReadAll(ctx context.Context) ([]T, error)
	// ReadByID は該当がない場合 nil, nil を返します。
	ReadByID(ctx context.Context, id string) (*T, error)
	// ReadByFilter は条件に一致するドキュメントを返します。
	ReadByFilter(ctx context.Context, filter Filter) ([]T, error)
	// UpdateByID は対象が存在した場合 true を返します。
	UpdateByID(ctx context.Context, id string, model T) (bool, error)
	// DeleteByID は削除できた場合 true を返します。
	DeleteByID(ctx context.Context, id string) (bool, error)
	// DeleteByFilter は削除件数を返します。
	DeleteByFilter(ctx context.Context, filter Filter) (int64, error)
}
