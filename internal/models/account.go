// Package models はドキュメントストアに保存するエンティティを定義します。
package models

import "github.com/yourusername/quiz-forge/internal/store"

// コレクション名
const (
	AccountsCollection    = "users"
	CredentialsCollection = "credentials"
)

// Account は登録済みユーザーです。
type Account struct {
	ID       string `bson:"_id" json:"id"`
	Username string `bson:"username" json:"username"`
}

// EntityID は store.Entity を実装します。
func (a Account) EntityID() string { return a.ID }

// AccountUpdateDoc は Account の更新ペイロードを組み立てます。
func AccountUpdateDoc(a Account) store.Document {
	return store.Document{
		"username": a.Username,
	}
}

// Credential はアカウントに紐づくパスワードハッシュです。1アカウントにつき1件だけ存在します。
type Credential struct {
	ID           string `bson:"_id" json:"-"`
	AccountID    string `bson:"account_id" json:"-"`
	PasswordHash string `bson:"password_hash" json:"-"`
	Salt         string `bson:"salt" json:"-"`
}

// EntityID は store.Entity を実装します。
func (c Credential) EntityID() string { return c.ID }

// CredentialUpdateDoc は Credential の更新ペイロードを組み立てます。
func CredentialUpdateDoc(c Credential) store.Document {
	return store.Document{
		"password_hash": c.PasswordHash,
		"salt":          c.Salt,
	}
}
