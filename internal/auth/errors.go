package auth

import "errors"

// 認証処理のエラーです。呼び出し側は errors.Is で判定します。
var (
	ErrInvalidUsername      = errors.New("username cannot be empty")
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrIntegrity は一意であるべきドキュメントが複数見つかった場合に返されます。
	ErrIntegrity = errors.New("data integrity violation")
)
