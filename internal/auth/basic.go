// Package auth は認証・認可機能を提供します。
//
// Basic 認証ヘッダーの解析、パスワードのハッシュ化、サインアップとログイン、
// そしてリクエストごとのログイン状態の解決を担当します。
package auth

import (
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrInvalidToken は Basic 認証ヘッダーの値が解釈できない場合に返されます。
var ErrInvalidToken = errors.New("invalid basic auth token")

var basicAuthPattern = regexp.MustCompile(`^Basic (.*)$`)

// BasicCredentials は Basic 認証ヘッダーから取り出したユーザー名とパスワードです。
type BasicCredentials struct {
	Username string
	Password string
}

// DecodeBasicAuth は Authorization ヘッダーの値を解析します。
//
// ヘッダーが空、または "Basic " で始まらない場合は (nil, nil) を返します。
// base64 として不正、UTF-8 として不正、または ':' で区切った結果がちょうど2つに
// ならない場合は ErrInvalidToken です。パスワードに ':' を含めることはできません。
func DecodeBasicAuth(header string) (*BasicCredentials, error) {
	if header == "" {
		return nil, nil
	}
	m := basicAuthPattern.FindStringSubmatch(header)
	if m == nil {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(m[1])
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !utf8.Valid(raw) {
		return nil, ErrInvalidToken
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 2 {
		return nil, ErrInvalidToken
	}
	return &BasicCredentials{Username: parts[0], Password: parts[1]}, nil
}

// EncodeBasicAuth は Authorization ヘッダーの値を組み立てます。
func EncodeBasicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}
