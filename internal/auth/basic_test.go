package auth

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestDecodeBasicAuthRoundTrip(t *testing.T) {
	cases := []struct {
		username string
		password string
	}{
		{"alice", "pw1"},
		{"bob", ""},
		{"", "secret"},
		{"ユーザー", "パスワード"},
		{"a b", "c d e"},
	}
	for _, tc := range cases {
		creds, err := DecodeBasicAuth(EncodeBasicAuth(tc.username, tc.password))
		if err != nil {
			t.Fatalf("DecodeBasicAuth(%q, %q) returned error: %v", tc.username, tc.password, err)
		}
		if creds == nil {
			t.Fatalf("DecodeBasicAuth(%q, %q) returned no credentials", tc.username, tc.password)
		}
		if creds.Username != tc.username || creds.Password != tc.password {
			t.Fatalf("got %q:%q, want %q:%q", creds.Username, creds.Password, tc.username, tc.password)
		}
	}
}

func TestDecodeBasicAuthNoCredentials(t *testing.T) {
	for _, header := range []string{
		"",
		"Bearer abc.def.ghi",
		"basic YWxpY2U6cHcx",
		"BasicYWxpY2U6cHcx",
		"Digest username=\"alice\"",
	} {
		creds, err := DecodeBasicAuth(header)
		if err != nil {
			t.Fatalf("DecodeBasicAuth(%q) returned error: %v", header, err)
		}
		if creds != nil {
			t.Fatalf("DecodeBasicAuth(%q) = %#v, want nil", header, creds)
		}
	}
}

func TestDecodeBasicAuthInvalidToken(t *testing.T) {
	cases := map[string]string{
		"not base64":   "Basic !!!not-base64!!!",
		"no separator": "Basic " + base64.StdEncoding.EncodeToString([]byte("alice")),
		"extra colon":  "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:pw:extra")),
		"invalid utf8": "Basic " + base64.StdEncoding.EncodeToString([]byte{'a', ':', 0xff, 0xfe}),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			creds, err := DecodeBasicAuth(header)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got creds=%#v err=%v", creds, err)
			}
		})
	}
}
