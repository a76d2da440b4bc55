// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"os"
)

// ビルド時に -ldflags で上書きします。
var version = "0.1.0"

func main() {
	cmd := NewRootCmd()
	cmd.Version = version

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
