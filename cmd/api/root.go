package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd は CLI のルートコマンドを作成します。サブコマンドなしの場合は serve と同じです。
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "quiz-forge",
		Short:        "quiz-forge API server",
		Long:         `クイズ作成アプリのバックエンドです。サインアップ・ログインと GraphQL API を提供します。`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewIndexesCmd())

	return cmd
}
