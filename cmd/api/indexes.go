package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/yourusername/quiz-forge/internal/config"
	"github.com/yourusername/quiz-forge/internal/store/mongostore"
)

// NewIndexesCmd は indexes サブコマンドを作成します。
func NewIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create MongoDB indexes",
		Long:  `ユーザー名の一意制約を含む MongoDB のインデックスを作成します。`,
		RunE:  runIndexes,
	}
}

func runIndexes(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if cfg.StoreDriver != config.StoreDriverMongo {
		return oops.Code("CONFIG_INVALID").Errorf("STORE_DRIVER must be %q to create indexes", config.StoreDriverMongo)
	}

	ctx := context.Background()

	cmd.Println("Connecting to database...")
	client, err := mongostore.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to mongodb").Wrap(err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	cmd.Println("Creating indexes...")
	names, err := mongostore.EnsureIndexes(ctx, client.Database(cfg.MongoDatabase))
	if err != nil {
		return oops.Code("DB_INDEX_FAILED").With("operation", "ensure indexes").Wrap(err)
	}
	for _, name := range names {
		cmd.Println("  " + name)
	}

	cmd.Println("Indexes created successfully")
	return nil
}
