package cmd

import (
	"context"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/database"
	"github.com/samkraft/samkraft-api/internal/logger"
)

const migrateTimeout = 5 * time.Minute

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the schema of a self-hosted Postgres database",
	Run: func(_ *cobra.Command, _ []string) {
		migrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func migrate() {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	db, err := database.Open(ctx, database.Config{
		URL:             config.Database.URL,
		MaxConns:        config.Database.MaxConns,
		ConnMaxLifetime: config.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err), zap.String("hint", "set DATABASE_URL or database.url"))
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("migrating the database", zap.Error(err))
	}

	logger.Info("database schema is up to date", zap.Int("tables", len(database.Tables())))
}
