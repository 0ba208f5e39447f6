// Command initdb creates the transactions table in the configured SQLite file.
package main

import (
	"fmt"
	"os"

	"controlepix/internal/cli"
	applog "controlepix/internal/log"
	"controlepix/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	if err := storage.EnsureSchema(cfg.SQLiteDBPath); err != nil {
		logger.Error("Failed to create schema",
			applog.FieldError, err,
			applog.FieldPath, cfg.SQLiteDBPath)
		os.Exit(1)
	}
	version, err := storage.SchemaVersion(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to read schema version",
			applog.FieldError, err,
			applog.FieldPath, cfg.SQLiteDBPath)
		os.Exit(1)
	}
	logger.Debug("Schema ready", "version", version, applog.FieldPath, cfg.SQLiteDBPath)
	fmt.Println("Tabela 'transactions' criada com sucesso!")
}
