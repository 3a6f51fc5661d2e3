// Command ledger-import loads JSON exports into the SQLite store and
// announces the changed sources so running servers drop their caches.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"cashbook/internal/cli"
	"cashbook/internal/services"
	"cashbook/internal/sources/memory"
)

func main() {
	var (
		dir          = flag.String("dir", "", "directory holding the JSON exports (defaults to DATA_DIR)")
		copySettings = flag.Bool("settings", false, "also copy the created-date setting")
		timeout      = flag.Duration("timeout", 5*time.Minute, "time allowed for the import")
	)
	flag.Parse()

	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	srcDir := *dir
	if srcDir == "" {
		srcDir = cfg.DataDir
	}
	src, err := memory.NewFromDir(srcDir)
	if err != nil {
		logger.Error("Failed to read exports", "error", err, "dir", srcDir)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher services.Publisher
	amqpClient := cli.NewAMQPClient(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := services.NewImportService(repo, publisher).Import(ctx, src, *copySettings)
	if err != nil {
		logger.Error("Import failed", "error", err, "dir", srcDir)
		os.Exit(1)
	}

	logger.Info("Import complete",
		"dir", srcDir,
		"db_path", cfg.SQLiteDBPath,
		"orders", result.Orders,
		"receipts", result.Receipts,
		"income_vouchers", result.IncomeVouchers,
		"expense_vouchers", result.ExpenseVouchers,
		"settings", result.Settings)
}
