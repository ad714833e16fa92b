// Command seedaccounts creates the fixed chart of accounts the receipt
// pipeline books against. It is idempotent; accounts that already exist are
// left untouched.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/acctlite/acctlite/internal/apperrors"
	"github.com/acctlite/acctlite/internal/core/domain"
	"github.com/acctlite/acctlite/internal/platform/config"
	"github.com/acctlite/acctlite/internal/repositories/database/pgsql"
	"github.com/acctlite/acctlite/pkg/database"
)

const seedUser = "system"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()

	seeds := []domain.Account{
		{Code: domain.CashAccountCode, Name: "Cash", AccountType: domain.Asset, Description: "Cash on hand and in bank"},
		{Code: "2000", Name: "Accounts Payable", AccountType: domain.Liability, Description: "Amounts owed to suppliers"},
		{Code: "3000", Name: "Owner's Equity", AccountType: domain.Equity, Description: "Owner's stake in the business"},
		{Code: "4000", Name: "Revenue", AccountType: domain.Revenue, Description: "Income from sales and services"},
		{Code: domain.ExpenseAccountCode, Name: "Expenses", AccountType: domain.Expense, Description: "General business expenses"},
	}

	uowFactory := pgsql.NewPgxUnitOfWorkFactory(dbPool)
	uow, err := uowFactory.Begin(ctx)
	if err != nil {
		logger.Error("Failed to begin unit of work", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer uow.Rollback(ctx)

	now := time.Now().UTC()
	created := 0
	for _, seed := range seeds {
		_, err := uow.Accounts().FindAccountByCode(ctx, seed.Code)
		if err == nil {
			logger.Info("Account already exists, skipping", slog.String("code", seed.Code))
			continue
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to check account", slog.String("code", seed.Code), slog.String("error", err.Error()))
			os.Exit(1)
		}

		seed.AccountID = uuid.NewString()
		seed.IsActive = true
		seed.AuditFields = domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     seedUser,
			LastUpdatedAt: now,
			LastUpdatedBy: seedUser,
		}
		if err := uow.Accounts().SaveAccount(ctx, seed); err != nil {
			logger.Error("Failed to save account", slog.String("code", seed.Code), slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Account created", slog.String("code", seed.Code), slog.String("name", seed.Name))
		created++
	}

	if err := uow.Commit(ctx); err != nil {
		logger.Error("Failed to commit seed accounts", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Seeding complete", slog.Int("created", created))
}
