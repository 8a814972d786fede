package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"portal/internal/models"
	"portal/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const ledgerSyncPageSize = 100

// LedgerSyncService imports directory ledger entries for every linked account
type LedgerSyncService interface {
	SyncAll(ctx context.Context) (*SyncReport, error)
	SyncAccount(ctx context.Context, link *models.UserAccountLink) (int, error)
}

type SyncReport struct {
	Accounts int
	Imported int
	Failed   int
}

type ledgerSyncService struct {
	linkRepo  repositories.AccountLinkRepository
	txnRepo   repositories.TransactionRepository
	directory AccountDirectory
	logger    *zap.Logger
	now       func() time.Time
}

func NewLedgerSyncService(linkRepo repositories.AccountLinkRepository, txnRepo repositories.TransactionRepository, directory AccountDirectory, logger *zap.Logger) LedgerSyncService {
	return &ledgerSyncService{
		linkRepo:  linkRepo,
		txnRepo:   txnRepo,
		directory: directory,
		logger:    logger,
		now:       time.Now,
	}
}

// directoryReference namespaces directory references per linked user and account.
// Several users may link the same account and each needs its own copy of the entry.
func directoryReference(link *models.UserAccountLink, ref string) string {
	return fmt.Sprintf("DIR:%s:%s:%s:%s", link.UserID, link.TenantSlug, link.AccountNumber, ref)
}

func (s *ledgerSyncService) SyncAll(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{}
	for offset := 0; ; offset += ledgerSyncPageSize {
		links, err := s.linkRepo.ListAll(ctx, ledgerSyncPageSize, offset)
		if err != nil {
			return report, err
		}
		for _, link := range links {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Accounts++
			imported, err := s.SyncAccount(ctx, link)
			if err != nil {
				report.Failed++
				s.logger.Warn("ledger sync failed for account",
					zap.String("tenant", link.TenantSlug),
					zap.String("account_number", link.AccountNumber),
					zap.Error(err),
				)
				continue
			}
			report.Imported += imported
		}
		if len(links) < ledgerSyncPageSize {
			break
		}
	}
	return report, nil
}

func (s *ledgerSyncService) SyncAccount(ctx context.Context, link *models.UserAccountLink) (int, error) {
	startedAt := s.now().UTC()
	entries, err := s.directory.TransactionsSince(ctx, link.AccountNumber, link.LastSyncedAt)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, entry := range entries {
		raw, err := json.Marshal(entry)
		if err != nil {
			return imported, err
		}
		ref := directoryReference(link, entry.ExternalRef)
		inserted, err := s.txnRepo.CreateIfAbsent(ctx, &models.Transaction{
			ID:            uuid.New(),
			UserID:        link.UserID,
			TenantSlug:    link.TenantSlug,
			AccountNumber: link.AccountNumber,
			ExternalRef:   &ref,
			Source:        models.SourceDirectory,
			Direction:     entry.Direction,
			AmountPence:   entry.AmountPence,
			Status:        models.TransactionConfirmed,
			OccurredAt:    entry.OccurredAt,
			Raw:           raw,
		})
		if err != nil {
			return imported, err
		}
		if inserted {
			imported++
		}
	}

	if err := s.linkRepo.MarkSynced(ctx, link.ID, startedAt); err != nil {
		return imported, err
	}
	return imported, nil
}
