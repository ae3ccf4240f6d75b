package usecase

import (
	"context"
	"fmt"

	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/model"
	"go.uber.org/zap"
)

func (uc *syncUseCase) RunInventoryPush(ctx context.Context, accountID string) (*model.ImportRun, error) {
	account, err := uc.chRepo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Enabled || !account.UseInventory {
		cause := apperr.Validationf("account %s is not enabled for inventory pushes", accountID)
		return uc.errorRun(ctx, model.SourceInventoryPush, accountID, cause), cause
	}

	unlock, err := uc.lockRun(ctx, accountID, "push")
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Dry runs touch no network at all, token fetch included.
	token := ""
	if uc.cfg.LivePush {
		token, err = uc.creds.Token(ctx, accountID)
		if err != nil {
			cause := apperr.Upstreamf("no valid token for account %s: %v", accountID, err)
			return uc.errorRun(ctx, model.SourceInventoryPush, accountID, cause), cause
		}
	}

	listings, err := uc.chRepo.ListListings(ctx, accountID)
	if err != nil {
		cause := fmt.Errorf("list listings for account %s: %w", accountID, err)
		return uc.errorRun(ctx, model.SourceInventoryPush, accountID, cause), cause
	}

	updated, skipped := 0, 0
	var details []string

	for _, listing := range listings {
		atp, err := uc.resUC.ComputeATP(ctx, listing.SKU, accountID)
		if err != nil {
			details = append(details, fmt.Sprintf("sku %s: atp: %v", listing.SKU, err))
			continue
		}

		// Zero or negative quantities are withheld; several channels treat
		// them as listing deletions.
		if atp.Effective <= 0 {
			skipped++
			continue
		}

		if !uc.cfg.LivePush {
			uc.logger.Info("push row: success, no network call (dry-run)",
				zap.String("account_id", accountID),
				zap.String("sku", listing.SKU),
				zap.Int("effective", atp.Effective))
			updated++
			continue
		}

		if err := uc.client.PushQuantity(ctx, token, listing.ExternalSKU, atp.Effective); err != nil {
			details = append(details, fmt.Sprintf("sku %s: %v", listing.SKU, err))
			uc.logger.Error("failed to push quantity",
				zap.String("account_id", accountID),
				zap.String("sku", listing.SKU),
				zap.Error(err))
			continue
		}
		updated++
	}

	run := newRun(model.SourceInventoryPush, accountID, len(listings), 0, updated, skipped, details)
	uc.saveRun(ctx, run)

	uc.logger.Info("inventory push finished",
		zap.String("account_id", accountID),
		zap.Bool("live", uc.cfg.LivePush),
		zap.Int("rows", run.RowsTotal),
		zap.Int("updated", run.Updated),
		zap.Int("skipped", run.Skipped),
		zap.Int("errors", run.Errors))

	return run, nil
}
