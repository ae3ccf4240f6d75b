package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/channel"
	"github.com/stockwise/fulfillment-service/internal/model"
	"github.com/stockwise/fulfillment-service/internal/reservation"
	"github.com/stockwise/fulfillment-service/internal/syncrun"
	"github.com/stockwise/fulfillment-service/pkg/logger"
	"github.com/stockwise/fulfillment-service/pkg/search"
	"go.uber.org/zap"
)

const runsIndex = "import_runs"

const runsIndexMapping = `{
	"mappings": {
		"properties": {
			"source_type": { "type": "keyword" },
			"source_ref": { "type": "keyword" },
			"status": { "type": "keyword" },
			"rows_total": { "type": "integer" },
			"created": { "type": "integer" },
			"updated": { "type": "integer" },
			"skipped": { "type": "integer" },
			"errors": { "type": "integer" },
			"error_details": { "type": "text" },
			"created_at": { "type": "date" }
		}
	}
}`

type syncUseCase struct {
	repo   syncrun.Repository
	chRepo channel.Repository
	resUC  reservation.UseCase
	client channel.Client
	creds  channel.CredentialProvider
	locker syncrun.RunLocker
	es     *search.Client
	logger logger.Logger
	cfg    syncrun.Config
}

func NewSyncUseCase(
	repo syncrun.Repository,
	chRepo channel.Repository,
	resUC reservation.UseCase,
	client channel.Client,
	creds channel.CredentialProvider,
	locker syncrun.RunLocker,
	es *search.Client,
	log logger.Logger,
	cfg syncrun.Config,
) syncrun.UseCase {
	return &syncUseCase{
		repo:   repo,
		chRepo: chRepo,
		resUC:  resUC,
		client: client,
		creds:  creds,
		locker: locker,
		es:     es,
		logger: log,
		cfg:    cfg,
	}
}

func (uc *syncUseCase) ListRuns(ctx context.Context, sourceRef string, limit int) ([]model.ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.repo.ListRuns(ctx, sourceRef, limit)
}

// lockRun marks (accountID, kind) RUNNING. A busy marker rejects the request;
// runs are never queued.
func (uc *syncUseCase) lockRun(ctx context.Context, accountID, kind string) (func(), error) {
	key := fmt.Sprintf("sync:run:%s:%s", accountID, kind)
	value := uuid.New().String()

	ok, err := uc.locker.AcquireLock(ctx, key, value, uc.cfg.RunLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflictf("%s sync already running for account %s", kind, accountID)
	}

	return func() {
		if err := uc.locker.ReleaseLock(ctx, key, value); err != nil {
			uc.logger.Error("failed to release run lock",
				zap.String("account_id", accountID), zap.String("kind", kind), zap.Error(err))
		}
	}, nil
}

// saveRun persists the audit record and indexes it best-effort.
func (uc *syncUseCase) saveRun(ctx context.Context, run *model.ImportRun) {
	if err := uc.repo.CreateRun(ctx, run); err != nil {
		uc.logger.Error("failed to persist import run",
			zap.String("source_type", run.SourceType), zap.Error(err))
	}
	go uc.indexRun(context.Background(), run)
}

func (uc *syncUseCase) indexRun(ctx context.Context, run *model.ImportRun) {
	if uc.es == nil {
		return
	}
	_ = uc.es.CreateIndex(ctx, runsIndex, runsIndexMapping)
	if err := uc.es.Index(ctx, runsIndex, run.ID, run); err != nil {
		uc.logger.Error("failed to index import run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

// errorRun records a run that failed before any row was processed.
func (uc *syncUseCase) errorRun(ctx context.Context, sourceType, accountID string, cause error) *model.ImportRun {
	run := &model.ImportRun{
		ID:           uuid.New().String(),
		SourceType:   sourceType,
		SourceRef:    accountID,
		Status:       model.RunError,
		ErrorDetails: cause.Error(),
		CreatedAt:    time.Now(),
	}
	uc.saveRun(ctx, run)
	return run
}

func newRun(sourceType, accountID string, total, created, updated, skipped int, details []string) *model.ImportRun {
	status := model.RunSuccess
	if len(details) > 0 {
		status = model.RunWarning
	}
	return &model.ImportRun{
		ID:           uuid.New().String(),
		SourceType:   sourceType,
		SourceRef:    accountID,
		RowsTotal:    total,
		Created:      created,
		Updated:      updated,
		Skipped:      skipped,
		Errors:       len(details),
		Status:       status,
		ErrorDetails: strings.Join(details, "; "),
		CreatedAt:    time.Now(),
	}
}

func sinceOf(cursor *time.Time) time.Time {
	if cursor == nil {
		return time.Time{}
	}
	return *cursor
}
