package usecase

import (
	"context"
	"sync"
	"time"

	"subsonic-backend/internal/domain"
	"subsonic-backend/pkg/apperror"
	"subsonic-backend/pkg/logger"
	"subsonic-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

const defaultStorageTimeout = 10 * time.Second

type contactUsecase struct {
	repo           domain.QuoteRepository // nil disables persistence
	notifier       domain.QuoteNotifier   // nil disables notification
	validate       *validator.Validate
	rowKeys        *domain.RowKeyGenerator
	storageTimeout time.Duration
}

// NewContactUsecase creates a new contact usecase. repo and notifier are optional.
func NewContactUsecase(repo domain.QuoteRepository, notifier domain.QuoteNotifier, validate *validator.Validate, storageTimeout time.Duration) domain.ContactUsecase {
	if validate == nil {
		validate = validation.New()
	}
	if storageTimeout <= 0 {
		storageTimeout = defaultStorageTimeout
	}
	return &contactUsecase{
		repo:           repo,
		notifier:       notifier,
		validate:       validate,
		rowKeys:        domain.NewRowKeyGenerator(),
		storageTimeout: storageTimeout,
	}
}

// SubmitQuote validates the request, then stores and notifies concurrently.
// Only validation errors are returned.
func (uc *contactUsecase) SubmitQuote(ctx context.Context, req *domain.ContactRequest) error {
	req.Normalize()
	if err := uc.validate.Struct(req); err != nil {
		return apperror.Validation(validation.ContactMessage(err), err)
	}

	tipoLabel := domain.EventTypeLabel(req.TipoEvento)
	rowKey, now := uc.rowKeys.Next()

	quote := &domain.Quote{
		PartitionKey:  domain.QuotePartitionKey,
		RowKey:        rowKey,
		Nombre:        req.Nombre,
		Email:         req.Email,
		TipoEvento:    tipoLabel,
		FechaEvento:   req.Fecha,
		Mensaje:       req.Mensaje,
		FechaCreacion: now.UTC(),
	}
	notification := domain.QuoteNotification{
		Nombre:      req.Nombre,
		Email:       req.Email,
		TipoLabel:   tipoLabel,
		FechaEvento: domain.FormatEventDate(req.Fecha),
		Mensaje:     req.Mensaje,
		ReceivedAt:  now,
	}

	// A client hanging up must not abort a write already in flight;
	// each side effect carries its own timeout instead.
	sideCtx := context.WithoutCancel(ctx)

	var (
		wg       sync.WaitGroup
		stored   bool
		notified bool
	)
	if uc.repo != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stored = uc.storeQuote(sideCtx, quote)
		}()
	}
	if uc.notifier != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			notified = uc.notifyOwner(sideCtx, notification)
		}()
	}
	wg.Wait()

	// Always logged: this is the only record when nothing else is configured.
	logger.Log.Info("New quote request",
		"nombre", req.Nombre,
		"email", req.Email,
		"tipo", tipoLabel,
		"fecha", req.Fecha,
		"mensaje", req.Mensaje,
		"row_key", quote.RowKey,
		"stored", stored,
		"notified", notified,
	)

	return nil
}

func (uc *contactUsecase) storeQuote(ctx context.Context, quote *domain.Quote) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("Panic while storing quote", "row_key", quote.RowKey, "panic", r)
			ok = false
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, uc.storageTimeout)
	defer cancel()

	// The insert is still attempted: the table may exist even if we could not confirm it.
	if err := uc.repo.EnsureTable(ctx); err != nil {
		logger.Log.Warn("Failed to ensure quotes table", "error", err)
	}

	if err := uc.repo.Create(ctx, quote); err != nil {
		logger.Log.Error("Failed to store quote", "row_key", quote.RowKey, "error", err)
		return false
	}

	logger.Log.Info("Quote stored", "row_key", quote.RowKey)
	return true
}

func (uc *contactUsecase) notifyOwner(ctx context.Context, n domain.QuoteNotification) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("Panic while sending quote notification", "panic", r)
			ok = false
		}
	}()

	if err := uc.notifier.NotifyQuote(ctx, n); err != nil {
		logger.Log.Error("Failed to send quote notification", "error", err)
		return false
	}

	logger.Log.Info("Quote notification sent")
	return true
}
