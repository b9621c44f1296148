package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sparks/internal/clock"
	"sparks/internal/metrics"
	"sparks/internal/model"
	"sparks/internal/repository"
)

// SlotKind tells which budget paid for a completion.
type SlotKind string

const (
	SlotFree SlotKind = "free"
	SlotPaid SlotKind = "paid"
)

// EntitlementService is the only writer of DailyEntitlement rows. Each
// mutation runs in one transaction scoped to the (user, today) row and
// changes counters through conditional updates, so concurrent requests for
// the same user cannot both spend the last slot.
type EntitlementService struct {
	db           *gorm.DB
	entitlements *repository.EntitlementRepository
	ledger       *CurrencyLedger
	calendar     *clock.Calendar
	freeLimit    int
	log          *zap.Logger
}

func NewEntitlementService(db *gorm.DB, entitlements *repository.EntitlementRepository, ledger *CurrencyLedger, calendar *clock.Calendar, freeLimit int, log *zap.Logger) *EntitlementService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EntitlementService{
		db:           db,
		entitlements: entitlements,
		ledger:       ledger,
		calendar:     calendar,
		freeLimit:    freeLimit,
		log:          log.Named("entitlements"),
	}
}

// FreeLimit is the number of free tasks per day.
func (s *EntitlementService) FreeLimit() int {
	return s.freeLimit
}

// GetOrCreateToday returns today's row for the user, creating it zeroed.
func (s *EntitlementService) GetOrCreateToday(ctx context.Context, userID uint) (*model.DailyEntitlement, error) {
	return s.entitlements.GetOrCreate(ctx, userID, s.calendar.Today())
}

// RemainingFree is max(0, limit - consumed).
func (s *EntitlementService) RemainingFree(e *model.DailyEntitlement) int {
	if e == nil {
		return s.freeLimit
	}
	return max(0, s.freeLimit-e.FreeConsumed)
}

// Budget is how many more tasks the user can complete today.
func (s *EntitlementService) Budget(e *model.DailyEntitlement) int {
	return s.RemainingFree(e) + max(0, e.PaidAvailable)
}

// Summary is today's entitlement as shown to clients.
type Summary struct {
	Day           clock.Date
	FreeRemaining int
	PaidAvailable int
	ResetAt       time.Time
}

func (s *EntitlementService) Summary(ctx context.Context, userID uint) (Summary, error) {
	e, err := s.GetOrCreateToday(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Day:           e.Day,
		FreeRemaining: s.RemainingFree(e),
		PaidAvailable: e.PaidAvailable,
		ResetAt:       s.calendar.NextReset(),
	}, nil
}

// ConsumeOneSlot spends one slot, free first, in its own transaction.
func (s *EntitlementService) ConsumeOneSlot(ctx context.Context, userID uint) (SlotKind, error) {
	var kind SlotKind
	err := repository.InTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		kind, err = s.ConsumeOneSlotTx(ctx, tx, userID)
		return err
	})
	return kind, err
}

// ConsumeOneSlotTx spends one slot inside the caller's transaction so the
// caller can pair it with another write and roll both back together.
func (s *EntitlementService) ConsumeOneSlotTx(ctx context.Context, tx *gorm.DB, userID uint) (SlotKind, error) {
	repo := s.entitlements.WithTx(tx)
	e, err := repo.GetOrCreate(ctx, userID, s.calendar.Today())
	if err != nil {
		return "", err
	}

	ok, err := repo.ConsumeFree(ctx, e.ID, s.freeLimit)
	if err != nil {
		return "", err
	}
	if ok {
		return SlotFree, nil
	}

	ok, err = repo.ConsumePaid(ctx, e.ID)
	if err != nil {
		return "", err
	}
	if ok {
		return SlotPaid, nil
	}
	return "", ErrEntitlementExhausted
}

// PurchaseResult is the state after buying an extra slot.
type PurchaseResult struct {
	Balance       int64
	FreeRemaining int
	PaidAvailable int
	Transaction   *model.Transaction
}

// PurchaseSlot debits cost and adds one paid slot for today, atomically.
// On ErrInsufficientBalance nothing is changed.
func (s *EntitlementService) PurchaseSlot(ctx context.Context, userID uint, cost int64) (*PurchaseResult, error) {
	var result PurchaseResult
	err := repository.InTx(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.entitlements.WithTx(tx)
		day := s.calendar.Today()
		e, err := repo.GetOrCreate(ctx, userID, day)
		if err != nil {
			return err
		}

		entry, err := s.ledger.DebitTx(ctx, tx, userID, cost, model.Transaction{
			Type:        model.TxPurchase,
			Method:      model.MethodSystem,
			Description: fmt.Sprintf("Extra task purchase for %d sparks", cost),
		})
		if err != nil {
			return err
		}
		if err := repo.AddPaid(ctx, e.ID, 1); err != nil {
			return err
		}

		updated, err := repo.Find(ctx, userID, day)
		if err != nil {
			return fmt.Errorf("reload entitlement: %w", err)
		}
		balance, err := s.ledger.users.WithTx(tx).Balance(ctx, userID)
		if err != nil {
			return err
		}
		result = PurchaseResult{
			Balance:       balance,
			FreeRemaining: s.RemainingFree(updated),
			PaidAvailable: updated.PaidAvailable,
			Transaction:   entry,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ExtraTasksPurchased.Inc()
	metrics.SparksDebited.WithLabelValues("extra_task").Add(float64(cost))
	s.log.Info("extra task purchased",
		zap.Uint("user_id", userID),
		zap.Int64("cost", cost),
		zap.Int64("balance", result.Balance))
	return &result, nil
}

// ResetAllForDay zeroes free counters on every row dated day. Lazy per-day
// rows already isolate days; this sweep only repairs rows created early.
func (s *EntitlementService) ResetAllForDay(ctx context.Context, day clock.Date) (int64, error) {
	n, err := s.entitlements.ResetForDay(ctx, day, s.calendar.Now())
	if err != nil {
		return 0, err
	}
	metrics.DailyResetRows.Set(float64(n))
	s.log.Info("daily free tasks reset", zap.String("day", day.String()), zap.Int64("rows", n))
	return n, nil
}

// ResetToday runs the sweep for the current reference day.
func (s *EntitlementService) ResetToday(ctx context.Context) (int64, error) {
	return s.ResetAllForDay(ctx, s.calendar.Today())
}
