package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sparks/internal/clock"
	"sparks/internal/metrics"
	"sparks/internal/model"
	"sparks/internal/repository"
)

// BonusService pays the daily login bonus on a 7-day cycle. Claiming on
// consecutive reference days advances the day number; any missed day
// restarts it at 1, and day 7 wraps back to 1.
type BonusService struct {
	db       *gorm.DB
	bonuses  *repository.BonusRepository
	ledger   *CurrencyLedger
	calendar *clock.Calendar
	table    []int64
	log      *zap.Logger
}

func NewBonusService(db *gorm.DB, bonuses *repository.BonusRepository, ledger *CurrencyLedger, calendar *clock.Calendar, table []int64, log *zap.Logger) *BonusService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BonusService{
		db:       db,
		bonuses:  bonuses,
		ledger:   ledger,
		calendar: calendar,
		table:    table,
		log:      log.Named("bonus"),
	}
}

// NextDayNumber derives the streak day for today from the last claim.
func NextDayNumber(last *model.DailyBonusClaim, today clock.Date, cycle int) int {
	if last == nil {
		return 1
	}
	switch last.Day {
	case today:
		return last.DayNumber
	case today.AddDays(-1):
		next := last.DayNumber + 1
		if next > cycle {
			return 1
		}
		return next
	default:
		return 1
	}
}

// BonusAmount looks up the payout for a streak day; out-of-range days pay day 1.
func (s *BonusService) BonusAmount(dayNumber int) int64 {
	if dayNumber < 1 || dayNumber > len(s.table) {
		return s.table[0]
	}
	return s.table[dayNumber-1]
}

// BonusStatus is the read-only streak view.
type BonusStatus struct {
	DayNumber   int
	BonusAmount int64
	IsClaimed   bool
	CanClaim    bool
	NextResetAt time.Time
	// ClaimedDays is 1..DayNumber when claimed today, 1..DayNumber-1 when the
	// last claim was yesterday, empty otherwise. It is derived from the day
	// number, not from the full claim history.
	ClaimedDays []int
}

func (s *BonusService) Status(ctx context.Context, userID uint) (*BonusStatus, error) {
	today := s.calendar.Today()
	last, err := s.bonuses.Last(ctx, userID)
	if err != nil {
		return nil, err
	}

	day := NextDayNumber(last, today, len(s.table))
	claimed := last != nil && last.Day == today

	status := &BonusStatus{
		DayNumber:   day,
		BonusAmount: s.BonusAmount(day),
		IsClaimed:   claimed,
		CanClaim:    !claimed,
		NextResetAt: s.calendar.NextReset(),
		ClaimedDays: []int{},
	}
	switch {
	case claimed:
		status.ClaimedDays = dayRange(day)
	case last != nil && last.Day == today.AddDays(-1):
		status.ClaimedDays = dayRange(day - 1)
	}
	return status, nil
}

// ClaimResult is returned by a successful claim.
type ClaimResult struct {
	BonusAmount int64
	NewBalance  int64
	DayNumber   int
}

// Claim records today's claim, credits the bonus and appends a transaction
// atomically. A second claim on the same day returns ErrAlreadyClaimedToday.
func (s *BonusService) Claim(ctx context.Context, userID uint) (*ClaimResult, error) {
	today := s.calendar.Today()
	var result ClaimResult

	err := repository.InTx(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.bonuses.WithTx(tx)
		last, err := repo.Last(ctx, userID)
		if err != nil {
			return err
		}
		if last != nil && last.Day == today {
			return ErrAlreadyClaimedToday
		}

		day := NextDayNumber(last, today, len(s.table))
		amount := s.BonusAmount(day)
		claim := model.DailyBonusClaim{
			UserID:      userID,
			Day:         today,
			DayNumber:   day,
			BonusAmount: amount,
			ClaimedAt:   s.calendar.Now(),
		}
		if err := repo.Create(ctx, &claim); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyClaimedToday
			}
			return err
		}

		if _, err := s.ledger.CreditTx(ctx, tx, userID, amount, model.Transaction{
			Type:        model.TxBonus,
			Method:      model.MethodDailyBonus,
			Description: fmt.Sprintf("Daily bonus, day %d", day),
		}); err != nil {
			return err
		}

		balance, err := s.ledger.users.WithTx(tx).Balance(ctx, userID)
		if err != nil {
			return err
		}
		result = ClaimResult{BonusAmount: amount, NewBalance: balance, DayNumber: day}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BonusesClaimed.WithLabelValues(strconv.Itoa(result.DayNumber)).Inc()
	metrics.SparksCredited.WithLabelValues("daily_bonus").Add(float64(result.BonusAmount))
	s.log.Info("daily bonus claimed",
		zap.Uint("user_id", userID),
		zap.Int("day", result.DayNumber),
		zap.Int64("amount", result.BonusAmount))
	return &result, nil
}

func dayRange(n int) []int {
	days := make([]int, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		days = append(days, i)
	}
	return days
}
