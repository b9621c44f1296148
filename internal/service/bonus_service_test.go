package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"sparks/internal/clock"
	"sparks/internal/model"
)

func TestNextDayNumber(t *testing.T) {
	today := clock.Date{Year: 2025, Month: time.June, Day: 10}
	claim := func(daysAgo, dayNumber int) *model.DailyBonusClaim {
		return &model.DailyBonusClaim{Day: today.AddDays(-daysAgo), DayNumber: dayNumber}
	}

	cases := []struct {
		name string
		last *model.DailyBonusClaim
		want int
	}{
		{"never claimed", nil, 1},
		{"claimed yesterday", claim(1, 3), 4},
		{"claimed yesterday on day 7 wraps", claim(1, 7), 1},
		{"claimed today keeps day", claim(0, 5), 5},
		{"missed one day", claim(2, 4), 1},
		{"long gap", claim(30, 6), 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := NextDayNumber(c.last, today, 7); got != c.want {
				t.Errorf("NextDayNumber() = %d, want %d", got, c.want)
			}
		})
	}
}

func TestBonus_AmountTable(t *testing.T) {
	env := newTestEnv(t)
	want := map[int]int64{1: 10, 2: 15, 3: 20, 4: 25, 5: 30, 6: 35, 7: 40, 0: 10, 8: 10}
	for day, amount := range want {
		if got := env.bonus.BonusAmount(day); got != amount {
			t.Errorf("BonusAmount(%d) = %d, want %d", day, got, amount)
		}
	}
}

func TestBonus_FirstClaim(t *testing.T) {
	env := newTestEnv(t)
	user := env.newUser(t, model.GenderCouple, 0)

	res, err := env.bonus.Claim(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Claim() error: %v", err)
	}
	if res.DayNumber != 1 || res.BonusAmount != 10 || res.NewBalance != 10 {
		t.Errorf("Claim() = %+v, want day 1, +10, balance 10", res)
	}

	txs, err := env.ledger.History(context.Background(), user.ID, 0)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(txs) != 1 || txs[0].Type != model.TxBonus || txs[0].Method != model.MethodDailyBonus || txs[0].Amount != 10 {
		t.Errorf("transactions = %+v, want one +10 bonus", txs)
	}
}

func TestBonus_ConsecutiveDaysAdvance(t *testing.T) {
	env := newTestEnv(t)
	user := env.newUser(t, model.GenderCouple, 0)

	var last *ClaimResult
	for i := 0; i < 3; i++ {
		res, err := env.bonus.Claim(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("Claim() day %d error: %v", i+1, err)
		}
		last = res
		env.advanceDays(1)
	}
	if last.DayNumber != 3 {
		t.Errorf("third consecutive claim day = %d, want 3", last.DayNumber)
	}
	if last.NewBalance != 10+15+20 {
		t.Errorf("balance = %d, want 45", last.NewBalance)
	}
}

func TestBonus_GapResetsStreak(t *testing.T) {
	env := newTestEnv(t)
	user := env.newUser(t, model.GenderCouple, 0)

	if _, err := env.bonus.Claim(context.Background(), user.ID); err != nil {
		t.Fatalf("Claim() error: %v", err)
	}
	env.advanceDays(2)

	res, err := env.bonus.Claim(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Claim() after gap error: %v", err)
	}
	if res.DayNumber != 1 || res.BonusAmount != 10 {
		t.Errorf("claim after gap = day %d +%d, want day 1 +10", res.DayNumber, res.BonusAmount)
	}
	if res.NewBalance != 20 {
		t.Errorf("balance = %d, want 20", res.NewBalance)
	}
}

func TestBonus_SevenDayWraparound(t *testing.T) {
	env := newTestEnv(t)
	user := env.newUser(t, model.GenderCouple, 0)

	var days []int
	for i := 0; i < 8; i++ {
		res, err := env.bonus.Claim(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("Claim() #%d error: %v", i+1, err)
		}
		days = append(days, res.DayNumber)
		env.advanceDays(1)
	}
	want := []int{1, 2, 3, 4, 5, 6, 7, 1}
	if !reflect.DeepEqual(days, want) {
		t.Errorf("day sequence = %v, want %v", days, want)
	}
}

func TestBonus_SecondClaimSameDayRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, model.GenderCouple, 0)

	if _, err := env.bonus.Claim(ctx, user.ID); err != nil {
		t.Fatalf("Claim() error: %v", err)
	}
	if _, err := env.bonus.Claim(ctx, user.ID); !errors.Is(err, ErrAlreadyClaimedToday) {
		t.Fatalf("second Claim() error = %v, want ErrAlreadyClaimedToday", err)
	}
	if got := env.balance(t, user.ID); got != 10 {
		t.Errorf("balance = %d, want 10", got)
	}
	if n := env.count(t, &model.DailyBonusClaim{}, "user_id = ?", user.ID); n != 1 {
		t.Errorf("claims = %d, want 1", n)
	}
}

func TestBonus_ConcurrentClaimsPayOnce(t *testing.T) {
	env := newTestEnv(t)
	user := env.newUser(t, model.GenderCouple, 0)

	const workers = 8
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.bonus.Claim(context.Background(), user.ID)
			if err != nil && !errors.Is(err, ErrAlreadyClaimedToday) {
				t.Errorf("Claim() error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ok != 1 {
		t.Errorf("successful claims = %d, want 1", ok)
	}
	if got := env.balance(t, user.ID); got != 10 {
		t.Errorf("balance = %d, want 10", got)
	}
}

func TestBonus_Status(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, model.GenderCouple, 0)

	st, err := env.bonus.Status(ctx, user.ID)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if st.DayNumber != 1 || st.IsClaimed || !st.CanClaim || len(st.ClaimedDays) != 0 {
		t.Errorf("fresh status = %+v", st)
	}
	if !st.NextResetAt.Equal(env.calendar.NextReset()) {
		t.Errorf("NextResetAt = %v, want %v", st.NextResetAt, env.calendar.NextReset())
	}

	if _, err := env.bonus.Claim(ctx, user.ID); err != nil {
		t.Fatalf("Claim() error: %v", err)
	}
	st, err = env.bonus.Status(ctx, user.ID)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if !st.IsClaimed || st.CanClaim || !reflect.DeepEqual(st.ClaimedDays, []int{1}) {
		t.Errorf("status after claim = %+v, want claimed with days [1]", st)
	}

	env.advanceDays(1)
	st, err = env.bonus.Status(ctx, user.ID)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if st.DayNumber != 2 || st.BonusAmount != 15 || !st.CanClaim {
		t.Errorf("next-day status = %+v, want day 2 claimable for 15", st)
	}
	if !reflect.DeepEqual(st.ClaimedDays, []int{1}) {
		t.Errorf("ClaimedDays = %v, want [1]", st.ClaimedDays)
	}

	env.advanceDays(1)
	st, err = env.bonus.Status(ctx, user.ID)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if st.DayNumber != 1 || len(st.ClaimedDays) != 0 {
		t.Errorf("status after gap = %+v, want day 1 with no claimed days", st)
	}
}
