package workflow

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/carebridge-health/carechain_backend/config"
	"github.com/carebridge-health/carechain_backend/models"
	"github.com/sirupsen/logrus"
)

// NOTE: These tests are intentionally DB-free. They validate the incentive
// semantics: the streak rule over calendar days and the reward derived from
// it. Credit persistence (locking, idempotency, minting) needs MySQL + Redis
// and is covered by integration tests in an environment that can run them.

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return d
}

func TestNextStreak(t *testing.T) {
	cases := []struct {
		name    string
		current int
		last    string // empty means never credited
		now     string
		want    int
	}{
		{"first ever action", 0, "", "2025-06-10", 1},
		{"same day repeat keeps streak", 4, "2025-06-10", "2025-06-10", 4},
		{"consecutive day increments", 4, "2025-06-09", "2025-06-10", 5},
		{"two day gap resets", 9, "2025-06-08", "2025-06-10", 1},
		{"long gap resets", 30, "2025-01-01", "2025-06-10", 1},
		{"month boundary still consecutive", 2, "2025-05-31", "2025-06-01", 3},
		{"year boundary still consecutive", 7, "2024-12-31", "2025-01-01", 8},
		{"same day with corrupt zero streak heals to one", 0, "2025-06-10", "2025-06-10", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var last *time.Time
			if tc.last != "" {
				d := mustDate(t, tc.last)
				last = &d
			}
			got := NextStreak(tc.current, last, mustDate(t, tc.now))
			if got != tc.want {
				t.Fatalf("NextStreak(%d, %s, %s) = %d, want %d", tc.current, tc.last, tc.now, got, tc.want)
			}
		})
	}
}

func TestNextStreak_TimeOfDayIrrelevant(t *testing.T) {
	// 23:59 yesterday followed by 00:01 today is still consecutive.
	last := time.Date(2025, 6, 9, 23, 59, 0, 0, time.UTC)
	now := time.Date(2025, 6, 10, 0, 1, 0, 0, time.UTC)
	if got := NextStreak(2, &last, now); got != 3 {
		t.Fatalf("NextStreak across midnight = %d, want 3", got)
	}
}

func TestCarePointsReward(t *testing.T) {
	rw := config.RewardConfig{BaseReward: 10, StreakBonus: 2, ReferralReward: 15}

	cases := []struct {
		streak int
		want   int
	}{
		{1, 12},
		{3, 16},
		{10, 30},
	}
	for _, tc := range cases {
		if got := CarePointsReward(rw, tc.streak); got != tc.want {
			t.Fatalf("CarePointsReward(streak=%d) = %d, want %d", tc.streak, got, tc.want)
		}
	}
}

func TestStreakAndRewardOverAWeek(t *testing.T) {
	// A doctor crediting once a day: streak climbs, reward climbs with it.
	rw := config.RewardConfig{BaseReward: 10, StreakBonus: 2, ReferralReward: 15}

	var last *time.Time
	streak := 0
	day := mustDate(t, "2025-06-01")
	for i := 1; i <= 7; i++ {
		streak = NextStreak(streak, last, day)
		if streak != i {
			t.Fatalf("day %d: streak = %d", i, streak)
		}
		if got, want := CarePointsReward(rw, streak), 10+2*i; got != want {
			t.Fatalf("day %d: reward = %d, want %d", i, got, want)
		}
		d := day
		last = &d
		day = day.AddDate(0, 0, 1)
	}

	// Missing a day drops the streak back to one.
	day = day.AddDate(0, 0, 1)
	if streak = NextStreak(streak, last, day); streak != 1 {
		t.Fatalf("after a missed day: streak = %d", streak)
	}
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("MMT", 6*3600+1800)
	// 2025-06-10 03:00 +06:30 is 2025-06-09 20:30 UTC.
	ts := time.Date(2025, 6, 10, 3, 0, 0, 0, loc)
	got := DateOnly(ts)
	want := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("DateOnly = %v, want %v", got, want)
	}
}

func TestMintAmountInBounds(t *testing.T) {
	cases := []struct {
		amount int
		want   bool
	}{
		{0, false},
		{-5, false},
		{MintAmountMin, true},
		{12, true},
		{MintAmountMax, true},
		{MintAmountMax + 1, false},
	}
	for _, tc := range cases {
		if got := mintAmountInBounds(tc.amount); got != tc.want {
			t.Fatalf("mintAmountInBounds(%d) = %v, want %v", tc.amount, got, tc.want)
		}
	}

	// Every reward a sane config can produce is mintable.
	rw := config.RewardConfig{BaseReward: 10, StreakBonus: 2, ReferralReward: 15}
	if !mintAmountInBounds(CarePointsReward(rw, 1)) || !mintAmountInBounds(rw.ReferralReward) {
		t.Fatal("configured rewards must fall inside the mint bounds")
	}
}

type fakeBalanceQuerier struct {
	qty   int64
	err   error
	calls int
}

func (f *fakeBalanceQuerier) CarePointsBalance(ctx context.Context, address string) (int64, error) {
	f.calls++
	return f.qty, f.err
}

func TestSyncCarePointsBalance_LeavesLocalUntouched(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cases := []struct {
		name string
		qty  int64
		err  error
	}{
		{"remote zero", 0, nil},
		{"remote negative", -3, nil},
		{"query failure", 0, errors.New("blockfrost unavailable")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doctor := &models.DoctorProfile{
				ID:                7,
				CardanoAddress:    "addr_test1xyz",
				CarePointsBalance: 42,
			}
			q := &fakeBalanceQuerier{qty: tc.qty, err: tc.err}
			// db is nil: these branches must return before any DB access.
			SyncCarePointsBalance(context.Background(), nil, logger, q, doctor)

			if q.calls != 1 {
				t.Fatalf("querier calls = %d, want 1", q.calls)
			}
			if doctor.CarePointsBalance != 42 {
				t.Fatalf("local balance overwritten to %d", doctor.CarePointsBalance)
			}
		})
	}
}

func TestSyncCarePointsBalance_SkipsWithoutAddress(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	doctor := &models.DoctorProfile{ID: 7, CarePointsBalance: 42}
	q := &fakeBalanceQuerier{qty: 100}
	SyncCarePointsBalance(context.Background(), nil, logger, q, doctor)
	if q.calls != 0 {
		t.Fatalf("querier called for a doctor with no reward address")
	}
	if doctor.CarePointsBalance != 42 {
		t.Fatalf("local balance changed to %d", doctor.CarePointsBalance)
	}
}

func TestCreditMessageId(t *testing.T) {
	// A client retrying with the same token presents the same key, even
	// though each attempt generates a fresh server-side id.
	first := CreditMessageId("record", "tok-123", "PAT-AAAA1111")
	retry := CreditMessageId("record", "tok-123", "PAT-BBBB2222")
	if first != retry {
		t.Fatalf("same token diverged: %q vs %q", first, retry)
	}
	if first != "record:tok-123" {
		t.Fatalf("message id shape: %q", first)
	}

	// Whitespace-only tokens count as absent.
	if got := CreditMessageId("record", "   ", "PAT-AAAA1111"); got != "record:PAT-AAAA1111" {
		t.Fatalf("blank token should fall back: %q", got)
	}

	// Without a token, retries fall back to per-request ids and never collide.
	a := CreditMessageId("referral", "", "41")
	b := CreditMessageId("referral", "", "42")
	if a == b {
		t.Fatalf("distinct fallbacks collided: %q", a)
	}
}
