package store

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/kitewave/creatorboard/internal/creatorboard/types"
	"github.com/stretchr/testify/require"
)

func TestGeneratePasscodesPattern(t *testing.T) {
	s := newTestStore(t)

	codes, err := s.GeneratePasscodes(context.Background(), 3, 10)
	require.NoError(t, err)
	require.Len(t, codes, 10)

	pattern := regexp.MustCompile(fmt.Sprintf(`^SILVER-%d-[0-9A-Z]{4}$`, time.Now().Year()))
	seen := map[string]struct{}{}
	for _, c := range codes {
		require.Regexp(t, pattern, c.Code)
		require.Equal(t, types.Level(3), c.Level)
		require.False(t, c.Used)
		_, dup := seen[c.Code]
		require.False(t, dup, "duplicate code %s", c.Code)
		seen[c.Code] = struct{}{}
	}

	// 8 seeded + 10 generated
	require.Len(t, s.ListPasscodes(), 18)
}

func TestGeneratePasscodesValidation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GeneratePasscodes(context.Background(), 9, 1)
	require.ErrorIs(t, err, ErrInvalidLevel)
	_, err = s.GeneratePasscodes(context.Background(), 2, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestValidatePasscodeCaseInsensitive(t *testing.T) {
	s := newTestStore(t)

	level, err := s.ValidatePasscode("silver-2024-i9j0")
	require.NoError(t, err)
	require.Equal(t, types.Level(3), level)

	_, err = s.ValidatePasscode("SILVER-2024-XXXX")
	require.ErrorIs(t, err, ErrPasscodeInvalid)
}

func TestConsumePasscodeExactlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	level, err := s.ConsumePasscode(ctx, "GOLD-2024-K1L2", "u1")
	require.NoError(t, err)
	require.Equal(t, types.Level(4), level)

	_, err = s.ConsumePasscode(ctx, "gold-2024-k1l2", "u2")
	require.ErrorIs(t, err, ErrPasscodeInvalid)

	for _, p := range s.ListPasscodes() {
		if p.Code == "GOLD-2024-K1L2" {
			require.True(t, p.Used)
			require.Equal(t, "u1", p.UsedBy)
			require.NotNil(t, p.UsedAt)
			return
		}
	}
	t.Fatal("consumed passcode not found")
}

func TestValidateAfterConsumeFails(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ConsumePasscode(context.Background(), "PLAT-2024-M3N4", "u1")
	require.NoError(t, err)
	_, err = s.ValidatePasscode("PLAT-2024-M3N4")
	require.ErrorIs(t, err, ErrPasscodeInvalid)
}
