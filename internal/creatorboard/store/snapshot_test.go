package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/kitewave/creatorboard/internal/creatorboard/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisSnapshots(t *testing.T) *RedisSnapshots {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return NewRedisSnapshots(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func asJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestRedisSnapshotsRoundTrip(t *testing.T) {
	snaps := newRedisSnapshots(t)
	ctx := context.Background()
	seed := AdminSeed{Name: "System Admin", Email: "admin@agency.com", PasswordHash: "not-a-real-hash"}

	s1, err := New(ctx, snaps, seed, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s1.AddUser(ctx, &types.User{
		ID:           "u1",
		Name:         "User u1",
		Email:        "u1@example.com",
		Role:         types.RoleUser,
		Level:        2,
		ReferralCode: "REF-u1",
		Status:       types.StatusActive,
		KYCStatus:    types.KYCNotSubmitted,
	}))
	_, err = s1.AddTask(ctx, types.AssignedTask{ID: "task-1", Reward: 1.5, Status: types.TaskPending}, "", 0)
	require.NoError(t, err)
	require.NoError(t, s1.AddWithdrawal(ctx, &types.Withdrawal{ID: "w1", UserID: "u1", Amount: 15}))
	_, err = s1.GeneratePasscodes(ctx, 2, 3)
	require.NoError(t, err)
	require.NoError(t, s1.SetCurrency(ctx, "ngn"))

	// a fresh store over the same backend must see identical records
	s2, err := New(ctx, snaps, seed, zap.NewNop())
	require.NoError(t, err)

	require.JSONEq(t, asJSON(t, s1.ListUsers()), asJSON(t, s2.ListUsers()))
	require.JSONEq(t, asJSON(t, s1.ListTasks()), asJSON(t, s2.ListTasks()))
	require.JSONEq(t, asJSON(t, s1.ListWithdrawals()), asJSON(t, s2.ListWithdrawals()))
	require.JSONEq(t, asJSON(t, s1.ListPasscodes()), asJSON(t, s2.ListPasscodes()))
	require.Equal(t, "NGN", s2.Currency())
}

func TestCorruptSnapshotFallsBackToSeeds(t *testing.T) {
	snaps := newRedisSnapshots(t)
	ctx := context.Background()

	require.NoError(t, snaps.Save(ctx, KeyUsers, []byte("{not json")))
	require.NoError(t, snaps.Save(ctx, KeyPasscodes, []byte("also not json")))

	s, err := New(ctx, snaps, AdminSeed{Name: "System Admin", Email: "admin@agency.com", PasswordHash: "x"}, zap.NewNop())
	require.NoError(t, err)

	users := s.ListUsers()
	require.Len(t, users, 1)
	require.Equal(t, types.RoleAdmin, users[0].Role)
	require.Len(t, s.ListPasscodes(), 8)
}

func TestAdminReseededWhenMissing(t *testing.T) {
	snaps := NewMemorySnapshots()
	ctx := context.Background()

	// a users snapshot that lost its admin record
	data, err := json.Marshal([]*types.User{{
		ID:           "u1",
		Email:        "u1@example.com",
		Role:         types.RoleUser,
		ReferralCode: "REF-u1",
	}})
	require.NoError(t, err)
	require.NoError(t, snaps.Save(ctx, KeyUsers, data))

	s, err := New(ctx, snaps, AdminSeed{Name: "System Admin", Email: "admin@agency.com", PasswordHash: "x"}, zap.NewNop())
	require.NoError(t, err)

	users := s.ListUsers()
	require.Len(t, users, 2)
	// the default admin is prepended
	require.Equal(t, types.RoleAdmin, users[0].Role)
	require.Equal(t, "admin-001", users[0].ID)
}
