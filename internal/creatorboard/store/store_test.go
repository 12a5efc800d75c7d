package store

import (
	"context"
	"testing"

	"github.com/kitewave/creatorboard/internal/creatorboard/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), NewMemorySnapshots(), AdminSeed{
		Name:         "System Admin",
		Email:        "admin@agency.com",
		PasswordHash: "not-a-real-hash",
	}, zap.NewNop())
	require.NoError(t, err)
	return s
}

func addTestUser(t *testing.T, s *Store, id string, level types.Level) {
	t.Helper()
	err := s.AddUser(context.Background(), &types.User{
		ID:           id,
		Name:         "User " + id,
		Email:        id + "@example.com",
		Role:         types.RoleUser,
		Level:        level,
		ReferralCode: "REF-" + id,
		JoinDate:     "2025-01-01",
		Status:       types.StatusActive,
		KYCStatus:    types.KYCNotSubmitted,
	})
	require.NoError(t, err)
}

func TestNewSeedsAdminAndPasscodes(t *testing.T) {
	s := newTestStore(t)

	admin, err := s.GetUserByEmail("ADMIN@agency.com")
	require.NoError(t, err)
	require.Equal(t, types.RoleAdmin, admin.Role)
	require.Equal(t, "admin-001", admin.ID)
	require.True(t, admin.KYCVerified())

	codes := s.ListPasscodes()
	require.Len(t, codes, 8)
	for _, c := range codes {
		require.False(t, c.Used)
	}
}

func TestAddUserBumpsReferrerCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addTestUser(t, s, "u1", 1)

	err := s.AddUser(ctx, &types.User{
		ID:           "u2",
		Email:        "u2@example.com",
		Role:         types.RoleUser,
		Level:        1,
		ReferralCode: "REF-u2",
		ReferredBy:   "ref-U1", // lookup is case-insensitive
		Status:       types.StatusActive,
	})
	require.NoError(t, err)

	referrer, err := s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, 1, referrer.ReferralCount)
}

func TestAddUserRejectsDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	addTestUser(t, s, "u1", 1)

	err := s.AddUser(context.Background(), &types.User{
		ID:    "u2",
		Email: "U1@EXAMPLE.COM",
		Role:  types.RoleUser,
	})
	require.ErrorIs(t, err, ErrUserAlreadyExist)
}

func TestAdjustBalanceClampsAtZero(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addTestUser(t, s, "u1", 1)

	balance, err := s.AdjustBalance(ctx, "u1", 10, types.BalanceAdd, types.ReasonAdmin)
	require.NoError(t, err)
	require.Equal(t, 10.0, balance)

	balance, err = s.AdjustBalance(ctx, "u1", 25, types.BalanceSubtract, types.ReasonAdmin)
	require.NoError(t, err)
	require.Equal(t, 0.0, balance)
}

func TestAdjustBalanceEarningsCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addTestUser(t, s, "u1", 1)

	_, err := s.AdjustBalance(ctx, "u1", 5, types.BalanceAdd, types.ReasonTask)
	require.NoError(t, err)
	_, err = s.AdjustBalance(ctx, "u1", 3, types.BalanceAdd, types.ReasonReferral)
	require.NoError(t, err)
	_, err = s.AdjustBalance(ctx, "u1", 4, types.BalanceSubtract, types.ReasonAdmin)
	require.NoError(t, err)

	u, err := s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, 4.0, u.TotalBalance)
	// lifetime counters are never reduced by subtraction
	require.Equal(t, 5.0, u.TaskEarnings)
	require.Equal(t, 3.0, u.ReferralEarnings)
}

func TestAdjustBalanceRejectsNonPositiveAmount(t *testing.T) {
	s := newTestStore(t)
	addTestUser(t, s, "u1", 1)

	_, err := s.AdjustBalance(context.Background(), "u1", 0, types.BalanceAdd, types.ReasonAdmin)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = s.AdjustBalance(context.Background(), "u1", -5, types.BalanceAdd, types.ReasonAdmin)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAddTaskLevelFanout(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addTestUser(t, s, "u1", 2)
	addTestUser(t, s, "u2", 2)
	addTestUser(t, s, "u3", 3)

	task := types.AssignedTask{ID: "task-abc", Platform: types.PlatformTikTok, Title: "Post", Reward: 1, Status: types.TaskPending}
	assigned, err := s.AddTask(ctx, task, "", 2)
	require.NoError(t, err)
	require.Equal(t, 2, assigned)

	for _, id := range []string{"u1", "u2"} {
		tasks, err := s.ListUserTasks(id)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		require.Equal(t, "task-abc-"+id, tasks[0].ID)
	}
	tasks, err := s.ListUserTasks("u3")
	require.NoError(t, err)
	require.Empty(t, tasks)

	// one canonical entry regardless of fan-out size
	require.Len(t, s.ListTasks(), 1)
	require.Equal(t, "task-abc", s.ListTasks()[0].ID)
}

func TestAddTaskBroadcastSkipsAdmins(t *testing.T) {
	s := newTestStore(t)
	addTestUser(t, s, "u1", 1)
	addTestUser(t, s, "u2", 4)

	assigned, err := s.AddTask(context.Background(), types.AssignedTask{ID: "task-b", Status: types.TaskPending}, "", 0)
	require.NoError(t, err)
	require.Equal(t, 2, assigned)

	admin, err := s.GetUserByEmail("admin@agency.com")
	require.NoError(t, err)
	require.Empty(t, admin.AssignedTasks)
}

func TestAddTaskSingleTargetKeepsID(t *testing.T) {
	s := newTestStore(t)
	addTestUser(t, s, "u1", 1)
	addTestUser(t, s, "u2", 1)

	assigned, err := s.AddTask(context.Background(), types.AssignedTask{ID: "task-c", Status: types.TaskPending}, "u1", 0)
	require.NoError(t, err)
	require.Equal(t, 1, assigned)

	tasks, err := s.ListUserTasks("u1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "task-c", tasks[0].ID)

	tasks, err = s.ListUserTasks("u2")
	require.NoError(t, err)
	require.Empty(t, tasks)
}

func TestSubmitAndApproveTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addTestUser(t, s, "u1", 1)
	_, err := s.AddTask(ctx, types.AssignedTask{ID: "task-d", Reward: 2.5, Status: types.TaskPending}, "u1", 0)
	require.NoError(t, err)

	submitted, err := s.SubmitTask(ctx, "u1", "task-d", "@creator")
	require.NoError(t, err)
	require.Equal(t, types.TaskSubmitted, submitted.Status)
	require.Equal(t, "@creator", submitted.SubmittedHandle)
	require.NotNil(t, submitted.SubmittedAt)

	// a submitted task cannot be submitted twice
	_, err = s.SubmitTask(ctx, "u1", "task-d", "@creator")
	require.ErrorIs(t, err, ErrTaskNotSubmittable)

	balance, err := s.ApproveTask(ctx, "u1", "task-d")
	require.NoError(t, err)
	require.Equal(t, 2.5, balance)

	u, err := s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, 2.5, u.TaskEarnings)
	require.Equal(t, types.TaskCompleted, u.AssignedTasks[0].Status)

	// approving again must not double-credit
	_, err = s.ApproveTask(ctx, "u1", "task-d")
	require.ErrorIs(t, err, ErrTaskAlreadyDecided)
	u, err = s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, 2.5, u.TotalBalance)
}

func TestRejectTaskHasNoBalanceEffect(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addTestUser(t, s, "u1", 1)
	_, err := s.AddTask(ctx, types.AssignedTask{ID: "task-e", Reward: 2, Status: types.TaskPending}, "u1", 0)
	require.NoError(t, err)
	_, err = s.SubmitTask(ctx, "u1", "task-e", "@creator")
	require.NoError(t, err)

	require.NoError(t, s.RejectTask(ctx, "u1", "task-e"))

	u, err := s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, 0.0, u.TotalBalance)
	require.Equal(t, types.TaskRejected, u.AssignedTasks[0].Status)

	require.ErrorIs(t, s.RejectTask(ctx, "u1", "task-e"), ErrTaskAlreadyDecided)
}

func TestListPendingSubmissions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addTestUser(t, s, "u1", 1)
	addTestUser(t, s, "u2", 1)
	_, err := s.AddTask(ctx, types.AssignedTask{ID: "task-f", Status: types.TaskPending}, "", 0)
	require.NoError(t, err)
	_, err = s.SubmitTask(ctx, "u1", "task-f-u1", "@one")
	require.NoError(t, err)

	subs := s.ListPendingSubmissions()
	require.Len(t, subs, 1)
	require.Equal(t, "u1", subs[0].User.ID)
	require.Equal(t, "task-f-u1", subs[0].Task.ID)
}

func TestDecideWithdrawalApproveDeductsOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addTestUser(t, s, "u1", 1)
	_, err := s.AdjustBalance(ctx, "u1", 20, types.BalanceAdd, types.ReasonAdmin)
	require.NoError(t, err)
	require.NoError(t, s.AddWithdrawal(ctx, &types.Withdrawal{ID: "w1", UserID: "u1", UserName: "User u1", Amount: 15}))

	w, err := s.DecideWithdrawal(ctx, "w1", true, "paid")
	require.NoError(t, err)
	require.Equal(t, types.WithdrawalApproved, w.Status)
	require.NotNil(t, w.ProcessedAt)
	require.Equal(t, "paid", w.AdminNote)

	u, err := s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, 5.0, u.TotalBalance)

	// re-deciding a processed request must not double-deduct
	_, err = s.DecideWithdrawal(ctx, "w1", true, "again")
	require.ErrorIs(t, err, ErrWithdrawalProcessed)
	u, err = s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, 5.0, u.TotalBalance)
}

func TestDecideWithdrawalRejectKeepsBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addTestUser(t, s, "u1", 1)
	_, err := s.AdjustBalance(ctx, "u1", 20, types.BalanceAdd, types.ReasonAdmin)
	require.NoError(t, err)
	require.NoError(t, s.AddWithdrawal(ctx, &types.Withdrawal{ID: "w2", UserID: "u1", Amount: 15}))

	w, err := s.DecideWithdrawal(ctx, "w2", false, "details mismatch")
	require.NoError(t, err)
	require.Equal(t, types.WithdrawalRejected, w.Status)

	u, err := s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, 20.0, u.TotalBalance)
}

func TestKYCLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addTestUser(t, s, "u1", 1)

	require.NoError(t, s.SubmitKYC(ctx, "u1", types.KYCDocuments{IDType: types.IDPassport, IDNumber: "A1234567"}))
	u, err := s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, types.KYCPending, u.KYCStatus)
	require.False(t, u.KYCVerified())
	require.NotNil(t, u.KYCDocuments)
	require.False(t, u.KYCDocuments.SubmittedAt.IsZero())

	require.NoError(t, s.RejectKYC(ctx, "u1"))
	u, err = s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, types.KYCRejected, u.KYCStatus)

	// a rejected user may submit again and goes back to pending
	require.NoError(t, s.SubmitKYC(ctx, "u1", types.KYCDocuments{IDType: types.IDNationalID, IDNumber: "B7654321"}))
	u, err = s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, types.KYCPending, u.KYCStatus)
	require.Equal(t, types.IDNationalID, u.KYCDocuments.IDType)

	require.NoError(t, s.ApproveKYC(ctx, "u1"))
	u, err = s.GetUserByID("u1")
	require.NoError(t, err)
	require.True(t, u.KYCVerified())
}

func TestBanUnban(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addTestUser(t, s, "u1", 1)

	require.NoError(t, s.BanUser(ctx, "u1"))
	u, err := s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, types.StatusBanned, u.Status)

	require.NoError(t, s.UnbanUser(ctx, "u1"))
	u, err = s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, types.StatusActive, u.Status)
}

func TestSetReferralEarningsMovesBalanceByDelta(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addTestUser(t, s, "u1", 1)
	_, err := s.AdjustBalance(ctx, "u1", 10, types.BalanceAdd, types.ReasonAdmin)
	require.NoError(t, err)

	require.NoError(t, s.SetReferralEarnings(ctx, "u1", 7))
	u, err := s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, 7.0, u.ReferralEarnings)
	require.Equal(t, 17.0, u.TotalBalance)

	// lowering the override pulls the delta back out, floored at zero
	require.NoError(t, s.SetReferralEarnings(ctx, "u1", 2))
	u, err = s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, 2.0, u.ReferralEarnings)
	require.Equal(t, 12.0, u.TotalBalance)
}

func TestUpdateUserUnknownID(t *testing.T) {
	s := newTestStore(t)
	name := "Renamed"
	require.ErrorIs(t, s.UpdateUser(context.Background(), "missing", types.UserPatch{Name: &name}), ErrUserNotExist)
}

func TestUpdateUserPatchMergesFields(t *testing.T) {
	s := newTestStore(t)
	addTestUser(t, s, "u1", 1)
	name := "Renamed"
	country := "Ghana"
	require.NoError(t, s.UpdateUser(context.Background(), "u1", types.UserPatch{Name: &name, Country: &country}))

	u, err := s.GetUserByID("u1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", u.Name)
	require.Equal(t, "Ghana", u.Country)
	require.Equal(t, "u1@example.com", u.Email)
}

func TestUpdateTaskPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addTestUser(t, s, "u1", 1)
	_, err := s.AddTask(ctx, types.AssignedTask{ID: "task-g", Status: types.TaskPending}, "u1", 0)
	require.NoError(t, err)

	status := types.TaskSubmitted
	handle := "@patched"
	require.NoError(t, s.UpdateTask(ctx, "task-g", "u1", types.TaskPatch{Status: &status, SubmittedHandle: &handle}))

	tasks, err := s.ListUserTasks("u1")
	require.NoError(t, err)
	require.Equal(t, types.TaskSubmitted, tasks[0].Status)
	require.Equal(t, "@patched", tasks[0].SubmittedHandle)

	// the flat history keeps the creation state
	require.Equal(t, types.TaskPending, s.ListTasks()[0].Status)
}
