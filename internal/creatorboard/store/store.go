package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/kitewave/creatorboard/internal/creatorboard/types"
	"go.uber.org/zap"
)

const defaultCurrency = "USD"

// Store is the sole authority over the entity collections. Every mutation
// happens under one mutex and is mirrored to the snapshot backend before the
// call returns, so compound operations (approve task, decide withdrawal,
// consume passcode) are atomic from any caller's point of view.
type Store struct {
	mu          sync.Mutex
	users       []*types.User
	tasks       []*types.AssignedTask
	withdrawals []*types.Withdrawal
	passcodes   []*types.Passcode
	currency    string

	snaps  Snapshots
	logger *zap.Logger
}

// New loads all collections from the snapshot backend. Missing or corrupt
// snapshots fall back to seed state: a default admin record when no admin
// exists and the fixed passcode set when no passcodes exist.
func New(ctx context.Context, snaps Snapshots, seed AdminSeed, logger *zap.Logger) (*Store, error) {
	s := &Store{
		snaps:    snaps,
		logger:   logger.Named("store"),
		currency: defaultCurrency,
	}

	s.users = loadCollection[*types.User](ctx, snaps, KeyUsers, s.logger)
	s.tasks = loadCollection[*types.AssignedTask](ctx, snaps, KeyTasks, s.logger)
	s.withdrawals = loadCollection[*types.Withdrawal](ctx, snaps, KeyWithdrawals, s.logger)
	s.passcodes = loadCollection[*types.Passcode](ctx, snaps, KeyPasscodes, s.logger)

	hasAdmin := false
	for _, u := range s.users {
		if u.Role == types.RoleAdmin {
			hasAdmin = true
			break
		}
	}
	if !hasAdmin {
		s.users = append([]*types.User{seedAdmin(seed)}, s.users...)
	}
	if len(s.passcodes) == 0 {
		s.passcodes = seedPasscodes()
	}

	var storedCurrency string
	if data, err := snaps.Load(ctx, KeyCurrency); err == nil {
		if err := json.Unmarshal(data, &storedCurrency); err == nil && storedCurrency != "" {
			s.currency = storedCurrency
		}
	}

	if err := s.persist(ctx, KeyUsers, s.users); err != nil {
		return nil, errors.Wrap(err, "persist users failed: ")
	}
	if err := s.persist(ctx, KeyPasscodes, s.passcodes); err != nil {
		return nil, errors.Wrap(err, "persist passcodes failed: ")
	}
	return s, nil
}

// loadCollection is fail-open: a missing or unreadable snapshot yields an
// empty collection rather than an error.
func loadCollection[T any](ctx context.Context, snaps Snapshots, key string, logger *zap.Logger) []T {
	data, err := snaps.Load(ctx, key)
	if errors.Is(err, ErrSnapshotMissing) {
		return nil
	}
	if err != nil {
		logger.Warn("snapshot load failed, using defaults", zap.String("key", key), zap.Error(err))
		return nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		logger.Warn("snapshot corrupt, using defaults", zap.String("key", key), zap.Error(err))
		return nil
	}
	return out
}

func (s *Store) persist(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "json.Marshal failed: ")
	}
	if err := s.snaps.Save(ctx, key, data); err != nil {
		return errors.Wrap(err, "snaps.Save failed: ")
	}
	return nil
}

func (s *Store) persistUsers(ctx context.Context) error {
	return s.persist(ctx, KeyUsers, s.users)
}

func (s *Store) findUser(id string) *types.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// AddUser appends the user and, when referred_by resolves to an existing
// referral code, bumps that referrer's count by one. Duplicate emails are
// rejected here as well as in the registration flow.
func (s *Store) AddUser(ctx context.Context, user *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrUserAlreadyExist
		}
	}
	stored := user.Clone()
	if stored.AssignedTasks == nil {
		stored.AssignedTasks = []types.AssignedTask{}
	}
	s.users = append(s.users, stored)

	if stored.ReferredBy != "" {
		for _, u := range s.users {
			if strings.EqualFold(u.ReferralCode, stored.ReferredBy) {
				u.ReferralCount++
				break
			}
		}
	}
	return s.persistUsers(ctx)
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch types.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(id)
	if u == nil {
		return ErrUserNotExist
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.Country != nil {
		u.Country = *patch.Country
	}
	return s.persistUsers(ctx)
}

func (s *Store) GetUserByID(id string) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.findUser(id); u != nil {
		return u.Clone(), nil
	}
	return nil, ErrUserNotExist
}

func (s *Store) GetUserByEmail(email string) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u.Clone(), nil
		}
	}
	return nil, ErrUserNotExist
}

func (s *Store) GetUserByReferralCode(code string) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.ReferralCode, code) {
			return u.Clone(), nil
		}
	}
	return nil, ErrUserNotExist
}

func (s *Store) ListUsers() []*types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Clone())
	}
	return out
}

// AddTask appends the canonical record to the flat history list and fans the
// task out to user queues: a single recipient keeps the canonical id, while
// level-targeted and broadcast clones get ids suffixed with the recipient's
// user id. Admins never receive clones. Returns the number of recipients.
func (s *Store) AddTask(ctx context.Context, task types.AssignedTask, targetUserID string, targetLevel types.Level) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	canonical := task
	s.tasks = append(s.tasks, &canonical)

	assigned := 0
	switch {
	case targetUserID != "":
		u := s.findUser(targetUserID)
		if u == nil {
			s.tasks = s.tasks[:len(s.tasks)-1]
			return 0, ErrUserNotExist
		}
		u.AssignedTasks = append(u.AssignedTasks, task)
		assigned = 1
	case targetLevel != 0:
		for _, u := range s.users {
			if u.Role == types.RoleAdmin || u.Level != targetLevel {
				continue
			}
			clone := task
			clone.ID = fmt.Sprintf("%s-%s", task.ID, u.ID)
			u.AssignedTasks = append(u.AssignedTasks, clone)
			assigned++
		}
	default:
		for _, u := range s.users {
			if u.Role == types.RoleAdmin {
				continue
			}
			clone := task
			clone.ID = fmt.Sprintf("%s-%s", task.ID, u.ID)
			u.AssignedTasks = append(u.AssignedTasks, clone)
			assigned++
		}
	}

	if err := s.persist(ctx, KeyTasks, s.tasks); err != nil {
		return assigned, err
	}
	return assigned, s.persistUsers(ctx)
}

func (s *Store) findAssignedTask(u *types.User, taskID string) *types.AssignedTask {
	for i := range u.AssignedTasks {
		if u.AssignedTasks[i].ID == taskID {
			return &u.AssignedTasks[i]
		}
	}
	return nil
}

// UpdateTask merges the patch into the task inside that user's queue. The
// flat history list keeps the original creation state on purpose.
func (s *Store) UpdateTask(ctx context.Context, taskID, userID string, patch types.TaskPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil {
		return ErrUserNotExist
	}
	t := s.findAssignedTask(u, taskID)
	if t == nil {
		return ErrTaskNotExist
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.SubmittedHandle != nil {
		t.SubmittedHandle = *patch.SubmittedHandle
	}
	if patch.SubmittedAt != nil {
		t.SubmittedAt = patch.SubmittedAt
	}
	return s.persistUsers(ctx)
}

// SubmitTask moves one of the user's pending tasks to submitted, recording
// the handle and submission time.
func (s *Store) SubmitTask(ctx context.Context, userID, taskID, handle string) (types.AssignedTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil {
		return types.AssignedTask{}, ErrUserNotExist
	}
	t := s.findAssignedTask(u, taskID)
	if t == nil {
		return types.AssignedTask{}, ErrTaskNotExist
	}
	if t.Status != types.TaskPending {
		return types.AssignedTask{}, ErrTaskNotSubmittable
	}
	now := time.Now()
	t.Status = types.TaskSubmitted
	t.SubmittedHandle = handle
	t.SubmittedAt = &now
	if err := s.persistUsers(ctx); err != nil {
		return types.AssignedTask{}, err
	}
	return *t, nil
}

// ApproveTask completes a submitted task and credits its reward as task
// earnings in the same critical section, so the status transition and the
// balance credit cannot be torn apart.
func (s *Store) ApproveTask(ctx context.Context, userID, taskID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil {
		return 0, ErrUserNotExist
	}
	t := s.findAssignedTask(u, taskID)
	if t == nil {
		return 0, ErrTaskNotExist
	}
	switch t.Status {
	case types.TaskSubmitted:
	case types.TaskCompleted, types.TaskRejected:
		return 0, ErrTaskAlreadyDecided
	default:
		return 0, ErrTaskNotSubmittable
	}
	t.Status = types.TaskCompleted
	applyBalance(u, t.Reward, types.BalanceAdd, types.ReasonTask)
	if err := s.persistUsers(ctx); err != nil {
		return 0, err
	}
	return u.TotalBalance, nil
}

func (s *Store) RejectTask(ctx context.Context, userID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil {
		return ErrUserNotExist
	}
	t := s.findAssignedTask(u, taskID)
	if t == nil {
		return ErrTaskNotExist
	}
	switch t.Status {
	case types.TaskSubmitted:
	case types.TaskCompleted, types.TaskRejected:
		return ErrTaskAlreadyDecided
	default:
		return ErrTaskNotSubmittable
	}
	t.Status = types.TaskRejected
	return s.persistUsers(ctx)
}

func (s *Store) ListUserTasks(userID string) ([]types.AssignedTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.findUser(userID)
	if u == nil {
		return nil, ErrUserNotExist
	}
	out := make([]types.AssignedTask, len(u.AssignedTasks))
	copy(out, u.AssignedTasks)
	return out, nil
}

// ListTasks returns the flat creation history, one entry per creation event
// regardless of fan-out size.
func (s *Store) ListTasks() []types.AssignedTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AssignedTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	return out
}

func (s *Store) ListPendingSubmissions() []types.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Submission
	for _, u := range s.users {
		for _, t := range u.AssignedTasks {
			if t.Status == types.TaskSubmitted {
				out = append(out, types.Submission{Task: t, User: u.Profile()})
			}
		}
	}
	return out
}

// applyBalance adjusts the balance with a floor of zero. Task and referral
// credits also feed the lifetime earnings counters; subtraction never reduces
// those counters.
func applyBalance(u *types.User, amount float64, direction types.BalanceDirection, reason types.BalanceReason) {
	delta := amount
	if direction == types.BalanceSubtract {
		delta = -amount
	}
	newBalance := u.TotalBalance + delta
	if newBalance < 0 {
		newBalance = 0
	}
	u.TotalBalance = newBalance
	if direction == types.BalanceAdd {
		switch reason {
		case types.ReasonTask:
			u.TaskEarnings += amount
		case types.ReasonReferral:
			u.ReferralEarnings += amount
		}
	}
}

func (s *Store) AdjustBalance(ctx context.Context, userID string, amount float64, direction types.BalanceDirection, reason types.BalanceReason) (float64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil {
		return 0, ErrUserNotExist
	}
	applyBalance(u, amount, direction, reason)
	if err := s.persistUsers(ctx); err != nil {
		return 0, err
	}
	return u.TotalBalance, nil
}

// SubmitKYC stores a documents snapshot and moves the status to pending. A
// rejected user may submit again; the new documents replace the old ones.
func (s *Store) SubmitKYC(ctx context.Context, userID string, docs types.KYCDocuments) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil {
		return ErrUserNotExist
	}
	if docs.SubmittedAt.IsZero() {
		docs.SubmittedAt = time.Now()
	}
	u.KYCStatus = types.KYCPending
	u.KYCDocuments = &docs
	return s.persistUsers(ctx)
}

func (s *Store) setKYCStatus(ctx context.Context, userID string, status types.KYCStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil {
		return ErrUserNotExist
	}
	u.KYCStatus = status
	return s.persistUsers(ctx)
}

func (s *Store) ApproveKYC(ctx context.Context, userID string) error {
	return s.setKYCStatus(ctx, userID, types.KYCApproved)
}

func (s *Store) RejectKYC(ctx context.Context, userID string) error {
	return s.setKYCStatus(ctx, userID, types.KYCRejected)
}

func (s *Store) SetLevel(ctx context.Context, userID string, level types.Level) error {
	if !level.Valid() {
		return ErrInvalidLevel
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil {
		return ErrUserNotExist
	}
	u.Level = level
	return s.persistUsers(ctx)
}

func (s *Store) SetReferralCount(ctx context.Context, userID string, count int) error {
	if count < 0 {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil {
		return ErrUserNotExist
	}
	u.ReferralCount = count
	return s.persistUsers(ctx)
}

func (s *Store) SetReferralBonusRate(ctx context.Context, userID string, rate float64) error {
	if rate < 0 {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil {
		return ErrUserNotExist
	}
	u.ReferralBonusRate = rate
	return s.persistUsers(ctx)
}

// SetReferralEarnings overrides the lifetime referral counter and applies the
// difference to the balance, floored at zero.
func (s *Store) SetReferralEarnings(ctx context.Context, userID string, earnings float64) error {
	if earnings < 0 {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil {
		return ErrUserNotExist
	}
	delta := earnings - u.ReferralEarnings
	u.ReferralEarnings = earnings
	newBalance := u.TotalBalance + delta
	if newBalance < 0 {
		newBalance = 0
	}
	u.TotalBalance = newBalance
	return s.persistUsers(ctx)
}

func (s *Store) setStatus(ctx context.Context, userID string, status types.UserStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil {
		return ErrUserNotExist
	}
	u.Status = status
	return s.persistUsers(ctx)
}

// BanUser flips the account status only; pending withdrawals and tasks stay
// as they are.
func (s *Store) BanUser(ctx context.Context, userID string) error {
	return s.setStatus(ctx, userID, types.StatusBanned)
}

func (s *Store) UnbanUser(ctx context.Context, userID string) error {
	return s.setStatus(ctx, userID, types.StatusActive)
}

func (s *Store) AddWithdrawal(ctx context.Context, w *types.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *w
	stored.Status = types.WithdrawalPending
	s.withdrawals = append(s.withdrawals, &stored)
	return s.persist(ctx, KeyWithdrawals, s.withdrawals)
}

// DecideWithdrawal finalizes a pending request. Approval deducts the amount
// from the referenced user exactly once, in the same critical section as the
// status change; a request that is no longer pending refuses re-decision.
func (s *Store) DecideWithdrawal(ctx context.Context, id string, approve bool, note string) (*types.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var w *types.Withdrawal
	for _, cand := range s.withdrawals {
		if cand.ID == id {
			w = cand
			break
		}
	}
	if w == nil {
		return nil, ErrWithdrawalNotExist
	}
	if w.Status != types.WithdrawalPending {
		return nil, ErrWithdrawalProcessed
	}

	if approve {
		u := s.findUser(w.UserID)
		if u == nil {
			return nil, ErrUserNotExist
		}
		applyBalance(u, w.Amount, types.BalanceSubtract, types.ReasonAdmin)
		w.Status = types.WithdrawalApproved
		if err := s.persistUsers(ctx); err != nil {
			return nil, err
		}
	} else {
		w.Status = types.WithdrawalRejected
	}
	now := time.Now()
	w.ProcessedAt = &now
	w.AdminNote = note
	if err := s.persist(ctx, KeyWithdrawals, s.withdrawals); err != nil {
		return nil, err
	}
	decided := *w
	return &decided, nil
}

func (s *Store) ListWithdrawals() []types.Withdrawal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Withdrawal, 0, len(s.withdrawals))
	for _, w := range s.withdrawals {
		out = append(out, *w)
	}
	return out
}

func (s *Store) ListUserWithdrawals(userID string) []types.Withdrawal {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Withdrawal
	for _, w := range s.withdrawals {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out
}

const suffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomSuffix() string {
	b := make([]byte, 4)
	for i := range b {
		b[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return string(b)
}

// GeneratePasscodes mints unused codes shaped <TIER>-<year>-<4 base36 chars>,
// re-rolling any suffix that collides with an existing code.
func (s *Store) GeneratePasscodes(ctx context.Context, level types.Level, quantity int) ([]types.Passcode, error) {
	if !level.Valid() {
		return nil, ErrInvalidLevel
	}
	if quantity <= 0 {
		return nil, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]struct{}, len(s.passcodes))
	for _, p := range s.passcodes {
		existing[strings.ToUpper(p.Code)] = struct{}{}
	}

	prefix := types.TierByLevel(level).PasscodePrefix
	year := time.Now().Year()
	created := make([]types.Passcode, 0, quantity)
	for i := 0; i < quantity; i++ {
		var code string
		for {
			code = fmt.Sprintf("%s-%d-%s", prefix, year, randomSuffix())
			if _, taken := existing[code]; !taken {
				break
			}
		}
		existing[code] = struct{}{}
		p := &types.Passcode{Code: code, Level: level, CreatedAt: time.Now()}
		s.passcodes = append(s.passcodes, p)
		created = append(created, *p)
	}
	if err := s.persist(ctx, KeyPasscodes, s.passcodes); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) findPasscode(code string) *types.Passcode {
	for _, p := range s.passcodes {
		if strings.EqualFold(p.Code, code) {
			return p
		}
	}
	return nil
}

// ValidatePasscode is the read-only pre-check used during signup to show the
// tier before the account exists. Consumption happens via ConsumePasscode.
func (s *Store) ValidatePasscode(code string) (types.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findPasscode(code)
	if p == nil || p.Used {
		return 0, ErrPasscodeInvalid
	}
	return p.Level, nil
}

// ConsumePasscode checks and marks the code used in one critical section, so
// two registrations can never redeem the same code.
func (s *Store) ConsumePasscode(ctx context.Context, code, userID string) (types.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findPasscode(code)
	if p == nil || p.Used {
		return 0, ErrPasscodeInvalid
	}
	now := time.Now()
	p.Used = true
	p.UsedBy = userID
	p.UsedAt = &now
	if err := s.persist(ctx, KeyPasscodes, s.passcodes); err != nil {
		return 0, err
	}
	return p.Level, nil
}

func (s *Store) ListPasscodes() []types.Passcode {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Passcode, 0, len(s.passcodes))
	for _, p := range s.passcodes {
		out = append(out, *p)
	}
	return out
}

func (s *Store) Currency() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currency
}

func (s *Store) SetCurrency(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currency = strings.ToUpper(code)
	return s.persist(ctx, KeyCurrency, s.currency)
}
