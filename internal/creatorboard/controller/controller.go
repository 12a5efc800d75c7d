package controller

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kitewave/creatorboard/internal/creatorboard/config"
	"github.com/kitewave/creatorboard/internal/creatorboard/store"
	"github.com/kitewave/creatorboard/internal/creatorboard/types"
	"golang.org/x/crypto/bcrypt"
)

// masterReferralCode bypasses the referrer existence check at registration.
const masterReferralCode = "ADMIN001"

const minWithdrawalAmount = 15.0
const minWithdrawalReferrals = 5

var ErrUserBanned = errors.New("account suspended")
var ErrInvalidReferralCode = errors.New("invalid referral code")
var ErrWithdrawalLocked = errors.New("withdrawal requirements not met")
var ErrWithdrawalAmount = errors.New("withdrawal amount out of range")

type userStore interface {
	AddUser(ctx context.Context, user *types.User) error
	UpdateUser(ctx context.Context, id string, patch types.UserPatch) error
	GetUserByID(id string) (*types.User, error)
	GetUserByEmail(email string) (*types.User, error)
	GetUserByReferralCode(code string) (*types.User, error)
	ListUsers() []*types.User
	AdjustBalance(ctx context.Context, userID string, amount float64, direction types.BalanceDirection, reason types.BalanceReason) (float64, error)
	SubmitKYC(ctx context.Context, userID string, docs types.KYCDocuments) error
	ApproveKYC(ctx context.Context, userID string) error
	RejectKYC(ctx context.Context, userID string) error
	SetLevel(ctx context.Context, userID string, level types.Level) error
	SetReferralCount(ctx context.Context, userID string, count int) error
	SetReferralBonusRate(ctx context.Context, userID string, rate float64) error
	SetReferralEarnings(ctx context.Context, userID string, earnings float64) error
	BanUser(ctx context.Context, userID string) error
	UnbanUser(ctx context.Context, userID string) error
}

type taskStore interface {
	AddTask(ctx context.Context, task types.AssignedTask, targetUserID string, targetLevel types.Level) (int, error)
	SubmitTask(ctx context.Context, userID, taskID, handle string) (types.AssignedTask, error)
	ApproveTask(ctx context.Context, userID, taskID string) (float64, error)
	RejectTask(ctx context.Context, userID, taskID string) error
	ListUserTasks(userID string) ([]types.AssignedTask, error)
	ListTasks() []types.AssignedTask
	ListPendingSubmissions() []types.Submission
}

type withdrawalStore interface {
	AddWithdrawal(ctx context.Context, w *types.Withdrawal) error
	DecideWithdrawal(ctx context.Context, id string, approve bool, note string) (*types.Withdrawal, error)
	ListWithdrawals() []types.Withdrawal
	ListUserWithdrawals(userID string) []types.Withdrawal
}

type passcodeStore interface {
	GeneratePasscodes(ctx context.Context, level types.Level, quantity int) ([]types.Passcode, error)
	ValidatePasscode(code string) (types.Level, error)
	ConsumePasscode(ctx context.Context, code, userID string) (types.Level, error)
	ListPasscodes() []types.Passcode
}

type prefStore interface {
	Currency() string
	SetCurrency(ctx context.Context, code string) error
}

type Controller struct {
	users       userStore
	tasks       taskStore
	withdrawals withdrawalStore
	passcodes   passcodeStore
	prefs       prefStore

	jwtSecret  []byte
	sessionTTL time.Duration
	admin      config.AdminConfig

	storeClose func() error
}

func NewController(cfg *config.Config, u userStore, t taskStore, w withdrawalStore, p passcodeStore, prefs prefStore, storeClose func() error) *Controller {
	return &Controller{
		users:       u,
		tasks:       t,
		withdrawals: w,
		passcodes:   p,
		prefs:       prefs,
		jwtSecret:   []byte(cfg.JWTSecret),
		sessionTTL:  cfg.SessionTTL,
		admin:       cfg.Admin,
		storeClose:  storeClose,
	}
}

// Register creates an account. A supplied referral code must resolve to an
// existing user unless it is the master code; a supplied passcode must be
// consumable and determines the membership level.
func (c *Controller) Register(ctx context.Context, req *types.RegisterRequest) (string, types.Profile, error) {
	if _, err := c.users.GetUserByEmail(req.Email); err == nil {
		return "", types.Profile{}, store.ErrUserAlreadyExist
	} else if !errors.Is(err, store.ErrUserNotExist) {
		return "", types.Profile{}, errors.Wrap(err, "users.GetUserByEmail failed: ")
	}

	referredBy := strings.TrimSpace(req.ReferredBy)
	if referredBy != "" && !strings.EqualFold(referredBy, masterReferralCode) {
		if _, err := c.users.GetUserByReferralCode(referredBy); err != nil {
			if errors.Is(err, store.ErrUserNotExist) {
				return "", types.Profile{}, ErrInvalidReferralCode
			}
			return "", types.Profile{}, errors.Wrap(err, "users.GetUserByReferralCode failed: ")
		}
	}

	now := time.Now()
	userID := fmt.Sprintf("user-%d", now.UnixMilli())
	referralCode := "REF" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	level := types.MinLevel
	if req.Passcode != "" {
		consumed, err := c.passcodes.ConsumePasscode(ctx, req.Passcode, userID)
		if err != nil {
			return "", types.Profile{}, errors.Wrap(err, "passcodes.ConsumePasscode failed: ")
		}
		level = consumed
	}

	hash, err := cryptPassword([]byte(req.Password))
	if err != nil {
		return "", types.Profile{}, errors.Wrap(err, "cryptPassword failed: ")
	}

	user := &types.User{
		ID:            userID,
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  string(hash),
		Phone:         req.Phone,
		Country:       req.Country,
		Role:          types.RoleUser,
		Level:         level,
		ReferralCode:  referralCode,
		ReferredBy:    referredBy,
		JoinDate:      now.Format("2006-01-02"),
		Status:        types.StatusActive,
		KYCStatus:     types.KYCNotSubmitted,
		AssignedTasks: []types.AssignedTask{},
		UsedPasscode:  req.Passcode,
	}
	if err := c.users.AddUser(ctx, user); err != nil {
		return "", types.Profile{}, errors.Wrap(err, "users.AddUser failed: ")
	}

	token, err := c.createJWT(user)
	if err != nil {
		return "", types.Profile{}, err
	}
	return token, user.Profile(), nil
}

// Login checks credentials and issues a session token. The configured
// bootstrap admin pair always logs in, reinstalling the admin record if
// storage lost it.
func (c *Controller) Login(ctx context.Context, req *types.LoginRequest) (string, types.Profile, error) {
	if strings.EqualFold(req.Email, c.admin.Email) && req.Password == c.admin.Password {
		return c.adminLogin(ctx)
	}

	user, err := c.users.GetUserByEmail(req.Email)
	if err != nil {
		return "", types.Profile{}, errors.Wrap(err, "users.GetUserByEmail failed: ")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", types.Profile{}, errors.Wrap(err, "bcrypt.CompareHashAndPassword failed: ")
	}
	if user.Status == types.StatusBanned {
		return "", types.Profile{}, ErrUserBanned
	}

	token, err := c.createJWT(user)
	if err != nil {
		return "", types.Profile{}, err
	}
	return token, user.Profile(), nil
}

func (c *Controller) adminLogin(ctx context.Context) (string, types.Profile, error) {
	user, err := c.users.GetUserByEmail(c.admin.Email)
	if errors.Is(err, store.ErrUserNotExist) {
		hash, hashErr := cryptPassword([]byte(c.admin.Password))
		if hashErr != nil {
			return "", types.Profile{}, errors.Wrap(hashErr, "cryptPassword failed: ")
		}
		user = &types.User{
			ID:            "admin-001",
			Name:          c.admin.Name,
			Email:         c.admin.Email,
			PasswordHash:  string(hash),
			Phone:         "+1234567890",
			Country:       "Nigeria",
			Role:          types.RoleAdmin,
			Level:         types.MaxLevel,
			ReferralCode:  "ADMIN01",
			JoinDate:      "2024-01-01",
			Status:        types.StatusActive,
			KYCStatus:     types.KYCApproved,
			AssignedTasks: []types.AssignedTask{},
		}
		if err := c.users.AddUser(ctx, user); err != nil {
			return "", types.Profile{}, errors.Wrap(err, "users.AddUser failed: ")
		}
	} else if err != nil {
		return "", types.Profile{}, errors.Wrap(err, "users.GetUserByEmail failed: ")
	}

	token, err := c.createJWT(user)
	if err != nil {
		return "", types.Profile{}, err
	}
	return token, user.Profile(), nil
}

// CurrentUser re-reads the record behind the session and returns a fresh
// sanitized view. Store mutations do not push updates; callers refresh.
func (c *Controller) CurrentUser(userID string) (types.Profile, error) {
	user, err := c.users.GetUserByID(userID)
	if err != nil {
		return types.Profile{}, errors.Wrap(err, "users.GetUserByID failed: ")
	}
	return user.Profile(), nil
}

func (c *Controller) UpdateProfile(ctx context.Context, userID string, patch types.UserPatch) (types.Profile, error) {
	if err := c.users.UpdateUser(ctx, userID, patch); err != nil {
		return types.Profile{}, errors.Wrap(err, "users.UpdateUser failed: ")
	}
	return c.CurrentUser(userID)
}

func (c *Controller) MyTasks(userID string) ([]types.AssignedTask, error) {
	return c.tasks.ListUserTasks(userID)
}

func (c *Controller) SubmitTask(ctx context.Context, userID, taskID, handle string) (types.AssignedTask, error) {
	return c.tasks.SubmitTask(ctx, userID, taskID, handle)
}

func (c *Controller) MyReferrals(userID string) (types.ReferralSummary, error) {
	user, err := c.users.GetUserByID(userID)
	if err != nil {
		return types.ReferralSummary{}, errors.Wrap(err, "users.GetUserByID failed: ")
	}
	return types.ReferralSummary{
		ReferralCode:     user.ReferralCode,
		ReferralCount:    user.ReferralCount,
		ReferralEarnings: user.ReferralEarnings,
		BonusRate:        user.BonusRate(),
	}, nil
}

func (c *Controller) SubmitKYC(ctx context.Context, userID string, req *types.KYCSubmitRequest) error {
	docs := types.KYCDocuments{
		IDType:      req.IDType,
		IDNumber:    req.IDNumber,
		DocumentURL: req.DocumentURL,
	}
	return c.users.SubmitKYC(ctx, userID, docs)
}

// RequestWithdrawal gates on the unlock thresholds (balance and referral
// count) before appending a pending request with a denormalized name
// snapshot.
func (c *Controller) RequestWithdrawal(ctx context.Context, userID string, body *types.WithdrawalRequestBody) (types.Withdrawal, error) {
	user, err := c.users.GetUserByID(userID)
	if err != nil {
		return types.Withdrawal{}, errors.Wrap(err, "users.GetUserByID failed: ")
	}
	if user.TotalBalance < minWithdrawalAmount || user.ReferralCount < minWithdrawalReferrals {
		return types.Withdrawal{}, ErrWithdrawalLocked
	}
	if body.Amount < minWithdrawalAmount || body.Amount > user.TotalBalance {
		return types.Withdrawal{}, ErrWithdrawalAmount
	}

	w := types.Withdrawal{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		UserName:    user.Name,
		Amount:      body.Amount,
		Method:      body.Method,
		Details:     body.Details,
		Status:      types.WithdrawalPending,
		RequestDate: time.Now(),
	}
	if err := c.withdrawals.AddWithdrawal(ctx, &w); err != nil {
		return types.Withdrawal{}, errors.Wrap(err, "withdrawals.AddWithdrawal failed: ")
	}
	return w, nil
}

func (c *Controller) MyWithdrawals(userID string) []types.Withdrawal {
	return c.withdrawals.ListUserWithdrawals(userID)
}

func (c *Controller) Currency() string {
	return c.prefs.Currency()
}

func (c *Controller) SetCurrency(ctx context.Context, code string) error {
	return c.prefs.SetCurrency(ctx, code)
}

// CreateTask mints the canonical record and fans it out per the targeting
// rules. Returns the canonical task and the recipient count.
func (c *Controller) CreateTask(ctx context.Context, req *types.CreateTaskRequest) (types.AssignedTask, int, error) {
	task := types.AssignedTask{
		ID:           "task-" + uuid.NewString(),
		Platform:     req.Platform,
		Title:        req.Title,
		Reward:       req.Reward,
		Link:         req.Link,
		Instructions: req.Instructions,
		Status:       types.TaskPending,
		CreatedAt:    time.Now(),
		TargetLevel:  req.TargetLevel,
		TargetUserID: req.TargetUserID,
		IsBroadcast:  req.TargetUserID == "" && req.TargetLevel == 0,
		IsCustom:     req.TargetUserID != "",
	}
	assigned, err := c.tasks.AddTask(ctx, task, req.TargetUserID, req.TargetLevel)
	if err != nil {
		return types.AssignedTask{}, 0, errors.Wrap(err, "tasks.AddTask failed: ")
	}
	return task, assigned, nil
}

func (c *Controller) ListTasks() []types.AssignedTask {
	return c.tasks.ListTasks()
}

func (c *Controller) ListSubmissions() []types.Submission {
	return c.tasks.ListPendingSubmissions()
}

func (c *Controller) ApproveSubmission(ctx context.Context, userID, taskID string) (float64, error) {
	return c.tasks.ApproveTask(ctx, userID, taskID)
}

func (c *Controller) RejectSubmission(ctx context.Context, userID, taskID string) error {
	return c.tasks.RejectTask(ctx, userID, taskID)
}

func (c *Controller) ListUsers() []types.UserDetail {
	users := c.users.ListUsers()
	out := make([]types.UserDetail, 0, len(users))
	for _, u := range users {
		out = append(out, u.Detail())
	}
	return out
}

func (c *Controller) GetUser(userID string) (types.UserDetail, error) {
	user, err := c.users.GetUserByID(userID)
	if err != nil {
		return types.UserDetail{}, errors.Wrap(err, "users.GetUserByID failed: ")
	}
	return user.Detail(), nil
}

func (c *Controller) AdjustBalance(ctx context.Context, userID string, req *types.BalanceAdjustRequest) (float64, error) {
	return c.users.AdjustBalance(ctx, userID, req.Amount, req.Direction, types.ReasonAdmin)
}

func (c *Controller) SetLevel(ctx context.Context, userID string, level types.Level) error {
	return c.users.SetLevel(ctx, userID, level)
}

func (c *Controller) SetReferralOverrides(ctx context.Context, userID string, req *types.ReferralOverridesRequest) error {
	if req.Count != nil {
		if err := c.users.SetReferralCount(ctx, userID, *req.Count); err != nil {
			return errors.Wrap(err, "users.SetReferralCount failed: ")
		}
	}
	if req.BonusRate != nil {
		if err := c.users.SetReferralBonusRate(ctx, userID, *req.BonusRate); err != nil {
			return errors.Wrap(err, "users.SetReferralBonusRate failed: ")
		}
	}
	if req.Earnings != nil {
		if err := c.users.SetReferralEarnings(ctx, userID, *req.Earnings); err != nil {
			return errors.Wrap(err, "users.SetReferralEarnings failed: ")
		}
	}
	return nil
}

func (c *Controller) BanUser(ctx context.Context, userID string) error {
	return c.users.BanUser(ctx, userID)
}

func (c *Controller) UnbanUser(ctx context.Context, userID string) error {
	return c.users.UnbanUser(ctx, userID)
}

func (c *Controller) ApproveKYC(ctx context.Context, userID string) error {
	return c.users.ApproveKYC(ctx, userID)
}

func (c *Controller) RejectKYC(ctx context.Context, userID string) error {
	return c.users.RejectKYC(ctx, userID)
}

func (c *Controller) ListWithdrawals() []types.Withdrawal {
	return c.withdrawals.ListWithdrawals()
}

func (c *Controller) DecideWithdrawal(ctx context.Context, id string, approve bool, note string) (*types.Withdrawal, error) {
	return c.withdrawals.DecideWithdrawal(ctx, id, approve, note)
}

func (c *Controller) GeneratePasscodes(ctx context.Context, level types.Level, quantity int) ([]types.Passcode, error) {
	return c.passcodes.GeneratePasscodes(ctx, level, quantity)
}

func (c *Controller) ValidatePasscode(code string) (types.Level, error) {
	return c.passcodes.ValidatePasscode(code)
}

func (c *Controller) ListPasscodes() []types.Passcode {
	return c.passcodes.ListPasscodes()
}

func (c *Controller) Close() error {
	return c.storeClose()
}

func (c *Controller) createJWT(user *types.User) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["id"] = user.ID
	claims["role"] = string(user.Role)
	claims["exp"] = time.Now().Add(c.sessionTTL).Unix()

	signed, err := token.SignedString(c.jwtSecret)
	if err != nil {
		return "", errors.Wrap(err, "token.SignedString failed: ")
	}
	return signed, nil
}

func cryptPassword(pass []byte) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword(pass, bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "bcrypt.GenerateFromPassword failed: ")
	}
	return hash, nil
}
