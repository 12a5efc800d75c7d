package router

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/kitewave/creatorboard/internal/creatorboard/config"
	"github.com/kitewave/creatorboard/internal/creatorboard/controller"
	"github.com/kitewave/creatorboard/internal/creatorboard/router/middleware"
	"github.com/kitewave/creatorboard/internal/creatorboard/store"
	"github.com/kitewave/creatorboard/internal/creatorboard/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type appController interface {
	Register(ctx context.Context, req *types.RegisterRequest) (string, types.Profile, error)
	Login(ctx context.Context, req *types.LoginRequest) (string, types.Profile, error)
	CurrentUser(userID string) (types.Profile, error)
	UpdateProfile(ctx context.Context, userID string, patch types.UserPatch) (types.Profile, error)
	MyTasks(userID string) ([]types.AssignedTask, error)
	SubmitTask(ctx context.Context, userID, taskID, handle string) (types.AssignedTask, error)
	MyReferrals(userID string) (types.ReferralSummary, error)
	SubmitKYC(ctx context.Context, userID string, req *types.KYCSubmitRequest) error
	RequestWithdrawal(ctx context.Context, userID string, body *types.WithdrawalRequestBody) (types.Withdrawal, error)
	MyWithdrawals(userID string) []types.Withdrawal
	Currency() string
	SetCurrency(ctx context.Context, code string) error
	ValidatePasscode(code string) (types.Level, error)

	CreateTask(ctx context.Context, req *types.CreateTaskRequest) (types.AssignedTask, int, error)
	ListTasks() []types.AssignedTask
	ListSubmissions() []types.Submission
	ApproveSubmission(ctx context.Context, userID, taskID string) (float64, error)
	RejectSubmission(ctx context.Context, userID, taskID string) error
	ListUsers() []types.UserDetail
	GetUser(userID string) (types.UserDetail, error)
	AdjustBalance(ctx context.Context, userID string, req *types.BalanceAdjustRequest) (float64, error)
	SetLevel(ctx context.Context, userID string, level types.Level) error
	SetReferralOverrides(ctx context.Context, userID string, req *types.ReferralOverridesRequest) error
	BanUser(ctx context.Context, userID string) error
	UnbanUser(ctx context.Context, userID string) error
	ApproveKYC(ctx context.Context, userID string) error
	RejectKYC(ctx context.Context, userID string) error
	ListWithdrawals() []types.Withdrawal
	DecideWithdrawal(ctx context.Context, id string, approve bool, note string) (*types.Withdrawal, error)
	GeneratePasscodes(ctx context.Context, level types.Level, quantity int) ([]types.Passcode, error)
	ListPasscodes() []types.Passcode
	Close() error
}

type HttpRouter struct {
	controller appController
	*fiber.App
	appLogger *zap.Logger
	httpPort  string
}

const internalServerErrorMessage = "Something went wrong on our side"
const badRequestMessage = "The request data is malformed or incomplete"

func (r *HttpRouter) Run() error {
	return r.App.Listen(":" + r.httpPort)
}

func (r *HttpRouter) Close() error {
	if err := r.controller.Close(); err != nil {
		r.appLogger.Error("controller.Close failed: ", zap.Error(err))
	}
	return r.App.Shutdown()
}

func (r *HttpRouter) fail(ctx *fiber.Ctx, status int, message string) error {
	ctx.Status(status)
	return ctx.JSON(fiber.Map{"status": "error", "message": message})
}

func (r *HttpRouter) Register(ctx *fiber.Ctx) error {
	request := &types.RegisterRequest{}
	if err := ctx.BodyParser(request); err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	if request.Name == "" || request.Email == "" || request.Password == "" {
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	token, profile, err := r.controller.Register(ctx.Context(), request)
	if errors.Is(err, store.ErrUserAlreadyExist) {
		return r.fail(ctx, http.StatusBadRequest, "An account with this email already exists.")
	}
	if errors.Is(err, controller.ErrInvalidReferralCode) {
		return r.fail(ctx, http.StatusBadRequest, "Invalid referral code.")
	}
	if errors.Is(err, store.ErrPasscodeInvalid) {
		return r.fail(ctx, http.StatusBadRequest, "Invalid or already used passcode.")
	}
	if err != nil {
		r.appLogger.Error("controller.Register failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	ctx.Status(http.StatusCreated)
	return ctx.JSON(fiber.Map{"status": "success", "token": token, "user": profile})
}

func (r *HttpRouter) Login(ctx *fiber.Ctx) error {
	request := &types.LoginRequest{}
	if err := ctx.BodyParser(request); err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	if request.Email == "" || request.Password == "" {
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	token, profile, err := r.controller.Login(ctx.Context(), request)
	if errors.Is(err, store.ErrUserNotExist) {
		return r.fail(ctx, http.StatusBadRequest, "User not found. Please check your email or sign up.")
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return r.fail(ctx, http.StatusBadRequest, "Incorrect password. Please try again.")
	}
	if errors.Is(err, controller.ErrUserBanned) {
		return r.fail(ctx, http.StatusForbidden, "Your account has been suspended. Please contact support.")
	}
	if err != nil {
		r.appLogger.Error("controller.Login failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	ctx.Status(http.StatusOK)
	return ctx.JSON(fiber.Map{"status": "success", "token": token, "user": profile})
}

// CheckPasscode lets the signup flow show the tier behind a code before the
// account exists. The code is only consumed at registration.
func (r *HttpRouter) CheckPasscode(ctx *fiber.Ctx) error {
	request := &types.PasscodeCheckRequest{}
	if err := ctx.BodyParser(request); err != nil || request.Code == "" {
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	level, err := r.controller.ValidatePasscode(request.Code)
	if errors.Is(err, store.ErrPasscodeInvalid) {
		return r.fail(ctx, http.StatusBadRequest, "Invalid or already used passcode.")
	}
	if err != nil {
		r.appLogger.Error("controller.ValidatePasscode failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	tier := types.TierByLevel(level)
	return ctx.JSON(fiber.Map{"status": "success", "level": level, "tier": tier.Name})
}

func (r *HttpRouter) Me(ctx *fiber.Ctx) error {
	profile, err := r.controller.CurrentUser(middleware.SessionUserID(ctx))
	if errors.Is(err, store.ErrUserNotExist) {
		return r.fail(ctx, http.StatusUnauthorized, "Session user no longer exists")
	}
	if err != nil {
		r.appLogger.Error("controller.CurrentUser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	return ctx.JSON(profile)
}

func (r *HttpRouter) UpdateMe(ctx *fiber.Ctx) error {
	patch := types.UserPatch{}
	if err := ctx.BodyParser(&patch); err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	profile, err := r.controller.UpdateProfile(ctx.Context(), middleware.SessionUserID(ctx), patch)
	if errors.Is(err, store.ErrUserNotExist) {
		return r.fail(ctx, http.StatusUnauthorized, "Session user no longer exists")
	}
	if err != nil {
		r.appLogger.Error("controller.UpdateProfile failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	return ctx.JSON(profile)
}

func (r *HttpRouter) MyTasks(ctx *fiber.Ctx) error {
	tasks, err := r.controller.MyTasks(middleware.SessionUserID(ctx))
	if err != nil {
		r.appLogger.Error("controller.MyTasks failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	return ctx.JSON(tasks)
}

func (r *HttpRouter) SubmitTask(ctx *fiber.Ctx) error {
	taskID := ctx.Params("id")
	if taskID == "" {
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	request := &types.SubmitTaskRequest{}
	if err := ctx.BodyParser(request); err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	if request.Handle == "" {
		return r.fail(ctx, http.StatusBadRequest, "A social media handle is required")
	}
	task, err := r.controller.SubmitTask(ctx.Context(), middleware.SessionUserID(ctx), taskID, request.Handle)
	if errors.Is(err, store.ErrTaskNotExist) {
		return r.fail(ctx, http.StatusBadRequest, "No task with this id is assigned to you")
	}
	if errors.Is(err, store.ErrTaskNotSubmittable) {
		return r.fail(ctx, http.StatusBadRequest, "This task is not awaiting submission")
	}
	if err != nil {
		r.appLogger.Error("controller.SubmitTask failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	return ctx.JSON(fiber.Map{"status": "success", "task": task})
}

func (r *HttpRouter) MyReferrals(ctx *fiber.Ctx) error {
	summary, err := r.controller.MyReferrals(middleware.SessionUserID(ctx))
	if err != nil {
		r.appLogger.Error("controller.MyReferrals failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	return ctx.JSON(summary)
}

func (r *HttpRouter) SubmitKYC(ctx *fiber.Ctx) error {
	request := &types.KYCSubmitRequest{}
	if err := ctx.BodyParser(request); err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	if request.IDType == "" || request.IDNumber == "" {
		return r.fail(ctx, http.StatusBadRequest, "An ID type and ID number are required")
	}
	if err := r.controller.SubmitKYC(ctx.Context(), middleware.SessionUserID(ctx), request); err != nil {
		r.appLogger.Error("controller.SubmitKYC failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	ctx.Status(http.StatusAccepted)
	return ctx.JSON(fiber.Map{"status": "success", "message": "KYC documents submitted for review"})
}

func (r *HttpRouter) RequestWithdrawal(ctx *fiber.Ctx) error {
	request := &types.WithdrawalRequestBody{}
	if err := ctx.BodyParser(request); err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	switch request.Method {
	case types.MethodBank, types.MethodCrypto, types.MethodMobileMoney:
	default:
		return r.fail(ctx, http.StatusBadRequest, "Unknown withdrawal method")
	}
	w, err := r.controller.RequestWithdrawal(ctx.Context(), middleware.SessionUserID(ctx), request)
	if errors.Is(err, controller.ErrWithdrawalLocked) {
		return r.fail(ctx, http.StatusBadRequest, "Withdrawals unlock at $15.00 balance and 5 referrals")
	}
	if errors.Is(err, controller.ErrWithdrawalAmount) {
		return r.fail(ctx, http.StatusBadRequest, "Amount must be at least $15.00 and within your balance")
	}
	if err != nil {
		r.appLogger.Error("controller.RequestWithdrawal failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	ctx.Status(http.StatusCreated)
	return ctx.JSON(fiber.Map{"status": "success", "withdrawal": w})
}

func (r *HttpRouter) MyWithdrawals(ctx *fiber.Ctx) error {
	return ctx.JSON(r.controller.MyWithdrawals(middleware.SessionUserID(ctx)))
}

func (r *HttpRouter) GetCurrency(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"code": r.controller.Currency()})
}

func (r *HttpRouter) SetCurrency(ctx *fiber.Ctx) error {
	request := &types.CurrencyRequest{}
	if err := ctx.BodyParser(request); err != nil || request.Code == "" {
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	if err := r.controller.SetCurrency(ctx.Context(), request.Code); err != nil {
		r.appLogger.Error("controller.SetCurrency failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	return ctx.JSON(fiber.Map{"status": "success", "code": r.controller.Currency()})
}

func (r *HttpRouter) ListUsers(ctx *fiber.Ctx) error {
	return ctx.JSON(r.controller.ListUsers())
}

func (r *HttpRouter) GetUser(ctx *fiber.Ctx) error {
	detail, err := r.controller.GetUser(ctx.Params("id"))
	if errors.Is(err, store.ErrUserNotExist) {
		return r.fail(ctx, http.StatusBadRequest, "No user with this id exists")
	}
	if err != nil {
		r.appLogger.Error("controller.GetUser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	return ctx.JSON(detail)
}

func (r *HttpRouter) AdjustBalance(ctx *fiber.Ctx) error {
	request := &types.BalanceAdjustRequest{}
	if err := ctx.BodyParser(request); err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	if request.Direction != types.BalanceAdd && request.Direction != types.BalanceSubtract {
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	balance, err := r.controller.AdjustBalance(ctx.Context(), ctx.Params("id"), request)
	if errors.Is(err, store.ErrUserNotExist) {
		return r.fail(ctx, http.StatusBadRequest, "No user with this id exists")
	}
	if errors.Is(err, store.ErrInvalidAmount) {
		return r.fail(ctx, http.StatusBadRequest, "Amount must be a positive number")
	}
	if err != nil {
		r.appLogger.Error("controller.AdjustBalance failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	return ctx.JSON(fiber.Map{"status": "success", "total_balance": balance})
}

func (r *HttpRouter) SetLevel(ctx *fiber.Ctx) error {
	request := &types.LevelRequest{}
	if err := ctx.BodyParser(request); err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	err := r.controller.SetLevel(ctx.Context(), ctx.Params("id"), request.Level)
	if errors.Is(err, store.ErrUserNotExist) {
		return r.fail(ctx, http.StatusBadRequest, "No user with this id exists")
	}
	if errors.Is(err, store.ErrInvalidLevel) {
		return r.fail(ctx, http.StatusBadRequest, "Membership level must be between 1 and 6")
	}
	if err != nil {
		r.appLogger.Error("controller.SetLevel failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	ctx.Status(http.StatusOK)
	return nil
}

func (r *HttpRouter) SetReferralOverrides(ctx *fiber.Ctx) error {
	request := &types.ReferralOverridesRequest{}
	if err := ctx.BodyParser(request); err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	err := r.controller.SetReferralOverrides(ctx.Context(), ctx.Params("id"), request)
	if errors.Is(err, store.ErrUserNotExist) {
		return r.fail(ctx, http.StatusBadRequest, "No user with this id exists")
	}
	if errors.Is(err, store.ErrInvalidAmount) {
		return r.fail(ctx, http.StatusBadRequest, "Referral overrides must not be negative")
	}
	if err != nil {
		r.appLogger.Error("controller.SetReferralOverrides failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	ctx.Status(http.StatusOK)
	return nil
}

func (r *HttpRouter) userAction(ctx *fiber.Ctx, name string, action func(context.Context, string) error) error {
	err := action(ctx.Context(), ctx.Params("id"))
	if errors.Is(err, store.ErrUserNotExist) {
		return r.fail(ctx, http.StatusBadRequest, "No user with this id exists")
	}
	if err != nil {
		r.appLogger.Error(name+" failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	ctx.Status(http.StatusOK)
	return nil
}

func (r *HttpRouter) BanUser(ctx *fiber.Ctx) error {
	return r.userAction(ctx, "controller.BanUser", r.controller.BanUser)
}

func (r *HttpRouter) UnbanUser(ctx *fiber.Ctx) error {
	return r.userAction(ctx, "controller.UnbanUser", r.controller.UnbanUser)
}

func (r *HttpRouter) ApproveKYC(ctx *fiber.Ctx) error {
	return r.userAction(ctx, "controller.ApproveKYC", r.controller.ApproveKYC)
}

func (r *HttpRouter) RejectKYC(ctx *fiber.Ctx) error {
	return r.userAction(ctx, "controller.RejectKYC", r.controller.RejectKYC)
}

func (r *HttpRouter) CreateTask(ctx *fiber.Ctx) error {
	request := &types.CreateTaskRequest{}
	if err := ctx.BodyParser(request); err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	if request.Title == "" || request.Reward <= 0 {
		return r.fail(ctx, http.StatusBadRequest, "A task needs a title and a positive reward")
	}
	if request.TargetUserID != "" && request.TargetLevel != 0 {
		return r.fail(ctx, http.StatusBadRequest, "Target a single user or a level, not both")
	}
	if request.TargetLevel != 0 && !request.TargetLevel.Valid() {
		return r.fail(ctx, http.StatusBadRequest, "Membership level must be between 1 and 6")
	}
	task, assigned, err := r.controller.CreateTask(ctx.Context(), request)
	if errors.Is(err, store.ErrUserNotExist) {
		return r.fail(ctx, http.StatusBadRequest, "No user with this id exists")
	}
	if err != nil {
		r.appLogger.Error("controller.CreateTask failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	ctx.Status(http.StatusCreated)
	return ctx.JSON(fiber.Map{"status": "success", "task": task, "assigned": assigned})
}

func (r *HttpRouter) ListTasks(ctx *fiber.Ctx) error {
	return ctx.JSON(r.controller.ListTasks())
}

func (r *HttpRouter) ListSubmissions(ctx *fiber.Ctx) error {
	return ctx.JSON(r.controller.ListSubmissions())
}

func (r *HttpRouter) decideSubmission(ctx *fiber.Ctx, approve bool) error {
	request := &types.TaskDecisionRequest{}
	if err := ctx.BodyParser(request); err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	if request.UserID == "" || request.TaskID == "" {
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	var balance float64
	var err error
	if approve {
		balance, err = r.controller.ApproveSubmission(ctx.Context(), request.UserID, request.TaskID)
	} else {
		err = r.controller.RejectSubmission(ctx.Context(), request.UserID, request.TaskID)
	}
	if errors.Is(err, store.ErrUserNotExist) {
		return r.fail(ctx, http.StatusBadRequest, "No user with this id exists")
	}
	if errors.Is(err, store.ErrTaskNotExist) {
		return r.fail(ctx, http.StatusBadRequest, "No task with this id is assigned to that user")
	}
	if errors.Is(err, store.ErrTaskAlreadyDecided) {
		return r.fail(ctx, http.StatusBadRequest, "This submission has already been decided")
	}
	if errors.Is(err, store.ErrTaskNotSubmittable) {
		return r.fail(ctx, http.StatusBadRequest, "This task has not been submitted yet")
	}
	if err != nil {
		r.appLogger.Error("submission decision failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	if approve {
		return ctx.JSON(fiber.Map{"status": "success", "total_balance": balance})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}

func (r *HttpRouter) ApproveSubmission(ctx *fiber.Ctx) error {
	return r.decideSubmission(ctx, true)
}

func (r *HttpRouter) RejectSubmission(ctx *fiber.Ctx) error {
	return r.decideSubmission(ctx, false)
}

func (r *HttpRouter) ListWithdrawals(ctx *fiber.Ctx) error {
	return ctx.JSON(r.controller.ListWithdrawals())
}

func (r *HttpRouter) DecideWithdrawal(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if id == "" {
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	request := &types.WithdrawalDecisionRequest{}
	if err := ctx.BodyParser(request); err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	w, err := r.controller.DecideWithdrawal(ctx.Context(), id, request.Approve, request.Note)
	if errors.Is(err, store.ErrWithdrawalNotExist) {
		return r.fail(ctx, http.StatusBadRequest, "No withdrawal request with this id exists")
	}
	if errors.Is(err, store.ErrWithdrawalProcessed) {
		return r.fail(ctx, http.StatusBadRequest, "This withdrawal request has already been processed")
	}
	if err != nil {
		r.appLogger.Error("controller.DecideWithdrawal failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	return ctx.JSON(fiber.Map{"status": "success", "withdrawal": w})
}

func (r *HttpRouter) GeneratePasscodes(ctx *fiber.Ctx) error {
	request := &types.GeneratePasscodesRequest{}
	if err := ctx.BodyParser(request); err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusBadRequest, badRequestMessage)
	}
	codes, err := r.controller.GeneratePasscodes(ctx.Context(), request.Level, request.Quantity)
	if errors.Is(err, store.ErrInvalidLevel) {
		return r.fail(ctx, http.StatusBadRequest, "Membership level must be between 1 and 6")
	}
	if errors.Is(err, store.ErrInvalidAmount) {
		return r.fail(ctx, http.StatusBadRequest, "Quantity must be a positive number")
	}
	if err != nil {
		r.appLogger.Error("controller.GeneratePasscodes failed: ", zap.Error(err))
		return r.fail(ctx, http.StatusInternalServerError, internalServerErrorMessage)
	}
	ctx.Status(http.StatusCreated)
	return ctx.JSON(fiber.Map{"status": "success", "passcodes": codes})
}

func (r *HttpRouter) ListPasscodes(ctx *fiber.Ctx) error {
	return ctx.JSON(r.controller.ListPasscodes())
}

func CreateRouter(c appController, cfg *config.Config, logger *zap.Logger) *HttpRouter {
	appLogger := logger.Named("app")
	app := fiber.New()
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))

	r := &HttpRouter{controller: c, App: app, appLogger: appLogger, httpPort: cfg.HttpPort}
	api := r.Group("/api/v1")
	api.Post("/register", r.Register)
	api.Post("/login", r.Login)
	api.Post("/passcodes/check", r.CheckPasscode)

	users := api.Group("/users", middleware.Protected([]byte(cfg.JWTSecret)))
	users.Get("/me", r.Me)
	users.Put("/me", r.UpdateMe)
	users.Get("/me/tasks", r.MyTasks)
	users.Post("/me/tasks/:id/submit", r.SubmitTask)
	users.Get("/me/referrals", r.MyReferrals)
	users.Post("/me/kyc", r.SubmitKYC)
	users.Get("/me/withdrawals", r.MyWithdrawals)
	users.Post("/me/withdrawals", r.RequestWithdrawal)
	users.Get("/me/currency", r.GetCurrency)
	users.Put("/me/currency", r.SetCurrency)

	admin := api.Group("/admin", middleware.Protected([]byte(cfg.JWTSecret)), middleware.AdminOnly())
	admin.Get("/users", r.ListUsers)
	admin.Get("/users/:id", r.GetUser)
	admin.Post("/users/:id/balance", r.AdjustBalance)
	admin.Post("/users/:id/level", r.SetLevel)
	admin.Post("/users/:id/referrals", r.SetReferralOverrides)
	admin.Post("/users/:id/ban", r.BanUser)
	admin.Post("/users/:id/unban", r.UnbanUser)
	admin.Post("/users/:id/kyc/approve", r.ApproveKYC)
	admin.Post("/users/:id/kyc/reject", r.RejectKYC)
	admin.Post("/tasks", r.CreateTask)
	admin.Get("/tasks", r.ListTasks)
	admin.Get("/submissions", r.ListSubmissions)
	admin.Post("/submissions/approve", r.ApproveSubmission)
	admin.Post("/submissions/reject", r.RejectSubmission)
	admin.Get("/withdrawals", r.ListWithdrawals)
	admin.Post("/withdrawals/:id/decide", r.DecideWithdrawal)
	admin.Post("/passcodes/generate", r.GeneratePasscodes)
	admin.Get("/passcodes", r.ListPasscodes)
	return r
}
