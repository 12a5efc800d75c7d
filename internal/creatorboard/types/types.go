package types

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type UserStatus string

const (
	StatusActive UserStatus = "active"
	StatusBanned UserStatus = "banned"
)

type KYCStatus string

const (
	KYCNotSubmitted KYCStatus = "not_submitted"
	KYCPending      KYCStatus = "pending"
	KYCApproved     KYCStatus = "approved"
	KYCRejected     KYCStatus = "rejected"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSubmitted TaskStatus = "submitted"
	TaskCompleted TaskStatus = "completed"
	TaskRejected  TaskStatus = "rejected"
)

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

type WithdrawalMethod string

const (
	MethodBank        WithdrawalMethod = "bank"
	MethodCrypto      WithdrawalMethod = "crypto"
	MethodMobileMoney WithdrawalMethod = "mobile_money"
)

type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformTwitter   Platform = "twitter"
	PlatformSnapchat  Platform = "snapchat"
	PlatformFacebook  Platform = "facebook"
	PlatformTelegram  Platform = "telegram"
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformCustom    Platform = "custom"
)

type IDType string

const (
	IDNationalID      IDType = "national_id"
	IDDriversLicense  IDType = "drivers_license"
	IDPassport        IDType = "passport"
	IDVotersCard      IDType = "voters_card"
	IDResidencePermit IDType = "residence_permit"
)

// Level is a membership tier, 1 (Starter) through 6 (Diamond).
type Level int

const (
	MinLevel Level = 1
	MaxLevel Level = 6
)

func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// Tier describes a membership level: its display name, the prefix its
// passcodes carry, and the default referral bonus rate in percent.
type Tier struct {
	Level          Level   `json:"level"`
	Name           string  `json:"name"`
	PasscodePrefix string  `json:"passcode_prefix"`
	Price          float64 `json:"price"`
	ReferralBonus  float64 `json:"referral_bonus"`
}

var Tiers = []Tier{
	{Level: 1, Name: "Starter", PasscodePrefix: "STARTER", Price: 5, ReferralBonus: 5},
	{Level: 2, Name: "Bronze", PasscodePrefix: "BRONZE", Price: 10, ReferralBonus: 7},
	{Level: 3, Name: "Silver", PasscodePrefix: "SILVER", Price: 20, ReferralBonus: 10},
	{Level: 4, Name: "Gold", PasscodePrefix: "GOLD", Price: 50, ReferralBonus: 12},
	{Level: 5, Name: "Platinum", PasscodePrefix: "PLAT", Price: 100, ReferralBonus: 15},
	{Level: 6, Name: "Diamond", PasscodePrefix: "DIAMOND", Price: 200, ReferralBonus: 20},
}

func TierByLevel(l Level) Tier {
	for _, t := range Tiers {
		if t.Level == l {
			return t
		}
	}
	return Tiers[0]
}

type KYCDocuments struct {
	IDType      IDType    `json:"id_type"`
	IDNumber    string    `json:"id_number"`
	DocumentURL string    `json:"document_url,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// AssignedTask is a task instance inside one user's queue. Fan-out clones a
// creation once per recipient, so the id is per-recipient, not shared.
type AssignedTask struct {
	ID              string     `json:"id"`
	Platform        Platform   `json:"platform"`
	Title           string     `json:"title"`
	Reward          float64    `json:"reward"`
	Link            string     `json:"link"`
	Instructions    string     `json:"instructions"`
	Status          TaskStatus `json:"status"`
	SubmittedHandle string     `json:"submitted_handle,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	TargetLevel     Level      `json:"target_level,omitempty"`
	TargetUserID    string     `json:"target_user_id,omitempty"`
	IsBroadcast     bool       `json:"is_broadcast,omitempty"`
	IsCustom        bool       `json:"is_custom,omitempty"`
}

// User is the stored record. PasswordHash travels through snapshots but is
// never part of an API response; handlers return Profile instead.
type User struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	PasswordHash      string         `json:"password_hash"`
	Phone             string         `json:"phone"`
	Country           string         `json:"country"`
	Role              Role           `json:"role"`
	Level             Level          `json:"level"`
	ReferralCode      string         `json:"referral_code"`
	ReferredBy        string         `json:"referred_by,omitempty"`
	TotalBalance      float64        `json:"total_balance"`
	TaskEarnings      float64        `json:"task_earnings"`
	ReferralEarnings  float64        `json:"referral_earnings"`
	ReferralCount     int            `json:"referral_count"`
	ReferralBonusRate float64        `json:"referral_bonus_rate,omitempty"`
	JoinDate          string         `json:"join_date"`
	Status            UserStatus     `json:"status"`
	KYCStatus         KYCStatus      `json:"kyc_status"`
	KYCDocuments      *KYCDocuments  `json:"kyc_documents,omitempty"`
	AssignedTasks     []AssignedTask `json:"assigned_tasks"`
	UsedPasscode      string         `json:"used_passcode,omitempty"`
}

// KYCVerified derives the verification flag from KYCStatus, which is the
// single source of truth.
func (u *User) KYCVerified() bool {
	return u.KYCStatus == KYCApproved
}

// BonusRate returns the per-user override when set, else the tier default.
func (u *User) BonusRate() float64 {
	if u.ReferralBonusRate > 0 {
		return u.ReferralBonusRate
	}
	return TierByLevel(u.Level).ReferralBonus
}

func (u *User) Clone() *User {
	c := *u
	if u.KYCDocuments != nil {
		docs := *u.KYCDocuments
		c.KYCDocuments = &docs
	}
	c.AssignedTasks = make([]AssignedTask, len(u.AssignedTasks))
	copy(c.AssignedTasks, u.AssignedTasks)
	return &c
}

// Profile is the sanitized session view of a user: no password hash, no task
// queue, verification flag and effective bonus rate derived.
type Profile struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	Country           string     `json:"country"`
	Role              Role       `json:"role"`
	Level             Level      `json:"level"`
	ReferralCode      string     `json:"referral_code"`
	ReferredBy        string     `json:"referred_by,omitempty"`
	TotalBalance      float64    `json:"total_balance"`
	TaskEarnings      float64    `json:"task_earnings"`
	ReferralEarnings  float64    `json:"referral_earnings"`
	ReferralCount     int        `json:"referral_count"`
	ReferralBonusRate float64    `json:"referral_bonus_rate"`
	JoinDate          string     `json:"join_date"`
	Status            UserStatus `json:"status"`
	KYCStatus         KYCStatus  `json:"kyc_status"`
	KYCVerified       bool       `json:"kyc_verified"`
	UsedPasscode      string     `json:"used_passcode,omitempty"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Phone:             u.Phone,
		Country:           u.Country,
		Role:              u.Role,
		Level:             u.Level,
		ReferralCode:      u.ReferralCode,
		ReferredBy:        u.ReferredBy,
		TotalBalance:      u.TotalBalance,
		TaskEarnings:      u.TaskEarnings,
		ReferralEarnings:  u.ReferralEarnings,
		ReferralCount:     u.ReferralCount,
		ReferralBonusRate: u.BonusRate(),
		JoinDate:          u.JoinDate,
		Status:            u.Status,
		KYCStatus:         u.KYCStatus,
		KYCVerified:       u.KYCVerified(),
		UsedPasscode:      u.UsedPasscode,
	}
}

// UserDetail is the admin view of a user: the sanitized profile plus the
// task queue and KYC documents. The password hash never leaves the store.
type UserDetail struct {
	Profile
	KYCDocuments  *KYCDocuments  `json:"kyc_documents,omitempty"`
	AssignedTasks []AssignedTask `json:"assigned_tasks"`
}

func (u *User) Detail() UserDetail {
	tasks := make([]AssignedTask, len(u.AssignedTasks))
	copy(tasks, u.AssignedTasks)
	var docs *KYCDocuments
	if u.KYCDocuments != nil {
		d := *u.KYCDocuments
		docs = &d
	}
	return UserDetail{Profile: u.Profile(), KYCDocuments: docs, AssignedTasks: tasks}
}

type Withdrawal struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	UserName    string           `json:"user_name"`
	Amount      float64          `json:"amount"`
	Method      WithdrawalMethod `json:"method"`
	Details     string           `json:"details"`
	Status      WithdrawalStatus `json:"status"`
	RequestDate time.Time        `json:"request_date"`
	ProcessedAt *time.Time       `json:"processed_at,omitempty"`
	AdminNote   string           `json:"admin_note,omitempty"`
}

type Passcode struct {
	Code      string     `json:"code"`
	Level     Level      `json:"level"`
	Used      bool       `json:"used"`
	UsedBy    string     `json:"used_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// Submission pairs a submitted task with its owner for the admin review queue.
type Submission struct {
	Task AssignedTask `json:"task"`
	User Profile      `json:"user"`
}

type BalanceDirection string

const (
	BalanceAdd      BalanceDirection = "add"
	BalanceSubtract BalanceDirection = "subtract"
)

type BalanceReason string

const (
	ReasonTask     BalanceReason = "task"
	ReasonReferral BalanceReason = "referral"
	ReasonAdmin    BalanceReason = "admin"
)

// UserPatch is a shallow merge of profile fields; nil fields stay untouched.
type UserPatch struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Country *string `json:"country"`
}

// TaskPatch is a shallow merge over one assigned task.
type TaskPatch struct {
	Status          *TaskStatus `json:"status"`
	SubmittedHandle *string     `json:"submitted_handle"`
	SubmittedAt     *time.Time  `json:"submitted_at"`
}

type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Country    string `json:"country"`
	Password   string `json:"password"`
	ReferredBy string `json:"referred_by"`
	Passcode   string `json:"passcode"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SubmitTaskRequest struct {
	Handle string `json:"handle"`
}

type CreateTaskRequest struct {
	Platform     Platform `json:"platform"`
	Title        string   `json:"title"`
	Reward       float64  `json:"reward"`
	Link         string   `json:"link"`
	Instructions string   `json:"instructions"`
	TargetLevel  Level    `json:"target_level"`
	TargetUserID string   `json:"target_user_id"`
}

type TaskDecisionRequest struct {
	UserID string `json:"user_id"`
	TaskID string `json:"task_id"`
}

type WithdrawalRequestBody struct {
	Amount  float64          `json:"amount"`
	Method  WithdrawalMethod `json:"method"`
	Details string           `json:"details"`
}

type WithdrawalDecisionRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

type KYCSubmitRequest struct {
	IDType      IDType `json:"id_type"`
	IDNumber    string `json:"id_number"`
	DocumentURL string `json:"document_url"`
}

type BalanceAdjustRequest struct {
	Amount    float64          `json:"amount"`
	Direction BalanceDirection `json:"direction"`
}

type LevelRequest struct {
	Level Level `json:"level"`
}

type ReferralOverridesRequest struct {
	Count     *int     `json:"count"`
	BonusRate *float64 `json:"bonus_rate"`
	Earnings  *float64 `json:"earnings"`
}

type GeneratePasscodesRequest struct {
	Level    Level `json:"level"`
	Quantity int   `json:"quantity"`
}

type CurrencyRequest struct {
	Code string `json:"code"`
}

type PasscodeCheckRequest struct {
	Code string `json:"code"`
}

// ReferralSummary is the user-facing view of their referral standing.
type ReferralSummary struct {
	ReferralCode     string  `json:"referral_code"`
	ReferralCount    int     `json:"referral_count"`
	ReferralEarnings float64 `json:"referral_earnings"`
	BonusRate        float64 `json:"bonus_rate"`
}
