package store

import (
	"time"

	"github.com/kitewave/creatorboard/internal/creatorboard/types"
)

// AdminSeed is the default admin identity installed when the users snapshot
// carries no admin record. The hash comes from the configured bootstrap
// password, computed at wiring time.
type AdminSeed struct {
	Name         string
	Email        string
	PasswordHash string
}

const seedAdminID = "admin-001"
const seedAdminReferralCode = "ADMIN01"

func seedAdmin(seed AdminSeed) *types.User {
	return &types.User{
		ID:            seedAdminID,
		Name:          seed.Name,
		Email:         seed.Email,
		PasswordHash:  seed.PasswordHash,
		Phone:         "+1234567890",
		Country:       "Nigeria",
		Role:          types.RoleAdmin,
		Level:         types.MaxLevel,
		ReferralCode:  seedAdminReferralCode,
		JoinDate:      "2024-01-01",
		Status:        types.StatusActive,
		KYCStatus:     types.KYCApproved,
		AssignedTasks: []types.AssignedTask{},
	}
}

// seedPasscodes is installed on first load with no stored passcodes: two
// codes for levels 1-2, one each for levels 3-6.
func seedPasscodes() []*types.Passcode {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	codes := []struct {
		code  string
		level types.Level
	}{
		{"STARTER-2024-A1B2", 1},
		{"STARTER-2024-C3D4", 1},
		{"BRONZE-2024-E5F6", 2},
		{"BRONZE-2024-G7H8", 2},
		{"SILVER-2024-I9J0", 3},
		{"GOLD-2024-K1L2", 4},
		{"PLAT-2024-M3N4", 5},
		{"DIAMOND-2024-O5P6", 6},
	}
	passcodes := make([]*types.Passcode, 0, len(codes))
	for _, c := range codes {
		passcodes = append(passcodes, &types.Passcode{
			Code:      c.code,
			Level:     c.level,
			CreatedAt: created,
		})
	}
	return passcodes
}
