package store

import "github.com/go-faster/errors"

var ErrUserNotExist = errors.New("user not exist")
var ErrUserAlreadyExist = errors.New("user already exist")
var ErrTaskNotExist = errors.New("task not exist")
var ErrTaskNotSubmittable = errors.New("task is not awaiting submission")
var ErrTaskAlreadyDecided = errors.New("task submission already decided")
var ErrWithdrawalNotExist = errors.New("withdrawal not exist")
var ErrWithdrawalProcessed = errors.New("withdrawal already processed")
var ErrPasscodeInvalid = errors.New("passcode invalid or already used")
var ErrInvalidLevel = errors.New("membership level out of range")
var ErrInvalidAmount = errors.New("amount must be positive")
