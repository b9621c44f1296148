package service

import "errors"

var (
	// ErrEntitlementExhausted means no free or purchased slot is left today.
	ErrEntitlementExhausted = errors.New("no task slots left today")
	// ErrInsufficientBalance means the user cannot afford the purchase.
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyCompleted    = errors.New("task already completed")
	ErrAlreadyClaimedToday = errors.New("daily bonus already claimed today")
	ErrTaskNotFound        = errors.New("task not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserInactive        = errors.New("user is not active")
	// ErrTranslationMissing means neither the user's nor the fallback language has text.
	ErrTranslationMissing = errors.New("translation missing")
	ErrInvalidAmount      = errors.New("amount must be positive")
	// ErrDuplicateTopUp means the TON transfer was already credited.
	ErrDuplicateTopUp = errors.New("top-up already credited")
)

// IsSoft reports whether err is an expected, user-recoverable outcome that
// callers should answer with success=false rather than a failure status.
func IsSoft(err error) bool {
	switch {
	case errors.Is(err, ErrEntitlementExhausted),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrAlreadyCompleted),
		errors.Is(err, ErrAlreadyClaimedToday):
		return true
	}
	return false
}
