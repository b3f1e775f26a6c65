package models

import (
	"errors"
	"fmt"
)

// Ожидаемые ошибки, которые показываются пользователю как отказ
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNoAttemptsLeft = errors.New("no attempts left")
	ErrInvalidGift    = errors.New("invalid gift")
	ErrGiftNotFound   = errors.New("user or gift not found")
	ErrUserNotFound   = errors.New("user not found")
)

// StoreIOError ошибка чтения или записи хранилища. Это внутренний сбой, а не ошибка пользователя.
type StoreIOError struct {
	Op     string
	UserID string
	Err    error
}

func (e *StoreIOError) Error() string {
	if e.UserID == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.UserID, e.Err)
}

func (e *StoreIOError) Unwrap() error {
	return e.Err
}

// IsUserFacing сообщает, что ошибка ожидаемая и ее можно показать вызывающему
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNoAttemptsLeft) ||
		errors.Is(err, ErrInvalidGift) ||
		errors.Is(err, ErrGiftNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
