package game

import (
	"context"
	"errors"
	"time"

	"tg-gift-roulette/internal/logger"
	"tg-gift-roulette/internal/models"
	"tg-gift-roulette/internal/storage"
)

// RefillJob по расписанию возвращает всем пользователям полный запас попыток.
// Реализует cron.Job.
type RefillJob struct {
	store   *storage.Store
	timeout time.Duration
}

// NewRefillJob создает задачу пополнения попыток
func NewRefillJob(store *storage.Store) *RefillJob {
	return &RefillJob{store: store, timeout: time.Minute}
}

// Run метод интерфейса cron.Job
func (j *RefillJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.RefillAll(ctx)
	if err != nil {
		logger.Error("refill: не все пользователи пополнены:", err)
	}
	logger.Infof("refill: пополнено пользователей: %d", n)
}

// RefillAll сбрасывает попытки всех пользователей до максимума.
// Каждый пользователь меняется под своей блокировкой; ошибка одного не останавливает остальных.
func (j *RefillJob) RefillAll(ctx context.Context) (int, error) {
	records, err := j.store.All(ctx)
	if err != nil {
		return 0, err
	}

	max := j.store.MaxAttempts()
	refilled := 0
	var errs []error
	for _, rec := range records {
		if rec.AttemptsLeft >= max {
			continue
		}
		_, err := j.store.Mutate(ctx, rec.UserID, func(rec *models.UserRecord) error {
			rec.AttemptsLeft = max
			return nil
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		refilled++
	}
	return refilled, errors.Join(errs...)
}
