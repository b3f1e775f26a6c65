package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tg-gift-roulette/gamble"
	"tg-gift-roulette/internal/logger"
	"tg-gift-roulette/internal/models"
	"tg-gift-roulette/internal/storage"
)

// SpinResult результат одной прокрутки рулетки
type SpinResult struct {
	Prize        gamble.Prize      `json:"won_prize"`
	AttemptsLeft int               `json:"attempts_left"`
	Gift         *models.GiftEntry `json:"gift,omitempty"`
}

// Roulette журнал попыток: списывает попытку, разыгрывает приз и сохраняет результат одной транзакцией
type Roulette struct {
	store *storage.Store
	table *gamble.PrizeTable
	stats *Stats
	now   func() time.Time
}

// NewRoulette создает рулетку поверх хранилища и проверенной таблицы призов
func NewRoulette(store *storage.Store, table *gamble.PrizeTable) *Roulette {
	return &Roulette{
		store: store,
		table: table,
		stats: &Stats{},
		now:   time.Now,
	}
}

// Table возвращает таблицу розыгрыша
func (r *Roulette) Table() *gamble.PrizeTable {
	return r.table
}

// Stats возвращает счетчики прокруток
func (r *Roulette) Stats() StatsSnapshot {
	return r.stats.Snapshot()
}

// MaxAttempts верхняя граница попыток
func (r *Roulette) MaxAttempts() int {
	return r.store.MaxAttempts()
}

func checkUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", models.ErrUnauthorized)
	}
	return nil
}

// RegisterOrFetchUser регистрирует пользователя при первом обращении или возвращает существующую запись
func (r *Roulette) RegisterOrFetchUser(ctx context.Context, userID string) (*models.UserRecord, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	return r.store.GetOrCreate(ctx, userID)
}

// GetStatus возвращает оставшиеся попытки и подарки. Незнакомому пользователю
// показываются значения по умолчанию, запись при этом не создается.
func (r *Roulette) GetStatus(ctx context.Context, userID string) (*models.Status, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}

	rec, err := r.store.Get(ctx, userID)
	if errors.Is(err, models.ErrUserNotFound) {
		rec = models.NewUserRecord(userID, r.store.MaxAttempts())
	} else if err != nil {
		return nil, err
	}

	return &models.Status{AttemptsLeft: rec.AttemptsLeft, Gifts: rec.Gifts}, nil
}

// Spin списывает попытку и разыгрывает приз.
// Все шаги выполняются под блокировкой пользователя: две одновременные прокрутки
// при одной оставшейся попытке дадут ровно один успех и один models.ErrNoAttemptsLeft.
// Пустой розыгрыш тоже тратит попытку. Подарок добавляется только при StarPrice > 0.
func (r *Roulette) Spin(ctx context.Context, userID string) (*SpinResult, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}

	var result SpinResult
	rec, err := r.store.Upsert(ctx, userID, func(rec *models.UserRecord) error {
		if rec.AttemptsLeft <= 0 {
			return models.ErrNoAttemptsLeft
		}

		prize := r.table.Draw()
		rec.AttemptsLeft--

		result.Prize = prize
		result.Gift = nil
		if !prize.IsEmpty() {
			gift := models.NewGiftEntry(prize, r.now())
			rec.Gifts = append(rec.Gifts, gift)
			result.Gift = &gift
		}
		return nil
	})
	if errors.Is(err, models.ErrNoAttemptsLeft) {
		r.stats.rejected.Inc()
		logger.Debugf("spin: у пользователя %s нет попыток", userID)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	result.AttemptsLeft = rec.AttemptsLeft
	r.stats.record(result.Prize)
	logger.Infof("spin: пользователь %s выиграл %q (%d⭐), осталось попыток: %d",
		userID, result.Prize.Name, result.Prize.StarPrice, result.AttemptsLeft)
	return &result, nil
}
