package models

import (
	"time"

	"tg-gift-roulette/gamble"

	"github.com/google/uuid"
)

// GiftEntry представляет подарок в истории пользователя.
// После добавления не меняется, админ может только удалить его по индексу.
type GiftEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StarPrice int       `json:"starPrice"`
	Image     string    `json:"img"`
	AwardedAt time.Time `json:"date"`
}

// UserRecord представляет состояние пользователя: оставшиеся попытки и выигранные подарки
type UserRecord struct {
	UserID       string      `json:"user_id"`
	AttemptsLeft int         `json:"attempts_left"`
	Gifts        []GiftEntry `json:"gifts"`
}

// NewUserRecord создает запись нового пользователя с полным запасом попыток
func NewUserRecord(userID string, maxAttempts int) *UserRecord {
	return &UserRecord{
		UserID:       userID,
		AttemptsLeft: maxAttempts,
		Gifts:        []GiftEntry{},
	}
}

// Clone возвращает глубокую копию записи
func (r *UserRecord) Clone() *UserRecord {
	c := *r
	c.Gifts = append([]GiftEntry{}, r.Gifts...)
	return &c
}

// Clamp удерживает количество попыток в диапазоне [0, max]
func (r *UserRecord) Clamp(max int) {
	if r.AttemptsLeft < 0 {
		r.AttemptsLeft = 0
	}
	if r.AttemptsLeft > max {
		r.AttemptsLeft = max
	}
	if r.Gifts == nil {
		r.Gifts = []GiftEntry{}
	}
}

// TotalStars суммарная стоимость подарков пользователя
func (r *UserRecord) TotalStars() int {
	total := 0
	for _, g := range r.Gifts {
		total += g.StarPrice
	}
	return total
}

// NewGiftEntry создает запись подарка из приза каталога
func NewGiftEntry(p gamble.Prize, at time.Time) GiftEntry {
	return GiftEntry{
		ID:        uuid.NewString(),
		Name:      p.Name,
		StarPrice: p.StarPrice,
		Image:     p.Image,
		AwardedAt: at,
	}
}

// Status ответ на запрос статуса пользователя
type Status struct {
	AttemptsLeft int         `json:"attempts_left"`
	Gifts        []GiftEntry `json:"gifts"`
}
