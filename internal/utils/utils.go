package utils

import (
	"fmt"
	"strconv"
	"strings"

	"tg-gift-roulette/internal/models"
)

// pluralRu выбирает форму слова для числа: одна, две, пять
func pluralRu(count int, one, few, many string) string {
	if count < 0 {
		count = -count
	}
	lastDigit := count % 10
	lastTwoDigits := count % 100

	// Исключения для чисел 11-14
	if lastTwoDigits >= 11 && lastTwoDigits <= 14 {
		return many
	}

	switch lastDigit {
	case 1:
		return one
	case 2, 3, 4:
		return few
	default:
		return many
	}
}

// GetStarsWord возвращает правильное склонение слова "звезда"
func GetStarsWord(count int) string {
	return pluralRu(count, "звезда", "звезды", "звёзд")
}

// GetAttemptsWord возвращает правильное склонение слова "попытка"
func GetAttemptsWord(count int) string {
	return pluralRu(count, "попытка", "попытки", "попыток")
}

// ParseUserID проверяет, что аргумент команды является числовым Telegram ID
func ParseUserID(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return "", fmt.Errorf("неверный ID пользователя: %q", arg)
	}
	return strconv.FormatInt(id, 10), nil
}

// FormatGift форматирует подарок одной строкой
func FormatGift(index int, g models.GiftEntry) string {
	return fmt.Sprintf("%d. %s, %d⭐ (%s)", index, g.Name, g.StarPrice, g.AwardedAt.Format("02.01.2006 15:04"))
}

// FormatGifts форматирует список подарков с индексами для /removegift
func FormatGifts(gifts []models.GiftEntry) string {
	if len(gifts) == 0 {
		return "🎁 Подарков пока нет"
	}

	var sb strings.Builder
	sb.WriteString("🎁 ПОДАРКИ:\n")
	total := 0
	for i, g := range gifts {
		sb.WriteString(FormatGift(i, g))
		sb.WriteString("\n")
		total += g.StarPrice
	}
	fmt.Fprintf(&sb, "\n💰 Всего: %d %s", total, GetStarsWord(total))
	return sb.String()
}

// FormatStatus форматирует статус пользователя для /status
func FormatStatus(status *models.Status) string {
	return fmt.Sprintf("🎰 Осталось %d %s\n\n%s",
		status.AttemptsLeft, GetAttemptsWord(status.AttemptsLeft), FormatGifts(status.Gifts))
}

// FormatUserRecord форматирует запись пользователя для админа
func FormatUserRecord(rec *models.UserRecord) string {
	total := rec.TotalStars()
	return fmt.Sprintf("👤 %s: %d %s, подарков %d на %d %s",
		rec.UserID, rec.AttemptsLeft, GetAttemptsWord(rec.AttemptsLeft),
		len(rec.Gifts), total, GetStarsWord(total))
}
