package bot

import (
	"fmt"

	"tg-gift-roulette/internal/game"
	"tg-gift-roulette/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// tgbotapi v5.5.1 не знает о кнопках WebApp, поэтому разметка описана здесь.
// ReplyMarkup кодируется в JSON как есть.

type webAppInfo struct {
	URL string `json:"url"`
}

type webAppButton struct {
	Text   string     `json:"text"`
	WebApp webAppInfo `json:"web_app"`
}

// webAppKeyboard обычная клавиатура с кнопкой WebApp. Только из нее Telegram
// передает странице подписанный initData.
type webAppKeyboard struct {
	Keyboard       [][]webAppButton `json:"keyboard"`
	ResizeKeyboard bool             `json:"resize_keyboard"`
}

func newWebAppKeyboard(text, url string) webAppKeyboard {
	return webAppKeyboard{
		Keyboard:       [][]webAppButton{{{Text: text, WebApp: webAppInfo{URL: url}}}},
		ResizeKeyboard: true,
	}
}

// NotifySpin пишет пользователю в личный чат результат прокрутки из WebApp
func (b *Bot) NotifySpin(userID int64, res *game.SpinResult) {
	msg := tgbotapi.NewMessage(userID, spinText(res))
	if _, err := b.API.Send(msg); err != nil {
		logger.Warningf("не удалось отправить результат прокрутки %d: %v", userID, err)
	}
}

func spinText(res *game.SpinResult) string {
	if res.Prize.IsEmpty() {
		return "В этот раз не повезло, но попробуй еще раз!"
	}
	return fmt.Sprintf("🎉 Поздравляем! Ты выиграл: %s (%d⭐)", res.Prize.Name, res.Prize.StarPrice)
}
