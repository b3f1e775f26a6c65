package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tg-gift-roulette/internal/game"
	"tg-gift-roulette/internal/logger"
	"tg-gift-roulette/internal/models"
	"tg-gift-roulette/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender отправляет сообщения в Telegram. Реализуется *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot представляет Telegram бота
type Bot struct {
	API       Sender
	roulette  *game.Roulette
	admin     *game.Admin
	adminID   int64
	webAppURL string
	timeout   time.Duration
}

// NewBot создает новый экземпляр бота
func NewBot(api Sender, roulette *game.Roulette, admin *game.Admin, adminID int64, webAppURL string) *Bot {
	return &Bot{
		API:       api,
		roulette:  roulette,
		admin:     admin,
		adminID:   adminID,
		webAppURL: webAppURL,
		timeout:   10 * time.Second,
	}
}

// Run читает обновления до отмены ctx
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil && update.Message.IsCommand() {
				b.HandleCommand(ctx, update)
			}
		}
	}
}

// HandleCommand обрабатывает команду от пользователя
func (b *Bot) HandleCommand(ctx context.Context, update tgbotapi.Update) {
	// Посты каналов приходят без отправителя
	if update.Message == nil || update.Message.From == nil {
		return
	}
	msg := b.reply(ctx, update.Message)
	if _, err := b.API.Send(msg); err != nil {
		logger.Error("не удалось отправить сообщение:", err)
	}
}

// reply строит ответ на команду
func (b *Bot) reply(ctx context.Context, m *tgbotapi.Message) tgbotapi.MessageConfig {
	userName := m.From.UserName
	if userName == "" {
		userName = m.From.FirstName
	}
	logger.Infof("Команда от пользователя %s (%d): %s", userName, m.From.ID, m.Text)

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	msg := tgbotapi.NewMessage(m.Chat.ID, "")
	msg.ReplyToMessageID = m.MessageID

	userID := strconv.FormatInt(m.From.ID, 10)
	args := strings.Fields(m.CommandArguments())

	switch m.Command() {
	case "start":
		b.handleStart(ctx, &msg, userID, userName)
	case "help":
		b.handleHelp(&msg, m.From.ID)
	case "status":
		b.handleStatus(ctx, &msg, userID)
	case "grant", "reset", "gifts", "removegift", "user", "users", "stats":
		if err := b.admin.Authorize(m.From.ID); err != nil {
			msg.Text = "🚫 Команда доступна только администратору"
			return msg
		}
		b.handleAdmin(ctx, &msg, m.From.ID, m.Command(), args)
	default:
		msg.Text = "Неизвестная команда. Пиши /help"
	}
	return msg
}

// handleStart обрабатывает команду /start
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.MessageConfig, userID, userName string) {
	rec, err := b.roulette.RegisterOrFetchUser(ctx, userID)
	if err != nil {
		msg.Text = errorText(err)
		return
	}

	msg.Text = fmt.Sprintf(`🎉 Привет, %s!

🎰 Добро пожаловать в рулетку подарков!
Крути рулетку и выигрывай подарки за звёзды.

🎯 У тебя %d %s`, userName, rec.AttemptsLeft, utils.GetAttemptsWord(rec.AttemptsLeft))

	if b.webAppURL != "" {
		msg.ReplyMarkup = newWebAppKeyboard("🎰 Открыть рулетку", b.webAppURL)
	}
}

// handleHelp обрабатывает команду /help
func (b *Bot) handleHelp(msg *tgbotapi.MessageConfig, callerID int64) {
	msg.Text = `📋 СПИСОК КОМАНД:

/start - открыть рулетку
/status - оставшиеся попытки и подарки
/help - эта справка`

	if callerID == b.adminID {
		msg.Text += `

🔧 АДМИНСКИЕ:
/grant <id> - добавить попытку
/reset <id> - вернуть все попытки
/gifts <id> - подарки пользователя
/removegift <id> <номер> - удалить подарок
/user <id> - запись пользователя
/users - все пользователи
/stats - статистика прокруток`
	}
}

// handleStatus обрабатывает команду /status
func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.MessageConfig, userID string) {
	status, err := b.roulette.GetStatus(ctx, userID)
	if err != nil {
		msg.Text = errorText(err)
		return
	}
	msg.Text = utils.FormatStatus(status)
}

func (b *Bot) handleAdmin(ctx context.Context, msg *tgbotapi.MessageConfig, callerID int64, command string, args []string) {
	switch command {
	case "users":
		users, err := b.admin.Users(ctx, callerID)
		if err != nil {
			msg.Text = errorText(err)
			return
		}
		if len(users) == 0 {
			msg.Text = "Пользователей пока нет"
			return
		}
		lines := make([]string, 0, len(users))
		for _, u := range users {
			lines = append(lines, utils.FormatUserRecord(u))
		}
		msg.Text = strings.Join(lines, "\n")
		return
	case "stats":
		s := b.roulette.Stats()
		msg.Text = fmt.Sprintf("📊 Прокруток: %d\n🎁 Выигрышей: %d\n💨 Пустых: %d\n⭐ Выдано: %d %s\n🚫 Отказов: %d",
			s.Spins, s.Wins, s.Empty, s.Stars, utils.GetStarsWord(int(s.Stars)), s.Rejected)
		return
	}

	if len(args) == 0 {
		msg.Text = fmt.Sprintf("🚫 Укажите ID пользователя! Пример: /%s 123456789", command)
		return
	}
	userID, err := utils.ParseUserID(args[0])
	if err != nil {
		msg.Text = "🚫 " + err.Error()
		return
	}

	switch command {
	case "grant":
		before, err := b.admin.User(ctx, callerID, userID)
		if err != nil {
			msg.Text = errorText(err)
			return
		}
		rec, err := b.admin.AdminGrantAttempt(ctx, callerID, userID)
		if err != nil {
			msg.Text = errorText(err)
			return
		}
		if rec.AttemptsLeft == before.AttemptsLeft {
			msg.Text = fmt.Sprintf("ℹ️ У пользователя %s уже максимум попыток: %d", userID, rec.AttemptsLeft)
			return
		}
		msg.Text = fmt.Sprintf("✅ Пользователю %s добавлена попытка. Теперь: %d", userID, rec.AttemptsLeft)
	case "reset":
		if err := b.admin.AdminResetAttempts(ctx, callerID, userID); err != nil {
			msg.Text = errorText(err)
			return
		}
		msg.Text = fmt.Sprintf("✅ Попытки пользователя %s сброшены до %d", userID, b.roulette.MaxAttempts())
	case "gifts":
		rec, err := b.admin.User(ctx, callerID, userID)
		if err != nil {
			msg.Text = errorText(err)
			return
		}
		msg.Text = utils.FormatGifts(rec.Gifts)
	case "user":
		rec, err := b.admin.User(ctx, callerID, userID)
		if err != nil {
			msg.Text = errorText(err)
			return
		}
		msg.Text = utils.FormatUserRecord(rec)
	case "removegift":
		if len(args) < 2 {
			msg.Text = "🚫 Укажите номер подарка! Пример: /removegift 123456789 0"
			return
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			msg.Text = "🚫 Номер подарка должен быть числом"
			return
		}
		if err := b.admin.AdminRemoveGift(ctx, callerID, userID, index); err != nil {
			msg.Text = errorText(err)
			return
		}
		msg.Text = fmt.Sprintf("✅ Подарок %d пользователя %s удален", index, userID)
	}
}

// errorText переводит ошибку в текст ответа
func errorText(err error) string {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return "🚫 Нет доступа"
	case errors.Is(err, models.ErrGiftNotFound):
		return "❌ Пользователь или подарок не найден"
	case errors.Is(err, models.ErrUserNotFound):
		return "❌ Пользователь не найден"
	case errors.Is(err, models.ErrNoAttemptsLeft):
		return "😔 Попытки закончились"
	case errors.Is(err, models.ErrInvalidGift):
		return "❌ Неверный подарок"
	}
	logger.Error("bot:", err)
	return "❌ Внутренняя ошибка, попробуйте позже"
}
