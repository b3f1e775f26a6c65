package bot

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"tg-gift-roulette/gamble"
	"tg-gift-roulette/internal/game"
	"tg-gift-roulette/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/goccy/go-json"
)

const adminID int64 = 1001

type fakeSender struct {
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func newTestBot(t *testing.T, webAppURL string) (*Bot, *fakeSender, *game.Roulette) {
	t.Helper()
	backend, err := storage.OpenFileBackend(filepath.Join(t.TempDir(), "user_data.json"))
	if err != nil {
		t.Fatal(err)
	}
	store := storage.NewStore(backend, 2)
	table, err := gamble.NewPrizeTable(gamble.DefaultCatalog, []gamble.Tier{{StarPrice: 5, Percent: 100}},
		gamble.WithRandom(func(int) int { return 0 }))
	if err != nil {
		t.Fatal(err)
	}

	roulette := game.NewRoulette(store, table)
	sender := &fakeSender{}
	return NewBot(sender, roulette, game.NewAdmin(adminID, store), adminID, webAppURL), sender, roulette
}

func command(from int64, text string) *tgbotapi.Message {
	name := strings.Fields(text)[0]
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: from, FirstName: "Тест"},
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func TestStartRegistersUser(t *testing.T) {
	b, _, _ := newTestBot(t, "https://example.org/app")
	ctx := context.Background()

	msg := b.reply(ctx, command(42, "/start"))
	if !strings.Contains(msg.Text, "Привет, Тест") || !strings.Contains(msg.Text, "2 попытки") {
		t.Errorf("text = %q", msg.Text)
	}
	// Кнопка должна открывать WebApp, а не обычную ссылку, иначе страница не получит initData
	raw, err := json.Marshal(msg.ReplyMarkup)
	if err != nil {
		t.Fatal(err)
	}
	var markup struct {
		Keyboard [][]struct {
			Text   string `json:"text"`
			URL    string `json:"url"`
			WebApp struct {
				URL string `json:"url"`
			} `json:"web_app"`
		} `json:"keyboard"`
	}
	if err := json.Unmarshal(raw, &markup); err != nil {
		t.Fatal(err)
	}
	if len(markup.Keyboard) != 1 || len(markup.Keyboard[0]) != 1 {
		t.Fatalf("markup = %s", raw)
	}
	if btn := markup.Keyboard[0][0]; btn.WebApp.URL != "https://example.org/app" || btn.URL != "" {
		t.Errorf("button = %s", raw)
	}

	users, err := b.admin.Users(ctx, adminID)
	if err != nil || len(users) != 1 || users[0].UserID != "42" {
		t.Errorf("users = %+v, %v", users, err)
	}
}

func TestStartWithoutWebApp(t *testing.T) {
	b, _, _ := newTestBot(t, "")
	msg := b.reply(context.Background(), command(42, "/start"))
	if msg.ReplyMarkup != nil {
		t.Errorf("unexpected markup %#v", msg.ReplyMarkup)
	}
}

func TestStatus(t *testing.T) {
	b, _, r := newTestBot(t, "")
	ctx := context.Background()
	if _, err := r.Spin(ctx, "42"); err != nil {
		t.Fatal(err)
	}

	msg := b.reply(ctx, command(42, "/status"))
	if !strings.Contains(msg.Text, "1 попытка") || !strings.Contains(msg.Text, "0. Кольцо с бриллиантом, 5⭐") {
		t.Errorf("text = %q", msg.Text)
	}
}

func TestHelpShowsAdminCommandsToAdminOnly(t *testing.T) {
	b, _, _ := newTestBot(t, "")
	ctx := context.Background()

	if msg := b.reply(ctx, command(42, "/help")); strings.Contains(msg.Text, "/grant") {
		t.Errorf("user help contains admin commands")
	}
	if msg := b.reply(ctx, command(adminID, "/help")); !strings.Contains(msg.Text, "/grant") {
		t.Errorf("admin help lacks admin commands")
	}
}

func TestAdminCommands(t *testing.T) {
	b, _, r := newTestBot(t, "")
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := r.Spin(ctx, "42"); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		from int64
		text string
		want string
	}{
		{42, "/grant 42", "только администратору"},
		{adminID, "/grant", "Укажите ID"},
		{adminID, "/grant abc", "неверный ID"},
		{adminID, "/grant 777", "не найден"},
		{adminID, "/grant 42", "Теперь: 1"},
		{adminID, "/reset 42", "сброшены до 2"},
		{adminID, "/grant 42", "уже максимум попыток: 2"},
		{adminID, "/gifts 42", "1. Кольцо с бриллиантом"},
		{adminID, "/user 42", "👤 42: 2 попытки, подарков 2 на 10 звёзд"},
		{adminID, "/removegift 42", "Укажите номер"},
		{adminID, "/removegift 42 x", "должен быть числом"},
		{adminID, "/removegift 42 5", "не найден"},
		{adminID, "/removegift 42 0", "Подарок 0 пользователя 42 удален"},
		{adminID, "/users", "подарков 1"},
		{adminID, "/stats", "Прокруток: 2"},
		{42, "/unknown", "Неизвестная команда"},
	}
	for _, tt := range tests {
		msg := b.reply(ctx, command(tt.from, tt.text))
		if !strings.Contains(msg.Text, tt.want) {
			t.Errorf("%s from %d: got %q, want substring %q", tt.text, tt.from, msg.Text, tt.want)
		}
	}
}

func TestHandleCommandSends(t *testing.T) {
	b, sender, _ := newTestBot(t, "")
	b.HandleCommand(context.Background(), tgbotapi.Update{Message: command(42, "/help")})
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages", len(sender.sent))
	}
	if msg, ok := sender.sent[0].(tgbotapi.MessageConfig); !ok || msg.ChatID != 42 {
		t.Errorf("sent %#v", sender.sent[0])
	}
}

func TestNotifySpin(t *testing.T) {
	b, sender, r := newTestBot(t, "")
	ctx := context.Background()

	res, err := r.Spin(ctx, "42")
	if err != nil {
		t.Fatal(err)
	}
	b.NotifySpin(42, res)
	b.NotifySpin(42, &game.SpinResult{Prize: gamble.EmptyPrize})

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages", len(sender.sent))
	}
	win, _ := sender.sent[0].(tgbotapi.MessageConfig)
	if win.ChatID != 42 || win.Text != "🎉 Поздравляем! Ты выиграл: Кольцо с бриллиантом (5⭐)" {
		t.Errorf("win = %+v", win)
	}
	empty, _ := sender.sent[1].(tgbotapi.MessageConfig)
	if !strings.Contains(empty.Text, "не повезло") {
		t.Errorf("empty = %q", empty.Text)
	}
}
