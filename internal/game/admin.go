package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tg-gift-roulette/gamble"
	"tg-gift-roulette/internal/logger"
	"tg-gift-roulette/internal/models"
	"tg-gift-roulette/internal/storage"
)

// Command админская операция. Набор закрыт: GrantAttempt, ResetAttempts, AddGift, RemoveGift.
type Command interface {
	adminCommand()
}

// GrantAttempt добавляет пользователю одну попытку, не больше максимума
type GrantAttempt struct {
	UserID string `json:"user_id"`
}

// ResetAttempts возвращает пользователю полный запас попыток
type ResetAttempts struct {
	UserID string `json:"user_id"`
}

// AddGift выдает пользователю подарок вручную
type AddGift struct {
	UserID string    `json:"user_id"`
	Gift   GiftInput `json:"prize"`
}

// RemoveGift удаляет подарок пользователя по позиции
type RemoveGift struct {
	UserID string `json:"user_id"`
	Index  int    `json:"gift_index"`
}

func (GrantAttempt) adminCommand()  {}
func (ResetAttempts) adminCommand() {}
func (AddGift) adminCommand()       {}
func (RemoveGift) adminCommand()    {}

// GiftInput подарок от админа. StarPrice указатель, чтобы отличить отсутствующее поле от нуля.
type GiftInput struct {
	Name      string `json:"name"`
	StarPrice *int   `json:"starPrice"`
	Image     string `json:"img"`
}

// Validate проверяет обязательные поля подарка
func (g GiftInput) Validate() (gamble.Prize, error) {
	var missing []string
	if strings.TrimSpace(g.Name) == "" {
		missing = append(missing, "name")
	}
	if g.StarPrice == nil {
		missing = append(missing, "starPrice")
	}
	if strings.TrimSpace(g.Image) == "" {
		missing = append(missing, "img")
	}
	if len(missing) > 0 {
		return gamble.Prize{}, fmt.Errorf("%w: missing %s", models.ErrInvalidGift, strings.Join(missing, ", "))
	}
	if *g.StarPrice < 0 {
		return gamble.Prize{}, fmt.Errorf("%w: negative starPrice", models.ErrInvalidGift)
	}
	return gamble.Prize{Name: g.Name, StarPrice: *g.StarPrice, Image: g.Image}, nil
}

// Admin выполняет админские операции через тот же Store, что и рулетка
type Admin struct {
	adminID int64
	store   *storage.Store
	now     func() time.Time
}

// NewAdmin создает обработчик админских операций для настроенного ADMIN_ID
func NewAdmin(adminID int64, store *storage.Store) *Admin {
	return &Admin{adminID: adminID, store: store, now: time.Now}
}

// Authorize проверяет, что вызывающий является админом
func (a *Admin) Authorize(callerID int64) error {
	if callerID != a.adminID {
		return fmt.Errorf("%w: %d is not admin", models.ErrUnauthorized, callerID)
	}
	return nil
}

// Execute единая точка входа для админских команд
func (a *Admin) Execute(ctx context.Context, callerID int64, cmd Command) (*models.UserRecord, error) {
	if err := a.Authorize(callerID); err != nil {
		return nil, err
	}

	var (
		rec *models.UserRecord
		err error
	)
	switch c := cmd.(type) {
	case GrantAttempt:
		max := a.store.MaxAttempts()
		rec, err = a.store.Mutate(ctx, c.UserID, func(rec *models.UserRecord) error {
			if rec.AttemptsLeft < max {
				rec.AttemptsLeft++
			}
			return nil
		})
	case ResetAttempts:
		max := a.store.MaxAttempts()
		rec, err = a.store.Mutate(ctx, c.UserID, func(rec *models.UserRecord) error {
			rec.AttemptsLeft = max
			return nil
		})
	case AddGift:
		prize, verr := c.Gift.Validate()
		if verr != nil {
			return nil, verr
		}
		rec, err = a.store.Upsert(ctx, c.UserID, func(rec *models.UserRecord) error {
			rec.Gifts = append(rec.Gifts, models.NewGiftEntry(prize, a.now()))
			return nil
		})
	case RemoveGift:
		rec, err = a.store.RemoveGift(ctx, c.UserID, c.Index)
	default:
		return nil, fmt.Errorf("unknown admin command %T", cmd)
	}
	if err != nil {
		logger.Warningf("admin: %T для %s не выполнена: %v", cmd, targetOf(cmd), err)
		return nil, err
	}

	logger.Infof("admin: %T для %s выполнена, попыток: %d, подарков: %d",
		cmd, rec.UserID, rec.AttemptsLeft, len(rec.Gifts))
	return rec, nil
}

func targetOf(cmd Command) string {
	switch c := cmd.(type) {
	case GrantAttempt:
		return c.UserID
	case ResetAttempts:
		return c.UserID
	case AddGift:
		return c.UserID
	case RemoveGift:
		return c.UserID
	}
	return ""
}

// AdminGrantAttempt добавляет попытку пользователю
func (a *Admin) AdminGrantAttempt(ctx context.Context, adminID int64, userID string) (*models.UserRecord, error) {
	return a.Execute(ctx, adminID, GrantAttempt{UserID: userID})
}

// AdminResetAttempts сбрасывает попытки пользователя до максимума
func (a *Admin) AdminResetAttempts(ctx context.Context, adminID int64, userID string) error {
	_, err := a.Execute(ctx, adminID, ResetAttempts{UserID: userID})
	return err
}

// AdminAddGift выдает подарок пользователю
func (a *Admin) AdminAddGift(ctx context.Context, adminID int64, userID string, gift GiftInput) error {
	_, err := a.Execute(ctx, adminID, AddGift{UserID: userID, Gift: gift})
	return err
}

// AdminRemoveGift удаляет подарок пользователя по индексу
func (a *Admin) AdminRemoveGift(ctx context.Context, adminID int64, userID string, index int) error {
	_, err := a.Execute(ctx, adminID, RemoveGift{UserID: userID, Index: index})
	return err
}

// Users возвращает все записи (только для админа)
func (a *Admin) Users(ctx context.Context, adminID int64) ([]*models.UserRecord, error) {
	if err := a.Authorize(adminID); err != nil {
		return nil, err
	}
	return a.store.All(ctx)
}

// User возвращает запись одного пользователя (только для админа)
func (a *Admin) User(ctx context.Context, adminID int64, userID string) (*models.UserRecord, error) {
	if err := a.Authorize(adminID); err != nil {
		return nil, err
	}
	return a.store.Get(ctx, userID)
}
