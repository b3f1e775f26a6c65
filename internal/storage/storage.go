package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tg-gift-roulette/internal/logger"
	"tg-gift-roulette/internal/models"
)

// Backend долговременное хранилище записей пользователей.
// Каждый Put атомарен для одной записи: прерванная запись не портит ни одного пользователя.
// Get возвращает models.ErrUserNotFound, если записи нет.
type Backend interface {
	Get(ctx context.Context, userID string) (*models.UserRecord, error)
	Put(ctx context.Context, rec *models.UserRecord) error
	List(ctx context.Context) ([]*models.UserRecord, error)
	Close() error
}

// MutateFunc изменяет копию записи. Ошибка отменяет изменение целиком, ничего не записывается.
type MutateFunc func(rec *models.UserRecord) error

// Store хранилище записей с эксклюзивным доступом на каждого пользователя.
// Изменения одного user_id выполняются строго по очереди, разные пользователи друг друга не ждут.
type Store struct {
	backend     Backend
	maxAttempts int

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewStore создает хранилище поверх backend. maxAttempts задает значение по умолчанию
// для новых пользователей и верхнюю границу попыток.
func NewStore(backend Backend, maxAttempts int) *Store {
	return &Store{
		backend:     backend,
		maxAttempts: maxAttempts,
		locks:       make(map[string]*keyLock),
	}
}

// MaxAttempts возвращает верхнюю границу попыток
func (s *Store) MaxAttempts() int {
	return s.maxAttempts
}

// Close закрывает backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// lock захватывает блокировку пользователя. Ожидание прерывается отменой ctx.
func (s *Store) lock(ctx context.Context, userID string) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			s.release(userID, l)
		}, nil
	case <-ctx.Done():
		s.release(userID, l)
		return nil, ctx.Err()
	}
}

func (s *Store) release(userID string, l *keyLock) {
	s.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, userID)
	}
	s.mu.Unlock()
}

func (s *Store) load(ctx context.Context, userID string) (*models.UserRecord, error) {
	rec, err := s.backend.Get(ctx, userID)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, &models.StoreIOError{Op: "read", UserID: userID, Err: err}
	}
	rec.UserID = userID
	rec.Clamp(s.maxAttempts)
	return rec, nil
}

// save записывает запись. Запись не прерывается отменой ctx, чтобы изменение
// не осталось применённым наполовину.
func (s *Store) save(ctx context.Context, rec *models.UserRecord) error {
	if err := s.backend.Put(context.WithoutCancel(ctx), rec); err != nil {
		return &models.StoreIOError{Op: "write", UserID: rec.UserID, Err: err}
	}
	return nil
}

// Get возвращает запись пользователя или models.ErrUserNotFound
func (s *Store) Get(ctx context.Context, userID string) (*models.UserRecord, error) {
	return s.load(ctx, userID)
}

// GetOrCreate возвращает запись пользователя, создавая ее с настройками по умолчанию.
// Отсутствие записи не является ошибкой.
func (s *Store) GetOrCreate(ctx context.Context, userID string) (*models.UserRecord, error) {
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := s.load(ctx, userID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}

	rec = models.NewUserRecord(userID, s.maxAttempts)
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	logger.Infof("Создан пользователь %s, попыток: %d", userID, rec.AttemptsLeft)
	return rec, nil
}

// Mutate выполняет read-modify-write под блокировкой пользователя.
// Для незарегистрированного пользователя возвращает models.ErrUserNotFound.
func (s *Store) Mutate(ctx context.Context, userID string, fn MutateFunc) (*models.UserRecord, error) {
	return s.mutate(ctx, userID, false, fn)
}

// Upsert как Mutate, но создает пользователя, если его еще нет
func (s *Store) Upsert(ctx context.Context, userID string, fn MutateFunc) (*models.UserRecord, error) {
	return s.mutate(ctx, userID, true, fn)
}

func (s *Store) mutate(ctx context.Context, userID string, create bool, fn MutateFunc) (*models.UserRecord, error) {
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := s.load(ctx, userID)
	switch {
	case errors.Is(err, models.ErrUserNotFound) && create:
		rec = models.NewUserRecord(userID, s.maxAttempts)
	case err != nil:
		return nil, err
	}

	updated := rec.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	updated.UserID = userID
	updated.Clamp(s.maxAttempts)

	// Отмена до записи: ничего не применено
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, updated); err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

// RemoveGift удаляет подарок по позиции. Возвращает models.ErrGiftNotFound, если
// пользователя нет или индекс вне [0, len(gifts)).
func (s *Store) RemoveGift(ctx context.Context, userID string, index int) (*models.UserRecord, error) {
	rec, err := s.Mutate(ctx, userID, func(rec *models.UserRecord) error {
		if index < 0 || index >= len(rec.Gifts) {
			return fmt.Errorf("%w: index %d of %d", models.ErrGiftNotFound, index, len(rec.Gifts))
		}
		rec.Gifts = append(rec.Gifts[:index], rec.Gifts[index+1:]...)
		return nil
	})
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: user %s", models.ErrGiftNotFound, userID)
	}
	return rec, err
}

// All возвращает все записи
func (s *Store) All(ctx context.Context) ([]*models.UserRecord, error) {
	recs, err := s.backend.List(ctx)
	if err != nil {
		return nil, &models.StoreIOError{Op: "list", Err: err}
	}
	for _, rec := range recs {
		rec.Clamp(s.maxAttempts)
	}
	return recs, nil
}
