package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tg-gift-roulette/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// testBackend проверяет общий контракт Backend
func testBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	if _, err := b.Get(ctx, "42"); !errors.Is(err, models.ErrUserNotFound) {
		t.Fatalf("Get missing: got %v, want ErrUserNotFound", err)
	}

	awarded := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	rec := &models.UserRecord{
		UserID:       "42",
		AttemptsLeft: 1,
		Gifts: []models.GiftEntry{
			{ID: "g1", Name: "Световой меч", StarPrice: 4, Image: "/images/light_sword.png", AwardedAt: awarded},
		},
	}
	if err := b.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := b.Get(ctx, "42")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AttemptsLeft != 1 || len(got.Gifts) != 1 {
		t.Fatalf("Get = %+v", got)
	}
	if g := got.Gifts[0]; g.Name != "Световой меч" || g.StarPrice != 4 || !g.AwardedAt.Equal(awarded) {
		t.Errorf("gift = %+v", g)
	}

	// Put заменяет запись целиком
	rec.AttemptsLeft = 0
	rec.Gifts = nil
	if err := b.Put(ctx, rec); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	got, err = b.Get(ctx, "42")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AttemptsLeft != 0 || len(got.Gifts) != 0 {
		t.Errorf("after replace = %+v", got)
	}

	if err := b.Put(ctx, &models.UserRecord{UserID: "7", AttemptsLeft: 2, Gifts: []models.GiftEntry{}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	all, err := b.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].UserID != "42" || all[1].UserID != "7" {
		t.Errorf("List = %+v", all)
	}
}

func TestFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "user_data.json")
	b, err := OpenFileBackend(path)
	if err != nil {
		t.Fatalf("OpenFileBackend: %v", err)
	}
	testBackend(t, b)

	// Данные переживают повторное открытие
	reopened, err := OpenFileBackend(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	rec, err := reopened.Get(context.Background(), "7")
	if err != nil || rec.AttemptsLeft != 2 {
		t.Errorf("after reopen: %+v, %v", rec, err)
	}

	// Временные файлы не остаются
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the data file, got %d entries", len(entries))
	}
}

func TestFileBackendRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFileBackend(path); err == nil {
		t.Error("expected decode error")
	}
}

func TestFileBackendWriteFailureKeepsState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user_data.json")
	b, err := OpenFileBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := b.Put(ctx, models.NewUserRecord("1", 2)); err != nil {
		t.Fatal(err)
	}

	// Путь превращается в каталог: rename провалится
	b.path = dir
	if err := b.Put(ctx, models.NewUserRecord("2", 2)); err == nil {
		t.Fatal("expected write error")
	}
	if _, err := b.Get(ctx, "2"); !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("failed write must not be visible, got %v", err)
	}
}

func TestSQLiteBackend(t *testing.T) {
	b, err := OpenSQLiteBackend(filepath.Join(t.TempDir(), "roulette.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteBackend: %v", err)
	}
	defer b.Close()
	testBackend(t, b)
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewRedisBackendFromClient(client)
	defer b.Close()

	testBackend(t, b)

	if !mr.Exists("user:42") {
		t.Error("expected key user:42")
	}
}

func TestNewRedisBackendUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisBackend(ctx, addr, "", 0); err == nil {
		t.Error("expected connection error")
	}
}
