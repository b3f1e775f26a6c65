package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"tg-gift-roulette/internal/models"

	"github.com/goccy/go-json"
)

// FileBackend хранит всех пользователей одним JSON-документом (user_id -> запись).
// Документ перезаписывается целиком через временный файл и rename, поэтому
// прерванная запись оставляет на диске либо старую, либо новую версию.
type FileBackend struct {
	path string

	mu   sync.Mutex
	data map[string]*models.UserRecord
}

// OpenFileBackend читает документ с диска, создавая пустой файл при его отсутствии.
// Поврежденный документ является ошибкой: перезаписать его пустым значило бы потерять данные.
func OpenFileBackend(path string) (*FileBackend, error) {
	b := &FileBackend{path: path, data: make(map[string]*models.UserRecord)}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := b.flush(b.data); err != nil {
			return nil, err
		}
		return b, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if len(content) > 0 {
		if err := json.Unmarshal(content, &b.data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	for id, rec := range b.data {
		if rec == nil {
			delete(b.data, id)
			continue
		}
		rec.UserID = id
	}
	return b, nil
}

// Get возвращает копию записи пользователя
func (b *FileBackend) Get(ctx context.Context, userID string) (*models.UserRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.data[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return rec.Clone(), nil
}

// Put записывает документ с обновленной записью. Память обновляется только после успешной записи на диск.
func (b *FileBackend) Put(ctx context.Context, rec *models.UserRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := make(map[string]*models.UserRecord, len(b.data)+1)
	for id, r := range b.data {
		next[id] = r
	}
	next[rec.UserID] = rec.Clone()

	if err := b.flush(next); err != nil {
		return err
	}
	b.data = next
	return nil
}

// List возвращает копии всех записей, отсортированные по user_id
func (b *FileBackend) List(ctx context.Context) ([]*models.UserRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	records := make([]*models.UserRecord, 0, len(b.data))
	for _, rec := range b.data {
		records = append(records, rec.Clone())
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UserID < records[j].UserID })
	return records, nil
}

// Close ничего не делает: каждый Put уже на диске
func (b *FileBackend) Close() error {
	return nil
}

// flush атомарно заменяет файл: temp -> fsync -> rename
func (b *FileBackend) flush(data map[string]*models.UserRecord) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // после успешного rename файла уже нет

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, b.path)
}
