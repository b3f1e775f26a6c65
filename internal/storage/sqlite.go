package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tg-gift-roulette/internal/models"

	"github.com/goccy/go-json"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// userRow строка таблицы user_records. Подарки лежат JSON-массивом в одной колонке,
// так что запись пользователя меняется одним оператором.
type userRow struct {
	UserID       string    `gorm:"primaryKey;type:varchar(64)"`
	AttemptsLeft int       `gorm:"not null"`
	Gifts        string    `gorm:"type:text;not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (userRow) TableName() string {
	return "user_records"
}

// SQLiteBackend хранит записи в SQLite через GORM
type SQLiteBackend struct {
	db *gorm.DB
}

// OpenSQLiteBackend открывает базу и создает таблицу при необходимости
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&userRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Get получает запись пользователя
func (b *SQLiteBackend) Get(ctx context.Context, userID string) (*models.UserRecord, error) {
	var row userRow
	err := b.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toRecord()
}

// Put вставляет или полностью заменяет запись пользователя
func (b *SQLiteBackend) Put(ctx context.Context, rec *models.UserRecord) error {
	gifts, err := json.Marshal(rec.Gifts)
	if err != nil {
		return err
	}
	row := userRow{
		UserID:       rec.UserID,
		AttemptsLeft: rec.AttemptsLeft,
		Gifts:        string(gifts),
		UpdatedAt:    time.Now(),
	}
	return b.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// List получает все записи, отсортированные по user_id
func (b *SQLiteBackend) List(ctx context.Context) ([]*models.UserRecord, error) {
	var rows []userRow
	if err := b.db.WithContext(ctx).Order("user_id asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]*models.UserRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close закрывает соединение с базой
func (b *SQLiteBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r userRow) toRecord() (*models.UserRecord, error) {
	rec := &models.UserRecord{UserID: r.UserID, AttemptsLeft: r.AttemptsLeft, Gifts: []models.GiftEntry{}}
	if r.Gifts != "" {
		if err := json.Unmarshal([]byte(r.Gifts), &rec.Gifts); err != nil {
			return nil, fmt.Errorf("decode gifts of %s: %w", r.UserID, err)
		}
	}
	return rec, nil
}
