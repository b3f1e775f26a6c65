package config

import (
	"fmt"
	"os"

	"tg-gift-roulette/gamble"

	"github.com/pelletier/go-toml/v2"
)

// PrizeConfig структура файла призов:
//
//	[[prizes]]
//	name = "Кольцо с бриллиантом"
//	star_price = 5
//	img = "/images/diamond_ring.png"
//
//	[[tiers]]
//	star_price = 5
//	percent = 5
type PrizeConfig struct {
	Prizes []gamble.Prize `toml:"prizes"`
	Tiers  []gamble.Tier  `toml:"tiers"`
}

// LoadPrizeConfig загружает каталог и шансы из TOML-файла.
// Пустой путь означает стандартный каталог. Пропущенные секции берутся по умолчанию.
func LoadPrizeConfig(path string) (*PrizeConfig, error) {
	cfg := &PrizeConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prizes file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse prizes file %s: %w", path, err)
		}
	}

	if len(cfg.Prizes) == 0 {
		cfg.Prizes = append([]gamble.Prize(nil), gamble.DefaultCatalog...)
	}
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = append([]gamble.Tier(nil), gamble.DefaultTiers...)
	}
	return cfg, nil
}

// Table строит и проверяет таблицу розыгрыша
func (p *PrizeConfig) Table(opts ...gamble.Option) (*gamble.PrizeTable, error) {
	return gamble.NewPrizeTable(p.Prizes, p.Tiers, opts...)
}
