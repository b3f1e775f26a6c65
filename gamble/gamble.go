// Package gamble предоставляет функции для работы с вероятностями и взвешенным розыгрышем призов
package gamble

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	mrand "math/rand"
)

// Prize представляет приз из каталога рулетки
type Prize struct {
	Name      string `json:"name" toml:"name"`
	StarPrice int    `json:"starPrice" toml:"star_price"`
	Image     string `json:"img" toml:"img"`
}

// IsEmpty сообщает, что приз пустой (ничего не выпало)
func (p Prize) IsEmpty() bool {
	return p.StarPrice <= 0
}

// EmptyPrize возвращается, когда ни один тир не сыграл
var EmptyPrize = Prize{Name: "Пусто"}

// Tier представляет ценовой тир и его шанс в процентах
type Tier struct {
	StarPrice int `json:"starPrice" toml:"star_price"`
	Percent   int `json:"percent" toml:"percent"`
}

// DefaultTiers шансы выпадения по стоимости в звёздах:
// - 5⭐: 5%
// - 4⭐: 10%
// - 3⭐: 15%
// - 2⭐: 25%
// - 1⭐: 45%
var DefaultTiers = []Tier{
	{StarPrice: 5, Percent: 5},
	{StarPrice: 4, Percent: 10},
	{StarPrice: 3, Percent: 15},
	{StarPrice: 2, Percent: 25},
	{StarPrice: 1, Percent: 45},
}

// DefaultCatalog стандартный набор подарков
var DefaultCatalog = []Prize{
	{Name: "Кольцо с бриллиантом", StarPrice: 5, Image: "/images/diamond_ring.png"},
	{Name: "Световой меч", StarPrice: 4, Image: "/images/light_sword.png"},
	{Name: "Браслет с гвоздями", StarPrice: 3, Image: "/images/nail_bracelet.png"},
	{Name: "Пасхальное яйцо", StarPrice: 2, Image: "/images/easter_egg.png"},
	{Name: "Шлем Неко", StarPrice: 2, Image: "/images/neko_helmet.png"},
	{Name: "Кольцо верности", StarPrice: 1, Image: "/images/bonded_ring.png"},
	{Name: "Любовное зелье", StarPrice: 1, Image: "/images/love_potion.png"},
}

// ErrInvalidTable возвращается, если каталог и таблица шансов несовместимы
var ErrInvalidTable = errors.New("invalid prize table")

// PrizeTable неизменяемая таблица розыгрыша. Безопасна для конкурентного использования.
type PrizeTable struct {
	tiers   []Tier
	catalog []Prize
	byPrice map[int][]Prize
	random  func(n int) int
}

// Option настраивает PrizeTable
type Option func(*PrizeTable)

// WithRandom подменяет источник случайных чисел. fn должна возвращать число из [0, n).
func WithRandom(fn func(n int) int) Option {
	return func(t *PrizeTable) {
		t.random = fn
	}
}

// NewPrizeTable проверяет согласованность каталога и тиров и строит таблицу.
// Тир с ненулевым шансом без единого приза в каталоге является ошибкой конфигурации.
func NewPrizeTable(catalog []Prize, tiers []Tier, opts ...Option) (*PrizeTable, error) {
	t := &PrizeTable{
		tiers:   append([]Tier(nil), tiers...),
		catalog: append([]Prize(nil), catalog...),
		byPrice: make(map[int][]Prize),
		random:  RandomInt,
	}
	for _, opt := range opts {
		opt(t)
	}

	for i, p := range t.catalog {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: catalog entry #%d has no name", ErrInvalidTable, i)
		}
		if p.StarPrice < 0 {
			return nil, fmt.Errorf("%w: catalog entry %q has negative price", ErrInvalidTable, p.Name)
		}
		t.byPrice[p.StarPrice] = append(t.byPrice[p.StarPrice], p)
	}

	total := 0
	seen := make(map[int]bool, len(t.tiers))
	for _, tier := range t.tiers {
		if tier.StarPrice <= 0 {
			return nil, fmt.Errorf("%w: tier price must be positive, got %d", ErrInvalidTable, tier.StarPrice)
		}
		if seen[tier.StarPrice] {
			return nil, fmt.Errorf("%w: duplicate tier %d", ErrInvalidTable, tier.StarPrice)
		}
		seen[tier.StarPrice] = true
		if tier.Percent < 0 {
			return nil, fmt.Errorf("%w: tier %d has negative chance", ErrInvalidTable, tier.StarPrice)
		}
		if tier.Percent > 0 && len(t.byPrice[tier.StarPrice]) == 0 {
			return nil, fmt.Errorf("%w: tier %d has %d%% chance but no prizes", ErrInvalidTable, tier.StarPrice, tier.Percent)
		}
		total += tier.Percent
	}
	if total > 100 {
		return nil, fmt.Errorf("%w: chances sum to %d%%", ErrInvalidTable, total)
	}

	return t, nil
}

// Draw разыгрывает один приз.
// Бросаем число от 1 до 100 и идём по тирам в объявленном порядке, накапливая шанс:
// первый тир, чья накопленная граница >= броска, выигрывает. Внутри тира приз
// выбирается равновероятно. Если ни один тир не сыграл, возвращается EmptyPrize.
func (t *PrizeTable) Draw() Prize {
	roll := t.random(100) + 1

	cumulative := 0
	for _, tier := range t.tiers {
		cumulative += tier.Percent
		if roll <= cumulative {
			eligible := t.byPrice[tier.StarPrice]
			return eligible[t.random(len(eligible))]
		}
	}

	return EmptyPrize
}

// Tiers возвращает копию таблицы шансов
func (t *PrizeTable) Tiers() []Tier {
	return append([]Tier(nil), t.tiers...)
}

// Catalog возвращает копию каталога призов
func (t *PrizeTable) Catalog() []Prize {
	return append([]Prize(nil), t.catalog...)
}

// EmptyChance шанс не выиграть ничего, в процентах
func (t *PrizeTable) EmptyChance() int {
	total := 0
	for _, tier := range t.tiers {
		total += tier.Percent
	}
	return 100 - total
}

// RandomInt генерирует криптографически безопасное случайное число от 0 до n-1
func RandomInt(n int) int {
	if n <= 0 {
		return 0
	}
	randomBig, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand недоступен, равномерность важнее криптостойкости
		return mrand.Intn(n)
	}
	return int(randomBig.Int64())
}
