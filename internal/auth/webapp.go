// Package auth проверяет подпись данных Telegram WebApp (initData) и возвращает ID пользователя
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"tg-gift-roulette/internal/models"

	"github.com/goccy/go-json"
)

// WebAppVerifier проверяет initData по схеме Telegram:
// secret = HMAC_SHA256("WebAppData", token), hash = HMAC_SHA256(secret, data_check_string)
type WebAppVerifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewWebAppVerifier создает проверяющего для токена бота. ttl = 0 отключает проверку возраста.
func NewWebAppVerifier(botToken string, ttl time.Duration) *WebAppVerifier {
	return &WebAppVerifier{
		secret: secretKey(botToken),
		ttl:    ttl,
		now:    time.Now,
	}
}

func secretKey(botToken string) []byte {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	return mac.Sum(nil)
}

type webAppUser struct {
	ID int64 `json:"id"`
}

// Verify возвращает ID пользователя из подписанных данных или models.ErrUnauthorized
func (v *WebAppVerifier) Verify(initData string) (int64, error) {
	if initData == "" {
		return 0, fmt.Errorf("%w: empty init data", models.ErrUnauthorized)
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed init data", models.ErrUnauthorized)
	}

	hash := values.Get("hash")
	if hash == "" {
		return 0, fmt.Errorf("%w: missing hash", models.ErrUnauthorized)
	}
	got, err := hex.DecodeString(hash)
	if err != nil || !hmac.Equal(got, sign(v.secret, values)) {
		return 0, fmt.Errorf("%w: bad signature", models.ErrUnauthorized)
	}

	if v.ttl > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: missing auth_date", models.ErrUnauthorized)
		}
		if v.now().Sub(time.Unix(authDate, 0)) > v.ttl {
			return 0, fmt.Errorf("%w: init data expired", models.ErrUnauthorized)
		}
	}

	var user webAppUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID <= 0 {
		return 0, fmt.Errorf("%w: missing user", models.ErrUnauthorized)
	}
	return user.ID, nil
}

// sign вычисляет подпись всех полей кроме hash
func sign(secret []byte, values url.Values) []byte {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strings.Join(pairs, "\n")))
	return mac.Sum(nil)
}

// Sign подписывает набор полей так же, как это делает Telegram. Используется в тестах и локальной отладке.
func Sign(botToken string, values url.Values) string {
	signed := url.Values{}
	for k, v := range values {
		signed[k] = v
	}
	signed.Set("hash", hex.EncodeToString(sign(secretKey(botToken), values)))
	return signed.Encode()
}
