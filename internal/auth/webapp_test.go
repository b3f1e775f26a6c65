package auth

import (
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"

	"tg-gift-roulette/internal/models"
)

const token = "1234567890:ABCdefGHIjklMNOpqrsTUVwxyz"

func initData(userJSON string, authDate time.Time) url.Values {
	return url.Values{
		"query_id":  {"AAHdF6IQAAAAAN0XohDhrOrc"},
		"user":      {userJSON},
		"auth_date": {strconv.FormatInt(authDate.Unix(), 10)},
	}
}

func TestVerify(t *testing.T) {
	now := time.Now()
	v := NewWebAppVerifier(token, time.Hour)

	id, err := v.Verify(Sign(token, initData(`{"id":42,"first_name":"Test"}`, now)))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
}

func TestVerifyRejects(t *testing.T) {
	now := time.Now()
	valid := initData(`{"id":42}`, now)

	tampered, _ := url.ParseQuery(Sign(token, valid))
	tampered.Set("user", `{"id":1}`)

	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"no hash", valid.Encode()},
		{"wrong token", Sign("other:token", valid)},
		{"tampered", tampered.Encode()},
		{"not hex", valid.Encode() + "&hash=zz"},
		{"expired", Sign(token, initData(`{"id":42}`, now.Add(-2*time.Hour)))},
		{"no user", Sign(token, url.Values{"auth_date": {strconv.FormatInt(now.Unix(), 10)}})},
		{"no auth date", Sign(token, url.Values{"user": {`{"id":42}`}})},
	}

	v := NewWebAppVerifier(token, time.Hour)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.data); !errors.Is(err, models.ErrUnauthorized) {
				t.Errorf("got %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestVerifyWithoutTTL(t *testing.T) {
	v := NewWebAppVerifier(token, 0)
	old := initData(`{"id":7}`, time.Now().Add(-30*24*time.Hour))
	if id, err := v.Verify(Sign(token, old)); err != nil || id != 7 {
		t.Errorf("Verify = %d, %v", id, err)
	}
}
