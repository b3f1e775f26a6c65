package web

import (
	"errors"
	"net/http"
	"strconv"

	"tg-gift-roulette/internal/logger"
	"tg-gift-roulette/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	initDataHeader       = "X-Telegram-Init-Data"
	legacyInitDataHeader = "Telegram-Web-App-Data"
	callerKey            = "caller_id"
)

// authenticate проверяет initData и кладет ID вызывающего в контекст запроса
func (s *Server) authenticate(c *gin.Context) {
	initData := c.GetHeader(initDataHeader)
	if initData == "" {
		initData = c.GetHeader(legacyInitDataHeader)
	}

	id, err := s.verifier.Verify(initData)
	if err != nil {
		logger.Debug("auth:", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Set(callerKey, id)
	c.Next()
}

func callerID(c *gin.Context) int64 {
	return c.GetInt64(callerKey)
}

func callerUserID(c *gin.Context) string {
	return strconv.FormatInt(callerID(c), 10)
}

func (s *Server) registerUser(c *gin.Context) {
	rec, err := s.roulette.RegisterOrFetchUser(c.Request.Context(), callerUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "user": rec})
}

func (s *Server) userStatus(c *gin.Context) {
	status, err := s.roulette.GetStatus(c.Request.Context(), callerUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) spin(c *gin.Context) {
	res, err := s.roulette.Spin(c.Request.Context(), callerUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if s.notifier != nil {
		go s.notifier.NotifySpin(callerID(c), res)
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) prizes(c *gin.Context) {
	table := s.roulette.Table()
	c.JSON(http.StatusOK, gin.H{
		"prizes":       table.Catalog(),
		"tiers":        table.Tiers(),
		"empty_chance": table.EmptyChance(),
		"max_attempts": s.roulette.MaxAttempts(),
	})
}

// writeError переводит ошибку в HTTP ответ. Внутренние сбои наружу не раскрываются.
func writeError(c *gin.Context, err error) {
	if !models.IsUserFacing(err) {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	switch {
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, models.ErrNoAttemptsLeft):
		c.JSON(http.StatusForbidden, gin.H{"error": "No attempts left"})
	case errors.Is(err, models.ErrInvalidGift):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrGiftNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User or gift not found"})
	case errors.Is(err, models.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
