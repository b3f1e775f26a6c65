package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tg-gift-roulette/internal/game"
	"tg-gift-roulette/internal/logger"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// Verifier проверяет данные вызывающего и возвращает его Telegram ID
type Verifier interface {
	Verify(initData string) (int64, error)
}

// SpinNotifier сообщает пользователю результат прокрутки вне WebApp
type SpinNotifier interface {
	NotifySpin(userID int64, res *game.SpinResult)
}

// Server HTTP API для WebApp рулетки
type Server struct {
	roulette *game.Roulette
	admin    *game.Admin
	verifier Verifier
	notifier SpinNotifier

	engine     *gin.Engine
	httpServer *http.Server
}

// NewServer создает сервер и регистрирует маршруты
func NewServer(addr string, roulette *game.Roulette, admin *game.Admin, verifier Verifier) *Server {
	s := &Server{
		roulette: roulette,
		admin:    admin,
		verifier: verifier,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	s.initRouter(engine)
	s.engine = engine

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) initRouter(engine *gin.Engine) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := engine.Group("/api")
	api.GET("/prizes", s.prizes)

	user := api.Group("")
	user.Use(s.authenticate)
	user.POST("/user", s.registerUser)
	user.GET("/get_user_status", s.userStatus)
	user.POST("/spin", s.spin)

	NewAdminController(api.Group("/admin"), s)
}

// SetSpinNotifier включает уведомления о прокрутках. Вызывается до Start.
func (s *Server) SetSpinNotifier(n SpinNotifier) {
	s.notifier = n
}

// Handler возвращает http.Handler сервера
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start запускает HTTP сервер и блокируется до остановки
func (s *Server) Start() error {
	logger.Infof("HTTP сервер слушает %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop корректно останавливает сервер
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
