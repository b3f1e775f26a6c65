package web

import (
	"bytes"
	"net/http"
	"strconv"

	"tg-gift-roulette/internal/game"
	"tg-gift-roulette/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// AdminController маршруты /api/admin. Доступны только ADMIN_ID.
type AdminController struct {
	server *Server
}

// NewAdminController регистрирует админские маршруты в группе g
func NewAdminController(g *gin.RouterGroup, s *Server) *AdminController {
	a := &AdminController{server: s}
	a.initRouter(g)
	return a
}

func (a *AdminController) initRouter(g *gin.RouterGroup) {
	g.Use(a.server.authenticate, a.checkAdmin)

	g.GET("/user_data", a.userData)
	g.GET("/stats", a.stats)
	g.POST("/add_attempt", a.addAttempt)
	g.POST("/reset_attempts", a.resetAttempts)
	g.POST("/add_prize", a.addPrize)
	g.POST("/remove_gift", a.removeGift)
}

func (a *AdminController) checkAdmin(c *gin.Context) {
	if err := a.server.admin.Authorize(callerID(c)); err != nil {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}
	c.Next()
}

// userIDParam принимает user_id и строкой, и числом
type userIDParam string

func (p *userIDParam) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = userIDParam(s)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = userIDParam(strconv.FormatInt(n, 10))
	return nil
}

type adminRequest struct {
	UserID    userIDParam    `json:"user_id"`
	Prize     game.GiftInput `json:"prize"`
	GiftIndex *int           `json:"gift_index"`
}

func (a *AdminController) bind(c *gin.Context) (*adminRequest, bool) {
	var req adminRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, false
	}
	if req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return nil, false
	}
	userID, err := utils.ParseUserID(string(req.UserID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a positive number"})
		return nil, false
	}
	req.UserID = userIDParam(userID)
	return &req, true
}

func (a *AdminController) userData(c *gin.Context) {
	users, err := a.server.admin.Users(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (a *AdminController) stats(c *gin.Context) {
	c.JSON(http.StatusOK, a.server.roulette.Stats())
}

func (a *AdminController) addAttempt(c *gin.Context) {
	req, ok := a.bind(c)
	if !ok {
		return
	}
	rec, err := a.server.admin.AdminGrantAttempt(c.Request.Context(), callerID(c), string(req.UserID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "attempts": rec.AttemptsLeft})
}

func (a *AdminController) resetAttempts(c *gin.Context) {
	req, ok := a.bind(c)
	if !ok {
		return
	}
	if err := a.server.admin.AdminResetAttempts(c.Request.Context(), callerID(c), string(req.UserID)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "attempts": a.server.roulette.MaxAttempts()})
}

func (a *AdminController) addPrize(c *gin.Context) {
	req, ok := a.bind(c)
	if !ok {
		return
	}
	if err := a.server.admin.AdminAddGift(c.Request.Context(), callerID(c), string(req.UserID), req.Prize); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *AdminController) removeGift(c *gin.Context) {
	req, ok := a.bind(c)
	if !ok {
		return
	}
	if req.GiftIndex == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gift_index is required"})
		return
	}
	if err := a.server.admin.AdminRemoveGift(c.Request.Context(), callerID(c), string(req.UserID), *req.GiftIndex); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
