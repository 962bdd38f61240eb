package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Backstage_Jobs/internal/apperr"
	"Backstage_Jobs/internal/middleware"
	"Backstage_Jobs/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

type RegisterReq struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Email       string `json:"email" binding:"required"`
	AccountType string `json:"account_type"`
}

type LoginReq struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register POST /api/user/register
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	u, err := h.svc.Register(c.Request.Context(), req.Username, req.Password, req.Email, req.AccountType)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// Login POST /api/user/login
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), req.Login, req.Password)
	if apperr.Is(err, apperr.KindUnauthorized) {
		unauthenticated(c, "invalid username or password")
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Logout POST /api/auth/logout
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// TokenRefresh POST /api/token/refresh
func (h *UserHandler) TokenRefresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if apperr.Is(err, apperr.KindUnauthorized) {
		unauthenticated(c, "invalid refresh token")
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// ChangePassword POST /api/auth/change-password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), middleware.UserID(c), req.OldPassword, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "password changed"})
}

// unauthenticated answers credential failures the same way the auth middleware does.
func unauthenticated(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHENTICATED", "msg": msg})
}
