package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Backstage_Jobs/internal/middleware"
	"Backstage_Jobs/internal/service"
)

type ApplicationHandler struct {
	svc *service.ApplicationService
}

type UpdateStatusReq struct {
	Status   string `json:"status" binding:"required"`
	Feedback string `json:"feedback"`
}

func NewApplicationHandler(svc *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{svc: svc}
}

// Apply POST /api/jobs/:id/applications
func (h *ApplicationHandler) Apply(c *gin.Context) {
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.ApplicationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	app, err := h.svc.Apply(c.Request.Context(), jobID, middleware.UserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// ListForPosting GET /api/jobs/:id/applications
func (h *ApplicationHandler) ListForPosting(c *gin.Context) {
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListForPosting(c.Request.Context(), jobID, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

// ListMine GET /api/me/applications
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

// UpdateStatus PUT /api/applications/:id/status
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	app, err := h.svc.UpdateStatus(c.Request.Context(), id, middleware.UserID(c), req.Status, req.Feedback)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// Withdraw POST /api/applications/:id/withdraw
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	app, err := h.svc.Withdraw(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}
