package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Backstage_Jobs/internal/middleware"
	"Backstage_Jobs/internal/service"
)

type SavedHandler struct {
	svc *service.SavedService
}

func NewSavedHandler(svc *service.SavedService) *SavedHandler {
	return &SavedHandler{svc: svc}
}

// Save POST /api/jobs/:id/save
func (h *SavedHandler) Save(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	changed, err := h.svc.Save(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true, "changed": changed})
}

// Unsave DELETE /api/jobs/:id/save
func (h *SavedHandler) Unsave(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	changed, err := h.svc.Unsave(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": false, "changed": changed})
}

// IsSaved GET /api/jobs/:id/save
func (h *SavedHandler) IsSaved(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	saved, err := h.svc.IsSaved(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

// List GET /api/me/saved
func (h *SavedHandler) List(c *gin.Context) {
	list, err := h.svc.ListSaved(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}
