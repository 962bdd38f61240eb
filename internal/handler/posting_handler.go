package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"Backstage_Jobs/internal/middleware"
	"Backstage_Jobs/internal/search"
	"Backstage_Jobs/internal/service"
)

type PostingHandler struct {
	svc       *service.PostingService
	analytics *service.AnalyticsService
}

func NewPostingHandler(svc *service.PostingService, analytics *service.AnalyticsService) *PostingHandler {
	return &PostingHandler{svc: svc, analytics: analytics}
}

// Search GET /api/jobs
func (h *PostingHandler) Search(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	page, err := h.svc.Search(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get GET /api/jobs/:id
func (h *PostingHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var viewer *uint64
	if uid := middleware.UserID(c); uid != 0 {
		viewer = &uid
	}
	p, err := h.svc.Get(c.Request.Context(), id, viewer)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Create POST /api/jobs
func (h *PostingHandler) Create(c *gin.Context) {
	var req service.PostingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	p, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), middleware.AccountType(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Update PUT /api/jobs/:id
func (h *PostingHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.PostingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	p, err := h.svc.Update(c.Request.Context(), id, middleware.UserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete DELETE /api/jobs/:id
func (h *PostingHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// ListMine GET /api/me/jobs
func (h *PostingHandler) ListMine(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	out, err := h.svc.ListMine(c.Request.Context(), middleware.UserID(c), page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Analytics GET /api/jobs/:id/analytics
func (h *PostingHandler) Analytics(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	a, err := h.analytics.Get(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

type queryError string

func (e queryError) Error() string { return string(e) }

// parseFilter reads the search query string. Set-valued parameters accept
// comma separated values and repeated keys.
func parseFilter(c *gin.Context) (search.Filter, error) {
	f := search.Filter{
		Query:         c.Query("q"),
		PaymentTypes:  list(c, "payment_type"),
		JobTypes:      list(c, "job_type"),
		LocationTypes: list(c, "location_type"),
		City:          c.Query("city"),
		State:         c.Query("state"),
		Country:       c.Query("country"),
		Experience:    list(c, "experience"),
		Genres:        list(c, "genres"),
		Skills:        list(c, "skills"),
		SortBy:        c.Query("sort_by"),
		SortOrder:     c.Query("sort_order"),
	}
	var err error
	if v := c.Query("category_id"); v != "" {
		if f.CategoryID, err = strconv.ParseUint(v, 10, 64); err != nil {
			return f, queryError("invalid category_id")
		}
	}
	if f.MinPayment, err = floatParam(c, "min_payment"); err != nil {
		return f, err
	}
	if f.MaxPayment, err = floatParam(c, "max_payment"); err != nil {
		return f, err
	}
	for key, dst := range map[string]**time.Time{
		"event_from":    &f.EventFrom,
		"event_to":      &f.EventTo,
		"deadline_from": &f.DeadlineFrom,
		"deadline_to":   &f.DeadlineTo,
	} {
		if *dst, err = timeParam(c, key); err != nil {
			return f, err
		}
	}
	if v := c.Query("featured"); v != "" {
		if f.FeaturedOnly, err = strconv.ParseBool(v); err != nil {
			return f, queryError("invalid featured")
		}
	}
	if v := c.Query("page"); v != "" {
		if f.Page, err = strconv.Atoi(v); err != nil {
			return f, queryError("invalid page")
		}
	}
	if v := c.Query("per_page"); v != "" {
		if f.PerPage, err = strconv.Atoi(v); err != nil {
			return f, queryError("invalid per_page")
		}
	}
	return f, nil
}

func list(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

func floatParam(c *gin.Context, key string) (*float64, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, queryError("invalid " + key)
	}
	return &f, nil
}

// timeParam accepts RFC 3339 timestamps or plain dates.
func timeParam(c *gin.Context, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, queryError("invalid " + key)
}
