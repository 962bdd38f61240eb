package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Backstage_Jobs/internal/apperr"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidationFailure:    http.StatusBadRequest,
	apperr.KindUnauthorized:         http.StatusForbidden,
	apperr.KindNotFound:             http.StatusNotFound,
	apperr.KindDuplicateApplication: http.StatusConflict,
	apperr.KindRetrievalFailure:     http.StatusServiceUnavailable,
}

// fail writes err as {"code","msg"}. Errors without a kind are internal.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "msg": "internal error"})
		return
	}
	msg := err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	c.JSON(status, gin.H{"code": string(kind), "msg": msg})
}

func badRequest(c *gin.Context, msg string) {
	fail(c, apperr.ValidationFailure(msg, nil))
}

func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
