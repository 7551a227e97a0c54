package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quillblog/internal/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// respondServiceError maps service errors onto status codes. Unexpected
// errors are logged once and answered with a generic message.
func (a *API) respondServiceError(c *gin.Context, err error, message string) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "fields": validationErr.Fields})
	case errors.Is(err, service.ErrCategoryExists):
		respondError(c, http.StatusConflict, "category name already in use")
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, http.StatusBadRequest, "unknown category id")
	case errors.Is(err, service.ErrSlugUnavailable):
		respondError(c, http.StatusConflict, "could not find a free slug, try another title")
	default:
		_ = c.Error(err)
		a.log.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg(message)
		respondError(c, http.StatusInternalServerError, message)
	}
}

func isValidationError(err error) bool {
	var validationErr *service.ValidationError
	return errors.As(err, &validationErr)
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// parseOptionalBool returns nil for a missing or empty value.
func parseOptionalBool(raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
