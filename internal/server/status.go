package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/papermint/papermint/internal/store"
)

type statusResponse struct {
	State       string `json:"state"`
	ServiceName string `json:"serviceName,omitempty"`
	DocumentID  string `json:"documentId,omitempty"`
	Message     string `json:"message,omitempty"`
}

// GetStatus serves the polling endpoint. Unknown or expired sessions
// answer with state "unknown" rather than an error, so clients keep one
// code path for the whole lifecycle.
func (s *Server) GetStatus(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("sessionId"))
	if sessionID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	if !s.pollLimiter.Allow(c.ClientIP(), sessionID) {
		c.Header("Retry-After", strconv.Itoa(s.pollLimiter.RetryAfterSeconds()))
		AbortWithError(c, ErrTooManyRequest)
		return
	}

	status, err := s.statuses.Get(c.Request.Context(), sessionID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, statusResponse{State: "unknown"})
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, statusResponse{
		State:       string(status.State),
		ServiceName: status.ServiceName,
		DocumentID:  status.DocumentID,
		Message:     status.Message,
	})
}

// ListServices exposes the catalog for the checkout surface.
func (s *Server) ListServices(c *gin.Context) {
	cat := s.catalog.Current()

	type serviceSummary struct {
		Slug            string `json:"slug"`
		DisplayName     string `json:"displayName"`
		PriceMinorUnits int64  `json:"priceMinorUnits"`
	}

	summaries := make([]serviceSummary, 0)
	for _, slug := range cat.Slugs() {
		def, err := cat.Get(slug)
		if err != nil {
			continue
		}
		summaries = append(summaries, serviceSummary{
			Slug:            def.Slug,
			DisplayName:     def.DisplayName,
			PriceMinorUnits: def.PriceMinorUnits,
		})
	}

	c.JSON(http.StatusOK, gin.H{"services": summaries})
}
