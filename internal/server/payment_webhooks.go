package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/papermint/papermint/internal/pipeline"
)

type paymentEventRequest struct {
	SessionID     string            `json:"sessionId" binding:"required"`
	Slug          string            `json:"slug" binding:"required"`
	Inputs        map[string]string `json:"inputs"`
	CustomerEmail string            `json:"customerEmail"`
}

// HandlePaymentWebhook accepts a payment-confirmed event and kicks off
// generation. The response is sent as soon as the event validates, so the
// provider's delivery timeout is never tied to generation time.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))

	var req paymentEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	c.Set("service_slug", req.Slug)

	err := s.pipeline.Handle(c.Request.Context(), pipeline.Event{
		SessionID:     req.SessionID,
		ServiceSlug:   req.Slug,
		Inputs:        req.Inputs,
		CustomerEmail: req.CustomerEmail,
		Provider:      provider,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "sessionId": req.SessionID})
}
