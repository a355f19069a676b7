package server

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetDocument streams the rendered PDF. The preview flag switches the
// Content-Disposition between inline display and download.
func (s *Server) GetDocument(c *gin.Context) {
	documentID := strings.TrimSpace(c.Param("documentId"))
	if documentID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	doc, err := s.documents.Get(c.Request.Context(), documentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("service_slug", doc.Metadata.ServiceSlug)

	filename := fmt.Sprintf("%s-%s.pdf", doc.Metadata.ServiceSlug, documentID)
	disposition := "attachment"
	if isPreview(c.Query("preview")) {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	c.Header("Cache-Control", "no-store")
	c.Data(200, doc.Metadata.MimeType, doc.Bytes)
}

func isPreview(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
