package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminRequired gates the operational endpoints behind basic auth using
// constant-time comparison.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.AdminUser == "" || s.cfg.AdminPassword == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, password, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(s.cfg.AdminUser)) != 1 ||
			subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="papermint admin"`)
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Next()
	}
}

func (s *Server) GetDocumentStats(c *gin.Context) {
	stats, err := s.documents.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":            stats.Count,
		"totalBytes":       stats.TotalBytes,
		"oldestAgeSeconds": int64(stats.OldestAge.Seconds()),
	})
}

func (s *Server) DeleteDocument(c *gin.Context) {
	documentID := strings.TrimSpace(c.Param("documentId"))
	if documentID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.documents.Delete(c.Request.Context(), documentID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": documentID})
}

func (s *Server) SweepStores(c *gin.Context) {
	evicted := s.stores.SweepAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"evicted": evicted})
}
