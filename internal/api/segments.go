package api

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// getSegment serves a segment's bytes. Range requests are honoured so video
// players can seek. ?download=1 asks the browser to save the file.
// GET /api/segments/:id
func (s *Server) getSegment(c *gin.Context) {
	if s.handles == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Segment handles not available")
		return
	}

	h, ok := s.handles.Get(c.Param("id"))
	if !ok {
		errorResponse(c, http.StatusNotFound, "Segment not found")
		return
	}

	c.Header("Content-Type", h.Segment.MIME)
	if c.Query("download") == "1" || c.Query("download") == "true" {
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": h.Filename}))
	}

	http.ServeContent(c.Writer, c.Request, h.Filename, h.CreatedAt, h.Segment.Reader())
}

// releaseSegment releases one segment handle
// DELETE /api/segments/:id
func (s *Server) releaseSegment(c *gin.Context) {
	if s.handles == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Segment handles not available")
		return
	}

	if !s.handles.Release(c.Param("id")) {
		errorResponse(c, http.StatusNotFound, "Segment not found")
		return
	}
	c.Status(http.StatusNoContent)
}
