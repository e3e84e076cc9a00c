package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/IceyWu/live-photo/internal/handle"
	"github.com/IceyWu/live-photo/internal/livephoto"
	"github.com/IceyWu/live-photo/internal/service"
)

// SegmentResponse describes one published segment
type SegmentResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	MIME     string `json:"mime"`
	Size     int    `json:"size"`
	Filename string `json:"filename"`
}

// SplitResponse is returned by POST /api/split
type SplitResponse struct {
	Group      string           `json:"group,omitempty"`
	SplitPoint int              `json:"split_point"`
	Size       int              `json:"size"`
	Strategy   string           `json:"strategy"`
	Digest     string           `json:"digest,omitempty"`
	Cached     bool             `json:"cached"`
	DurationMS float64          `json:"duration_ms"`
	Photo      *SegmentResponse `json:"photo,omitempty"`
	Video      *SegmentResponse `json:"video,omitempty"`
}

// createSplit splits an uploaded file and publishes both segments
// POST /api/split (multipart field "file")
func (s *Server) createSplit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorResponse(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", s.maxUpload))
			return
		}
		errorResponse(c, http.StatusBadRequest, "Multipart field \"file\" is required")
		return
	}

	f, err := fh.Open()
	if err != nil {
		failureResponse(c, &livephoto.Failure{Kind: livephoto.KindIO, Offset: -1, Err: err})
		return
	}
	defer f.Close()

	asset, err := livephoto.ReadAsset(f)
	if err != nil {
		failureResponse(c, err)
		return
	}

	ext, err := s.svc.Extract(c.Request.Context(), fh.Filename, asset)
	if err != nil {
		failureResponse(c, err)
		return
	}
	s.svc.Publish(ext)

	c.JSON(http.StatusCreated, toSplitResponse(ext))
}

// releaseSplit releases both segments of a split
// DELETE /api/splits/:group
func (s *Server) releaseSplit(c *gin.Context) {
	if s.handles == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Segment handles not available")
		return
	}

	n := s.handles.ReleaseAll(c.Param("group"))
	if n == 0 {
		errorResponse(c, http.StatusNotFound, "Split not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": n})
}

// listHistory returns recent extractions
// GET /api/history?limit=N
func (s *Server) listHistory(c *gin.Context) {
	if s.history == nil {
		errorResponse(c, http.StatusServiceUnavailable, "History not available")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			errorResponse(c, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	records, err := s.history.Recent(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// getStatus reports service health and counters
// GET /api/status
func (s *Server) getStatus(c *gin.Context) {
	resp := gin.H{
		"status":    "ok",
		"lookahead": s.svc.Splitter().Lookahead(),
	}
	if s.handles != nil {
		resp["handles"] = s.handles.Stats()
	}
	if s.history != nil {
		counts, err := s.history.CountByOutcome(c.Request.Context())
		if err != nil {
			errorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
		resp["extractions"] = counts
	}
	c.JSON(http.StatusOK, resp)
}

func toSplitResponse(ext *service.Extraction) SplitResponse {
	res := ext.Result
	return SplitResponse{
		Group:      ext.Group,
		SplitPoint: res.SplitPoint,
		Size:       res.Size,
		Strategy:   res.Validation.Strategy.String(),
		Digest:     ext.Digest,
		Cached:     ext.Cached,
		DurationMS: float64(ext.Duration.Microseconds()) / 1000,
		Photo:      toSegmentResponse(ext.Photo),
		Video:      toSegmentResponse(ext.Video),
	}
}

func toSegmentResponse(h *handle.Handle) *SegmentResponse {
	if h == nil {
		return nil
	}
	return &SegmentResponse{
		ID:       h.ID,
		URL:      "/api/segments/" + h.ID,
		MIME:     h.Segment.MIME,
		Size:     h.Segment.Len(),
		Filename: h.Filename,
	}
}
