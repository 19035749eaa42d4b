package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "ingestq.io/ingestq/internal/pkg/errors"
)

// IngestRequest is the body of POST /ingest.
type IngestRequest struct {
	IDs      []int64 `json:"ids"`
	Priority string  `json:"priority"`
}

// IngestResponse is the body returned by POST /ingest.
type IngestResponse struct {
	IngestionID string `json:"ingestion_id"`
}

// Root handles GET /.
func (s *Server) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Data Ingestion API is running"})
}

// Ingest handles POST /ingest.
func (s *Server) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationFailed([]apperrors.FieldError{
			{Field: "body", Code: "INVALID_JSON", Message: err.Error()},
		}))
		return
	}

	if fieldErrs := s.checkIDRange(req.IDs); len(fieldErrs) > 0 {
		_ = c.Error(apperrors.ValidationFailed(fieldErrs))
		return
	}

	id, err := s.ingestion.Submit(c.Request.Context(), req.IDs, req.Priority)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, IngestResponse{IngestionID: id})
}

// GetStatus handles GET /status/:ingestion_id.
func (s *Server) GetStatus(c *gin.Context) {
	view, err := s.ingestion.GetStatus(c.Request.Context(), c.Param("ingestion_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// checkIDRange reports every id outside [minID, maxID].
func (s *Server) checkIDRange(ids []int64) []apperrors.FieldError {
	var out []apperrors.FieldError
	for i, id := range ids {
		if id < s.minID || id > s.maxID {
			out = append(out, apperrors.FieldError{
				Field:   fmt.Sprintf("ids[%d]", i),
				Code:    "OUT_OF_RANGE",
				Message: fmt.Sprintf("IDs must be between %d and %d", s.minID, s.maxID),
			})
		}
	}
	return out
}
