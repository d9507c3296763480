package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	filefeeddomain "github.com/driftbyte/skyvault/internal/filefeed/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type fileFactRequest struct {
	ID        string         `json:"id" binding:"required"`
	Size      int64          `json:"size"`
	Status    string         `json:"status" binding:"required"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at" binding:"required"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// RecordFileFact is the lifecycle feed's write boundary: the file services
// post each status transition here.
func (s *Server) RecordFileFact(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req fileFactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	fileID, err := snowflake.ParseString(req.ID)
	if err != nil || fileID == 0 {
		AbortWithError(c, filefeeddomain.ErrInvalidFile)
		return
	}
	status := filefeeddomain.FileStatus(req.Status)
	if !status.Valid() {
		AbortWithError(c, filefeeddomain.ErrInvalidStatus)
		return
	}
	if req.Size < 0 {
		AbortWithError(c, filefeeddomain.ErrInvalidSize)
		return
	}

	updatedAt := req.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = req.CreatedAt
	}

	fact := &filefeeddomain.FileFact{
		ID:        fileID,
		UserID:    userID,
		Size:      req.Size,
		Status:    status,
		CreatedAt: req.CreatedAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}
	if req.Metadata != nil {
		fact.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.factRepo.Record(c.Request.Context(), fact); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, fact)
}
