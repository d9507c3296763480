package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/driftbyte/skyvault/internal/ledger/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetUserUsage(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	usage, err := s.ledgerSvc.GetUserUsage(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, usage)
}

// SyncUserUsage lets batch jobs warm a user's ledger without reading the
// total.
func (s *Server) SyncUserUsage(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.ledgerSvc.EnsureUpToDate(c.Request.Context(), userID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type replacementRequest struct {
	OldFile ledgerdomain.FileRef `json:"old_file" binding:"required"`
	NewFile ledgerdomain.FileRef `json:"new_file" binding:"required"`
}

func (s *Server) RecordReplacement(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req replacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	entry, err := s.ledgerSvc.RecordReplacement(c.Request.Context(), userID, req.OldFile, req.NewFile)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if entry == nil {
		// Declined: the next backfill accounts for this file.
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func parseUserID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(c.Param("user_id"))
	if err != nil || id == 0 {
		return 0, ledgerdomain.ErrInvalidUser
	}
	return id, nil
}
