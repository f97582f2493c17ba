package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-pos-orderflow/internal/validation"
)

func (s *server) getTable(c *gin.Context) {
	t, err := s.tables.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeStoreError(c, "get_table", err)
		return
	}
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "table_not_found"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// lockTable takes the table for a terminal. A table locked by another terminal is taken over.
func (s *server) lockTable(c *gin.Context) {
	var req validation.LockRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	t, err := s.tables.Lock(c.Request.Context(), c.Param("id"), req.LockedBy, req.OrderID)
	if err != nil {
		writeStoreError(c, "lock_table", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *server) unlockTable(c *gin.Context) {
	t, err := s.tables.Unlock(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeStoreError(c, "unlock_table", err)
		return
	}
	c.JSON(http.StatusOK, t)
}
