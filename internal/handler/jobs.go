package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetJob godoc
// @Summary      Job status
// @Tags         jobs
// @Produce      json
// @Param        id  path  string  true  "Job ID"
// @Success      200  {object}  domain.JobRecord
// @Failure      404  {object}  map[string]string
// @Router       /api/jobs/{id} [get]
func (h *Handler) GetJob(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	rec, found := h.jobs.Status(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}
