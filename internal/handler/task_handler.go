package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/facility-report-api/internal/dto"
	"github.com/noah-isme/facility-report-api/internal/models"
	"github.com/noah-isme/facility-report-api/internal/service"
	"github.com/noah-isme/facility-report-api/pkg/response"
)

type taskReader interface {
	ForTechnician(ctx context.Context, actor *models.JWTClaims, query dto.TaskQuery) (*dto.TaskPage, service.Route, error)
}

// TaskHandler serves the technician task list.
type TaskHandler struct {
	tasks taskReader
}

// NewTaskHandler constructs handler.
func NewTaskHandler(tasks taskReader) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List godoc
// @Summary Technician tasks
// @Description Reports assigned to the caller. The summary always counts every assigned report.
// @Tags Technician
// @Produce json
// @Param tab query string false "ACTIVE | DONE"
// @Param status query string false "Status filter, overrides tab"
// @Param category query string false "Category filter"
// @Param priority query string false "Priority filter"
// @Param mode query string false "strong | weak"
// @Success 200 {object} response.Envelope
// @Router /technician/tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	var query dto.TaskQuery
	if !bindQuery(c, &query) {
		return
	}
	page, route, err := h.tasks.ForTechnician(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondRouted(c, page, page.Pagination, route)
}
