package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dealdesk/internal/models"
	"dealdesk/internal/pdf"
	"dealdesk/internal/services"
)

type PipelineHandler struct {
	pipelines services.PipelineService
	analytics services.AnalyticsService
	reports   pdf.Generator
}

func NewPipelineHandler(pipelines services.PipelineService, analytics services.AnalyticsService, reports pdf.Generator) *PipelineHandler {
	return &PipelineHandler{pipelines: pipelines, analytics: analytics, reports: reports}
}

type createPipelineRequest struct {
	Name   string              `json:"name" binding:"required"`
	Stages []models.StageInput `json:"stages" binding:"required,min=1"`
}

// @Summary      List pipelines
// @Tags         Pipelines
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string][]models.Pipeline
// @Failure      401  {object}  map[string]string
// @Router       /api/pipelines [get]
func (h *PipelineHandler) List(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	list, err := h.pipelines.List(c.Request.Context(), who.TenantID)
	if err != nil {
		writeError(c, "[pipelines][list]", err)
		return
	}
	if list == nil {
		list = []models.Pipeline{}
	}
	c.JSON(http.StatusOK, gin.H{"pipelines": list})
}

// @Summary      Create a pipeline
// @Tags         Pipelines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        pipeline  body      createPipelineRequest  true  "Name and ordered stages"
// @Success      201       {object}  map[string]models.Pipeline
// @Failure      400       {object}  map[string]string
// @Failure      409       {object}  map[string]string
// @Router       /api/pipelines [post]
func (h *PipelineHandler) Create(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req createPipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, "[pipelines][create]", err)
		return
	}
	p, err := h.pipelines.Create(c.Request.Context(), who.TenantID, req.Name, req.Stages)
	if err != nil {
		writeError(c, "[pipelines][create]", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pipeline": p})
}

// @Summary      Get a pipeline
// @Tags         Pipelines
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Pipeline ID"
// @Success      200  {object}  map[string]models.Pipeline
// @Failure      404  {object}  map[string]string
// @Router       /api/pipelines/{id} [get]
func (h *PipelineHandler) GetByID(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.pipelines.GetByID(c.Request.Context(), who.TenantID, id)
	if err != nil {
		writeError(c, "[pipelines][get]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pipeline": p})
}

// @Summary      Update a pipeline
// @Description  Partial update. Replacing stages fails with 409 while deals sit in a removed stage.
// @Tags         Pipelines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      int                    true  "Pipeline ID"
// @Param        pipeline  body      models.PipelineUpdate  true  "Fields to change"
// @Success      200       {object}  map[string]models.Pipeline
// @Failure      400       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Failure      409       {object}  map[string]string
// @Router       /api/pipelines/{id} [put]
func (h *PipelineHandler) Update(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var upd models.PipelineUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		bindError(c, "[pipelines][update]", err)
		return
	}
	p, err := h.pipelines.Update(c.Request.Context(), who.TenantID, id, upd)
	if err != nil {
		writeError(c, "[pipelines][update]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pipeline": p})
}

// @Summary      Delete a pipeline
// @Tags         Pipelines
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Pipeline ID"
// @Success      200  {object}  map[string]bool
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/pipelines/{id} [delete]
func (h *PipelineHandler) Delete(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.pipelines.Delete(c.Request.Context(), who.TenantID, id); err != nil {
		writeError(c, "[pipelines][delete]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary      Pipeline analytics
// @Description  Win rate over closed deals and average days spent in each stage.
// @Tags         Pipelines
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Pipeline ID"
// @Success      200  {object}  map[string]models.PipelineAnalytics
// @Failure      404  {object}  map[string]string
// @Router       /api/pipelines/{id}/analytics [get]
func (h *PipelineHandler) Analytics(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	a, err := h.analytics.Compute(c.Request.Context(), who.TenantID, id)
	if err != nil {
		writeError(c, "[pipelines][analytics]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analytics": a})
}

// @Summary      Pipeline analytics report
// @Tags         Pipelines
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path  int  true  "Pipeline ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  map[string]string
// @Router       /api/pipelines/{id}/analytics/report [get]
func (h *PipelineHandler) AnalyticsReport(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	a, err := h.analytics.Compute(c.Request.Context(), who.TenantID, id)
	if err != nil {
		writeError(c, "[pipelines][report]", err)
		return
	}
	var buf bytes.Buffer
	if err := h.reports.AnalyticsReport(&buf, a, time.Now()); err != nil {
		writeError(c, "[pipelines][report]", fmt.Errorf("render analytics report: %w", err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="pipeline_%d_analytics.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
