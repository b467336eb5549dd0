package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dealdesk/internal/apperr"
	"dealdesk/internal/models"
	"dealdesk/internal/services"
)

type DealHandler struct {
	deals services.DealService
}

func NewDealHandler(deals services.DealService) *DealHandler {
	return &DealHandler{deals: deals}
}

type updateDealRequest struct {
	models.DealPatch
	StageID *string `json:"stage_id"`
}

type transitionRequest struct {
	StageID string `json:"stage_id" binding:"required"`
}

func dealFilter(c *gin.Context) (models.DealFilter, error) {
	var f models.DealFilter
	var err error
	if f.ContactID, err = queryID(c, "contact_id"); err != nil {
		return f, err
	}
	if f.PipelineID, err = queryID(c, "pipeline_id"); err != nil {
		return f, err
	}
	if f.OwnerID, err = queryID(c, "owner_id"); err != nil {
		return f, err
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.DealStatus(raw)
		if !status.Valid() {
			return f, apperr.Validation("status must be one of open, won, lost")
		}
		f.Status = &status
	}
	return f, nil
}

// @Summary      List deals
// @Tags         Deals
// @Produce      json
// @Security     BearerAuth
// @Param        contact_id   query     int     false  "Contact filter"
// @Param        pipeline_id  query     int     false  "Pipeline filter"
// @Param        owner_id     query     int     false  "Owner filter"
// @Param        status       query     string  false  "open, won or lost"
// @Success      200          {object}  map[string][]models.Deal
// @Failure      400          {object}  map[string]string
// @Router       /api/deals [get]
func (h *DealHandler) List(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	filter, err := dealFilter(c)
	if err != nil {
		writeError(c, "[deals][list]", err)
		return
	}
	list, err := h.deals.List(c.Request.Context(), who.TenantID, filter)
	if err != nil {
		writeError(c, "[deals][list]", err)
		return
	}
	if list == nil {
		list = []models.Deal{}
	}
	c.JSON(http.StatusOK, gin.H{"deals": list})
}

// @Summary      Create a deal
// @Description  Without pipeline_id the tenant's earliest pipeline is used; without stage_id its first stage.
// @Tags         Deals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        deal  body      models.DealInput  true  "Deal"
// @Success      201   {object}  map[string]models.Deal
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/deals [post]
func (h *DealHandler) Create(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var in models.DealInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, "[deals][create]", err)
		return
	}
	d, err := h.deals.Create(c.Request.Context(), who, in)
	if err != nil {
		writeError(c, "[deals][create]", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"deal": d})
}

// @Summary      Get a deal
// @Tags         Deals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Deal ID"
// @Success      200  {object}  map[string]models.Deal
// @Failure      404  {object}  map[string]string
// @Router       /api/deals/{id} [get]
func (h *DealHandler) GetByID(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	d, err := h.deals.GetByID(c.Request.Context(), who.TenantID, id)
	if err != nil {
		writeError(c, "[deals][get]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deal": d})
}

// @Summary      Update a deal
// @Description  A stage_id in the body is applied as a stage transition before the other fields; an invalid field rejects the whole request.
// @Tags         Deals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Deal ID"
// @Param        deal  body      updateDealRequest  true  "Fields to change"
// @Success      200   {object}  map[string]models.Deal
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/deals/{id} [put]
func (h *DealHandler) Update(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, "[deals][update]", err)
		return
	}

	d, err := h.deals.Update(c.Request.Context(), who.TenantID, id, req.StageID, req.DealPatch)
	if err != nil {
		writeError(c, "[deals][update]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deal": d})
}

// @Summary      Move a deal to another stage
// @Tags         Deals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      int                true  "Deal ID"
// @Param        stage  body      transitionRequest  true  "Target stage"
// @Success      200    {object}  map[string]models.Deal
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Failure      409    {object}  map[string]string
// @Router       /api/deals/{id}/stage [post]
func (h *DealHandler) TransitionStage(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, "[deals][transition]", err)
		return
	}
	d, err := h.deals.TransitionStage(c.Request.Context(), who.TenantID, id, req.StageID)
	if err != nil {
		writeError(c, "[deals][transition]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deal": d})
}

// @Summary      Delete a deal
// @Tags         Deals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Deal ID"
// @Success      200  {object}  map[string]bool
// @Failure      404  {object}  map[string]string
// @Router       /api/deals/{id} [delete]
func (h *DealHandler) Delete(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.deals.Delete(c.Request.Context(), who.TenantID, id); err != nil {
		writeError(c, "[deals][delete]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary      Dashboard counters
// @Tags         Deals
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]models.DealStats
// @Router       /api/dashboard [get]
func (h *DealHandler) Dashboard(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	stats, err := h.deals.Stats(c.Request.Context(), who.TenantID)
	if err != nil {
		writeError(c, "[deals][dashboard]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
