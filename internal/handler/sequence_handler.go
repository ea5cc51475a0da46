package handler

import (
	"net/http"

	"storecore/internal/middleware"
	"storecore/internal/model"
	"storecore/internal/service"
	"storecore/pkg/response"

	"github.com/gin-gonic/gin"
)

type ResetSequenceRequest struct {
	Value *int64 `json:"value" binding:"required,min=0"`
}

type SequenceResponse struct {
	Name         string `json:"name"`
	CurrentValue int64  `json:"current_value"`
}

type SequenceHandler struct {
	sequenceService service.SequenceService
	auditService    service.AuditService
	auth            *middleware.Auth
}

func NewSequenceHandler(sequenceService service.SequenceService, auditService service.AuditService, auth *middleware.Auth) *SequenceHandler {
	return &SequenceHandler{sequenceService: sequenceService, auditService: auditService, auth: auth}
}

func (h *SequenceHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/sequences")
	{
		group.GET("/:name", h.auth.RequireRole(middleware.RoleAdmin, middleware.RoleStaff), h.GetSequence)
		group.PUT("/:name", h.auth.RequireRole(middleware.RoleAdmin), h.ResetSequence)
	}
}

// GetSequence returns the last issued value of a sequence
// @Summary      Get sequence
// @Tags         sequences
// @Security     BearerAuth
// @Produce      json
// @Param        name  path      string  true  "Sequence name"
// @Success      200   {object}  response.Response{data=SequenceResponse}
// @Failure      404   {object}  response.Response
// @Router       /api/sequences/{name} [get]
func (h *SequenceHandler) GetSequence(c *gin.Context) {
	name := c.Param("name")

	current, err := h.sequenceService.Current(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, SequenceResponse{Name: name, CurrentValue: current}))
}

// ResetSequence overwrites the current value of a sequence
// @Summary      Reset sequence
// @Description  Ops only. The next issued value will be value+1.
// @Tags         sequences
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        name     path      string                true  "Sequence name"
// @Param        payload  body      ResetSequenceRequest  true  "Reset payload"
// @Success      200      {object}  response.Response{data=SequenceResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/sequences/{name} [put]
func (h *SequenceHandler) ResetSequence(c *gin.Context) {
	name := c.Param("name")

	var req ResetSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ctx := c.Request.Context()
	if err := h.sequenceService.Reset(ctx, name, *req.Value); err != nil {
		writeError(c, err)
		return
	}
	if err := h.auditService.Record(ctx, middleware.UserID(c), model.ActionResetSequence, name, name, req); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, SequenceResponse{Name: name, CurrentValue: *req.Value}))
}
