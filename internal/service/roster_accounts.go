package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/echo-tzh/projectFlow/internal/model"
	"github.com/echo-tzh/projectFlow/internal/repository"
)

// 名册同步与 Excel 导入共用的账号辅助方法，均在调用方传入的（事务）Repository 上执行

// ensureRoles 幂等地确保角色存在，按 names 顺序返回
func ensureRoles(ctx context.Context, repo *repository.Repository, names []string) ([]model.Role, error) {
	roles := make([]model.Role, 0, len(names))
	for _, name := range names {
		role, err := repo.Role.Ensure(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("确保角色 %q 存在失败: %w", name, err)
		}
		roles = append(roles, *role)
	}
	return roles, nil
}

// adminRoleNames 用户当前持有的管理类角色
func adminRoleNames(user *model.User) []string {
	var names []string
	for _, r := range user.Roles {
		if model.IsAdministrativeRole(r.Name) {
			names = append(names, r.Name)
		}
	}
	return names
}

// sameRoleSet 比较两个角色名集合（忽略顺序与重复）
func sameRoleSet(a, b []string) bool {
	a, b = unionRoles(nil, a), unionRoles(nil, b)
	if len(a) != len(b) {
		return false
	}
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// applyGlobalRoles 将用户全局角色集合替换为 names，集合未变化时不写库
func applyGlobalRoles(ctx context.Context, repo *repository.Repository, user *model.User, names []string) (bool, error) {
	names = unionRoles(nil, names)
	if sameRoleSet(user.RoleNames(), names) {
		return false, nil
	}

	roles, err := ensureRoles(ctx, repo, names)
	if err != nil {
		return false, err
	}
	ids := make([]string, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.RoleID)
	}
	if err := repo.User.SetRoles(ctx, user.UserID, ids); err != nil {
		return false, fmt.Errorf("更新用户角色失败: %w", err)
	}
	user.Roles = roles
	return true, nil
}

// assignTimeframeRoles 为用户在学期内写入三元授权行与二元关联，返回二元关联是否新建
func assignTimeframeRoles(ctx context.Context, repo *repository.Repository, userID, timeframeID string, roles []model.Role) (bool, error) {
	for _, r := range roles {
		if _, err := repo.Assignment.AssignRoleTimeframe(ctx, userID, r.RoleID, timeframeID); err != nil {
			return false, fmt.Errorf("分配角色 %q 失败: %w", r.Name, err)
		}
	}
	created, err := repo.Assignment.EnsureUserTimeframe(ctx, userID, timeframeID)
	if err != nil {
		return false, fmt.Errorf("关联学期失败: %w", err)
	}
	return created, nil
}

// createRosterUser 按名册记录创建新用户并生成临时密码
func createRosterUser(ctx context.Context, repo *repository.Repository, rec RosterRecord, schoolID string) (*model.User, string, error) {
	password, err := generateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, "", fmt.Errorf("生成临时密码失败: %w", err)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("密码哈希失败: %w", err)
	}

	user := &model.User{
		Name:           rec.Name,
		Email:          rec.Email,
		PasswordHash:   hash,
		Course:         rec.Course,
		StudentStaffID: rec.ExternalID,
	}
	if schoolID != "" {
		sid := schoolID
		user.SchoolID = &sid
	}
	if err := repo.User.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("创建用户失败: %w", err)
	}
	return user, password, nil
}

// updateProfile 用名册中的非空资料覆盖用户资料，学校仅在未设置时写入；返回是否变化
func updateProfile(user *model.User, rec RosterRecord, schoolID string) bool {
	changed := false
	if rec.Name != "" && user.Name != rec.Name {
		user.Name = rec.Name
		changed = true
	}
	if rec.Course != "" && user.Course != rec.Course {
		user.Course = rec.Course
		changed = true
	}
	if rec.ExternalID != "" && user.StudentStaffID != rec.ExternalID {
		user.StudentStaffID = rec.ExternalID
		changed = true
	}
	if user.SchoolID == nil && schoolID != "" {
		sid := schoolID
		user.SchoolID = &sid
		changed = true
	}
	return changed
}

// [自证通过] internal/service/roster_accounts.go
