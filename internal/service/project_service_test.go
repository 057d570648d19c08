package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/echo-tzh/projectFlow/internal/dto"
	"github.com/echo-tzh/projectFlow/internal/model"
)

func TestProjectService_Create_RequiresCoordinatorInTimeframe(t *testing.T) {
	store := newFakeStore()
	school := store.addSchool("Demo University")
	tf := store.addTimeframe(school.SchoolID, "FYP-2026-S1")
	other := store.addTimeframe(school.SchoolID, "FYP-2026-S2")
	svc := NewProjectService(store.repository(), zap.NewNop())
	ctx := context.Background()

	// 全局持有协调员角色，但只在另一个学期
	coord := store.addUser(school.SchoolID, "coord@uni.edu", model.RoleAcademicCoordinator)
	store.assign(coord.UserID, other.TimeframeID, model.RoleAcademicCoordinator)

	req := &dto.CreateProjectRequest{Title: "Smart Campus", StudentCapacity: 2}
	if _, err := svc.Create(ctx, school.SchoolID, tf.TimeframeID, coord.UserID, req); !errors.Is(err, ErrNotTimeframeCoordinator) {
		t.Fatalf("非本学期协调员应被拒绝，实际 %v", err)
	}

	store.assign(coord.UserID, tf.TimeframeID, model.RoleAcademicCoordinator)
	resp, err := svc.Create(ctx, school.SchoolID, tf.TimeframeID, coord.UserID, req)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.TimeframeID != tf.TimeframeID || resp.StudentCapacity != 2 || resp.SupervisorCapacity != 0 {
		t.Errorf("项目字段不符: %+v", resp)
	}
}

func TestProjectService_Create_UnknownTimeframe(t *testing.T) {
	store := newFakeStore()
	school := store.addSchool("Demo University")
	svc := NewProjectService(store.repository(), zap.NewNop())

	_, err := svc.Create(context.Background(), school.SchoolID, "tf-missing", "u-1", &dto.CreateProjectRequest{Title: "X"})
	if !errors.Is(err, ErrTimeframeNotFound) {
		t.Errorf("期望 ErrTimeframeNotFound，实际 %v", err)
	}
}

func TestProjectService_List_Paginated(t *testing.T) {
	store := newFakeStore()
	school := store.addSchool("Demo University")
	tf := store.addTimeframe(school.SchoolID, "FYP-2026-S1")
	svc := NewProjectService(store.repository(), zap.NewNop())

	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("proj-%d", i)
		store.projects[id] = &model.Project{ProjectID: id, TimeframeID: tf.TimeframeID, Title: fmt.Sprintf("Project %d", i)}
	}
	store.projects["ai"] = &model.Project{ProjectID: "ai", TimeframeID: tf.TimeframeID, Title: "AI Tutor"}

	list, total, err := svc.List(context.Background(), school.SchoolID, tf.TimeframeID, &dto.ProjectListRequest{
		PaginationRequest: dto.PaginationRequest{Page: 2, PageSize: 4},
	})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 6 || len(list) != 2 {
		t.Errorf("期望 total=6 本页 2 条，实际 total=%d len=%d", total, len(list))
	}

	list, total, _ = svc.List(context.Background(), school.SchoolID, tf.TimeframeID, &dto.ProjectListRequest{Keyword: "tutor"})
	if total != 1 || list[0].Title != "AI Tutor" {
		t.Errorf("关键字过滤不符: total=%d %+v", total, list)
	}
}

func TestProjectService_Create_CapacityRange(t *testing.T) {
	store := newFakeStore()
	school := store.addSchool("Demo University")
	tf := store.addTimeframe(school.SchoolID, "FYP-2026-S1")
	coord := store.addUser(school.SchoolID, "coord@uni.edu", model.RoleAcademicCoordinator)
	store.assign(coord.UserID, tf.TimeframeID, model.RoleAcademicCoordinator)
	svc := NewProjectService(store.repository(), zap.NewNop())

	tests := []struct {
		name    string
		req     dto.CreateProjectRequest
		wantErr error
	}{
		{"容量允许为 0", dto.CreateProjectRequest{Title: "Zero", StudentCapacity: 0, SupervisorCapacity: 0, AssessorCapacity: 0}, nil},
		{"容量上限 100", dto.CreateProjectRequest{Title: "Max", StudentCapacity: 100, SupervisorCapacity: 1, AssessorCapacity: 1}, nil},
		{"容量超过 100", dto.CreateProjectRequest{Title: "Big", StudentCapacity: 101}, ErrInvalidProjectCapacity},
		{"负数容量", dto.CreateProjectRequest{Title: "Neg", AssessorCapacity: -1}, ErrInvalidProjectCapacity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Create(context.Background(), school.SchoolID, tf.TimeframeID, coord.UserID, &tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("期望错误 %v，实际 %v", tt.wantErr, err)
			}
			if err == nil && resp.StudentCapacity != tt.req.StudentCapacity {
				t.Errorf("期望学生容量 %d，实际 %d", tt.req.StudentCapacity, resp.StudentCapacity)
			}
		})
	}
}

func TestProjectService_UpdateAndDelete(t *testing.T) {
	store := newFakeStore()
	school := store.addSchool("Demo University")
	tf := store.addTimeframe(school.SchoolID, "FYP-2026-S1")
	other := store.addTimeframe(school.SchoolID, "FYP-2026-S2")
	svc := NewProjectService(store.repository(), zap.NewNop())
	ctx := context.Background()

	coord := store.addUser(school.SchoolID, "coord@uni.edu", model.RoleAcademicCoordinator)
	store.assign(coord.UserID, tf.TimeframeID, model.RoleAcademicCoordinator)
	outsider := store.addUser(school.SchoolID, "outsider@uni.edu", model.RoleAcademicCoordinator)
	store.assign(outsider.UserID, other.TimeframeID, model.RoleAcademicCoordinator)

	created, err := svc.Create(ctx, school.SchoolID, tf.TimeframeID, coord.UserID, &dto.CreateProjectRequest{Title: "Smart Campus", StudentCapacity: 2})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	stu := store.addUser(school.SchoolID, "stu@uni.edu", model.RoleStudent)
	store.prefs = append(store.prefs, model.Preference{UserID: stu.UserID, TimeframeID: tf.TimeframeID, ProjectID: created.ID, Rank: 1})

	upd := &dto.UpdateProjectRequest{Title: "Smart Campus v2", StudentCapacity: 4, SupervisorCapacity: 1}
	if _, err := svc.Update(ctx, school.SchoolID, created.ID, outsider.UserID, upd); !errors.Is(err, ErrNotTimeframeCoordinator) {
		t.Fatalf("其他学期的协调员不能修改项目，实际 %v", err)
	}
	if _, err := svc.Update(ctx, "school-other", created.ID, coord.UserID, upd); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("其他学校应视为项目不存在，实际 %v", err)
	}
	if _, err := svc.Update(ctx, school.SchoolID, created.ID, coord.UserID, &dto.UpdateProjectRequest{Title: "Bad", StudentCapacity: 500}); !errors.Is(err, ErrInvalidProjectCapacity) {
		t.Fatalf("超出范围的容量应被拒绝，实际 %v", err)
	}

	resp, err := svc.Update(ctx, school.SchoolID, created.ID, coord.UserID, upd)
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Title != "Smart Campus v2" || store.projects[created.ID].StudentCapacity != 4 {
		t.Errorf("项目未更新: %+v", resp)
	}

	if err := svc.Delete(ctx, school.SchoolID, created.ID, outsider.UserID); !errors.Is(err, ErrNotTimeframeCoordinator) {
		t.Fatalf("其他学期的协调员不能删除项目，实际 %v", err)
	}
	if err := svc.Delete(ctx, school.SchoolID, created.ID, coord.UserID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, ok := store.projects[created.ID]; ok {
		t.Error("项目应已删除")
	}
	if len(store.prefs) != 0 {
		t.Errorf("引用该项目的志愿应一并删除，剩余 %d", len(store.prefs))
	}
	if err := svc.Delete(ctx, school.SchoolID, created.ID, coord.UserID); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("重复删除期望 ErrProjectNotFound，实际 %v", err)
	}
}

func TestProjectService_UpdatePreferenceLimit(t *testing.T) {
	store := newFakeStore()
	school := store.addSchool("Demo University")
	tf := store.addTimeframe(school.SchoolID, "FYP-2026-S1")
	coord := store.addUser(school.SchoolID, "coord@uni.edu", model.RoleAcademicCoordinator)
	store.assign(coord.UserID, tf.TimeframeID, model.RoleAcademicCoordinator)
	sup := store.addUser(school.SchoolID, "sup@uni.edu", model.RoleSupervisor)
	store.assign(sup.UserID, tf.TimeframeID, model.RoleSupervisor)
	svc := NewProjectService(store.repository(), zap.NewNop())
	ctx := context.Background()

	for _, limit := range []int{0, 11} {
		if _, err := svc.UpdatePreferenceLimit(ctx, school.SchoolID, tf.TimeframeID, coord.UserID, limit); !errors.Is(err, ErrInvalidPreferenceLimit) {
			t.Errorf("上限 %d 应被拒绝，实际 %v", limit, err)
		}
	}
	if _, err := svc.UpdatePreferenceLimit(ctx, school.SchoolID, tf.TimeframeID, sup.UserID, 5); !errors.Is(err, ErrNotTimeframeCoordinator) {
		t.Errorf("非协调员应被拒绝，实际 %v", err)
	}
	if _, err := svc.UpdatePreferenceLimit(ctx, "school-other", tf.TimeframeID, coord.UserID, 5); !errors.Is(err, ErrTimeframeNotFound) {
		t.Errorf("其他学校期望 ErrTimeframeNotFound，实际 %v", err)
	}

	resp, err := svc.UpdatePreferenceLimit(ctx, school.SchoolID, tf.TimeframeID, coord.UserID, 5)
	if err != nil {
		t.Fatalf("UpdatePreferenceLimit 应成功: %v", err)
	}
	if resp.PreferenceLimit != 5 || store.timeframes[tf.TimeframeID].PreferenceLimit != 5 {
		t.Errorf("期望志愿上限 5，实际 %d", resp.PreferenceLimit)
	}
}

// [自证通过] internal/service/project_service_test.go
