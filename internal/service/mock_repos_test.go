package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/echo-tzh/projectFlow/internal/model"
	"github.com/echo-tzh/projectFlow/internal/repository"
	"github.com/echo-tzh/projectFlow/pkg/externalapi"
	"github.com/echo-tzh/projectFlow/pkg/mail"
)

// ── 内存数据集 ──
//
// 所有 mock repo 共享同一个 fakeStore，模拟数据库的关联与级联行为：
//   - 用户按邮箱大小写不敏感唯一
//   - 读取用户时预加载全局角色，返回副本
//   - 删除用户级联删除其角色、学期关联与志愿

type fakeStore struct {
	seq            int
	schools        map[string]*model.School
	users          map[string]*model.User
	roles          map[string]*model.Role
	userRoles      map[string]map[string]bool
	timeframes     map[string]*model.Timeframe
	userTimeframes map[[2]string]bool
	roleTimeframes map[[3]string]bool
	configs        map[string]*model.ExternalAPIConfig
	projects       map[string]*model.Project
	prefs          []model.Preference

	failCreateEmail map[string]bool
}

func newFakeStore() *fakeStore {
	s := &fakeStore{
		schools:         make(map[string]*model.School),
		users:           make(map[string]*model.User),
		roles:           make(map[string]*model.Role),
		userRoles:       make(map[string]map[string]bool),
		timeframes:      make(map[string]*model.Timeframe),
		userTimeframes:  make(map[[2]string]bool),
		roleTimeframes:  make(map[[3]string]bool),
		configs:         make(map[string]*model.ExternalAPIConfig),
		projects:        make(map[string]*model.Project),
		failCreateEmail: make(map[string]bool),
	}
	for _, name := range []string{
		model.RoleStudent, model.RoleSupervisor, model.RoleAssessor,
		model.RoleAcademicCoordinator, model.RoleSubjectHead,
		model.RoleEducationalAdmin, model.RoleSystemAdmin,
	} {
		s.ensureRole(name)
	}
	return s
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

// repository 返回绑定到该数据集的 Repository 聚合（无 db，BeginTx 返回 nil）
func (s *fakeStore) repository() *repository.Repository {
	return &repository.Repository{
		School:      &mockSchoolRepo{s},
		User:        &mockUserRepo{s},
		Role:        &mockRoleRepo{s},
		Timeframe:   &mockTimeframeRepo{s},
		Assignment:  &mockAssignmentRepo{s},
		ExternalAPI: &mockExternalAPIRepo{s},
		Project:     &mockProjectRepo{s},
		Preference:  &mockPreferenceRepo{s},
	}
}

func (s *fakeStore) ensureRole(name string) *model.Role {
	for _, r := range s.roles {
		if r.Name == name {
			return r
		}
	}
	r := &model.Role{RoleID: s.nextID("role"), Name: name, IsActive: true, CreatedAt: time.Now()}
	s.roles[r.RoleID] = r
	return r
}

func (s *fakeStore) roleByName(name string) *model.Role {
	for _, r := range s.roles {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func (s *fakeStore) loadUser(u *model.User) *model.User {
	cp := *u
	cp.Roles = nil
	for rid := range s.userRoles[u.UserID] {
		cp.Roles = append(cp.Roles, *s.roles[rid])
	}
	sort.Slice(cp.Roles, func(i, j int) bool { return cp.Roles[i].Name < cp.Roles[j].Name })
	return &cp
}

func (s *fakeStore) findUserByEmail(email string) *model.User {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

// ── 测试辅助：直接构造数据 ──

func (s *fakeStore) addSchool(name string) *model.School {
	school := &model.School{SchoolID: s.nextID("school"), Name: name}
	s.schools[school.SchoolID] = school
	return school
}

func (s *fakeStore) addTimeframe(schoolID, name string) *model.Timeframe {
	tf := &model.Timeframe{
		TimeframeID:     s.nextID("tf"),
		SchoolID:        schoolID,
		Name:            name,
		StartDate:       time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		DeliveryType:    model.DeliveryOnCampus,
		PreferenceLimit: 3,
		PreferenceStart: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		PreferenceEnd:   time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
	}
	s.timeframes[tf.TimeframeID] = tf
	return tf
}

// addUser 创建用户并赋予全局角色
func (s *fakeStore) addUser(schoolID, email string, roles ...string) *model.User {
	sid := schoolID
	u := &model.User{UserID: s.nextID("user"), Name: email, Email: email, SchoolID: &sid}
	s.users[u.UserID] = u
	s.userRoles[u.UserID] = make(map[string]bool)
	for _, r := range roles {
		s.userRoles[u.UserID][s.ensureRole(r).RoleID] = true
	}
	return u
}

// assign 写入用户在学期内的三元授权行与二元关联
func (s *fakeStore) assign(userID, timeframeID string, roles ...string) {
	for _, r := range roles {
		s.roleTimeframes[[3]string{userID, s.ensureRole(r).RoleID, timeframeID}] = true
	}
	s.userTimeframes[[2]string{userID, timeframeID}] = true
}

// globalRoles 用户当前全局角色（已排序）
func (s *fakeStore) globalRoles(email string) []string {
	u := s.findUserByEmail(email)
	if u == nil {
		return nil
	}
	return s.loadUser(u).RoleNames()
}

// timeframeRoles 用户在学期内的角色（已排序）
func (s *fakeStore) timeframeRoles(email, timeframeID string) []string {
	u := s.findUserByEmail(email)
	if u == nil {
		return nil
	}
	var names []string
	for k := range s.roleTimeframes {
		if k[0] == u.UserID && k[2] == timeframeID {
			names = append(names, s.roles[k[1]].Name)
		}
	}
	sort.Strings(names)
	return names
}

func (s *fakeStore) inTimeframe(email, timeframeID string) bool {
	u := s.findUserByEmail(email)
	return u != nil && s.userTimeframes[[2]string{u.UserID, timeframeID}]
}

// ── Mock SchoolRepository ──

type mockSchoolRepo struct{ s *fakeStore }

func (m *mockSchoolRepo) Create(_ context.Context, school *model.School) error {
	for _, sc := range m.s.schools {
		if sc.Name == school.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if school.SchoolID == "" {
		school.SchoolID = m.s.nextID("school")
	}
	cp := *school
	m.s.schools[school.SchoolID] = &cp
	return nil
}

func (m *mockSchoolRepo) GetByID(_ context.Context, id string) (*model.School, error) {
	if sc, ok := m.s.schools[id]; ok {
		cp := *sc
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSchoolRepo) GetByName(_ context.Context, name string) (*model.School, error) {
	for _, sc := range m.s.schools {
		if sc.Name == name {
			cp := *sc
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock UserRepository ──

type mockUserRepo struct{ s *fakeStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if m.s.failCreateEmail[strings.ToLower(user.Email)] {
		return fmt.Errorf("模拟写入失败: %s", user.Email)
	}
	if m.s.findUserByEmail(user.Email) != nil {
		return gorm.ErrDuplicatedKey
	}
	if user.UserID == "" {
		user.UserID = m.s.nextID("user")
	}
	user.CreatedAt = time.Now()
	cp := *user
	cp.Roles = nil
	m.s.users[user.UserID] = &cp
	m.s.userRoles[user.UserID] = make(map[string]bool)
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.s.users[id]; ok {
		return m.s.loadUser(u), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u := m.s.findUserByEmail(email); u != nil {
		return m.s.loadUser(u), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.s.users[user.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	cp.Roles = nil
	m.s.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	delete(m.s.users, id)
	delete(m.s.userRoles, id)
	for k := range m.s.userTimeframes {
		if k[0] == id {
			delete(m.s.userTimeframes, k)
		}
	}
	for k := range m.s.roleTimeframes {
		if k[0] == id {
			delete(m.s.roleTimeframes, k)
		}
	}
	kept := m.s.prefs[:0]
	for _, p := range m.s.prefs {
		if p.UserID != id {
			kept = append(kept, p)
		}
	}
	m.s.prefs = kept
	return nil
}

func (m *mockUserRepo) SetRoles(_ context.Context, userID string, roleIDs []string) error {
	set := make(map[string]bool, len(roleIDs))
	for _, id := range roleIDs {
		set[id] = true
	}
	m.s.userRoles[userID] = set
	return nil
}

func (m *mockUserRepo) ListByTimeframe(_ context.Context, timeframeID string) ([]model.User, error) {
	var result []model.User
	for k := range m.s.userTimeframes {
		if k[1] == timeframeID {
			if u, ok := m.s.users[k[0]]; ok {
				result = append(result, *m.s.loadUser(u))
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

func (m *mockUserRepo) ListEmailsByTimeframe(_ context.Context, schoolID, timeframeID string) ([]string, error) {
	var emails []string
	for k := range m.s.userTimeframes {
		if k[1] != timeframeID {
			continue
		}
		u, ok := m.s.users[k[0]]
		if !ok || u.SchoolID == nil || *u.SchoolID != schoolID {
			continue
		}
		emails = append(emails, strings.ToLower(u.Email))
	}
	return emails, nil
}

func (m *mockUserRepo) MarkEmailSent(_ context.Context, userID string) error {
	if u, ok := m.s.users[userID]; ok {
		u.EmailSent = true
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, userID, hash string) error {
	if u, ok := m.s.users[userID]; ok {
		u.PasswordHash = hash
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── Mock RoleRepository ──

type mockRoleRepo struct{ s *fakeStore }

func (m *mockRoleRepo) Ensure(_ context.Context, name string) (*model.Role, error) {
	r := *m.s.ensureRole(name)
	return &r, nil
}

func (m *mockRoleRepo) GetByName(_ context.Context, name string) (*model.Role, error) {
	if r := m.s.roleByName(name); r != nil {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoleRepo) List(_ context.Context) ([]model.Role, error) {
	var result []model.Role
	for _, r := range m.s.roles {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock TimeframeRepository ──

type mockTimeframeRepo struct{ s *fakeStore }

func (m *mockTimeframeRepo) Create(_ context.Context, tf *model.Timeframe) error {
	for _, t := range m.s.timeframes {
		if t.SchoolID == tf.SchoolID && t.Name == tf.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if tf.TimeframeID == "" {
		tf.TimeframeID = m.s.nextID("tf")
	}
	tf.CreatedAt = time.Now()
	tf.UpdatedAt = tf.CreatedAt
	cp := *tf
	m.s.timeframes[tf.TimeframeID] = &cp
	return nil
}

func (m *mockTimeframeRepo) GetByID(_ context.Context, id string) (*model.Timeframe, error) {
	if t, ok := m.s.timeframes[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeframeRepo) GetByName(_ context.Context, schoolID, name string) (*model.Timeframe, error) {
	for _, t := range m.s.timeframes {
		if t.SchoolID == schoolID && t.Name == name {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeframeRepo) ListBySchool(_ context.Context, schoolID string) ([]model.Timeframe, error) {
	var result []model.Timeframe
	for _, t := range m.s.timeframes {
		if t.SchoolID == schoolID {
			result = append(result, *t)
		}
	}
	sortTimeframes(result)
	return result, nil
}

func (m *mockTimeframeRepo) ListByUser(_ context.Context, userID string) ([]model.Timeframe, error) {
	var result []model.Timeframe
	for k := range m.s.userTimeframes {
		if k[0] == userID {
			if t, ok := m.s.timeframes[k[1]]; ok {
				result = append(result, *t)
			}
		}
	}
	sortTimeframes(result)
	return result, nil
}

func (m *mockTimeframeRepo) Update(_ context.Context, tf *model.Timeframe) error {
	for _, t := range m.s.timeframes {
		if t.TimeframeID != tf.TimeframeID && t.SchoolID == tf.SchoolID && t.Name == tf.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *tf
	m.s.timeframes[tf.TimeframeID] = &cp
	return nil
}

func (m *mockTimeframeRepo) Delete(_ context.Context, id string) error {
	delete(m.s.timeframes, id)
	for k := range m.s.userTimeframes {
		if k[1] == id {
			delete(m.s.userTimeframes, k)
		}
	}
	for k := range m.s.roleTimeframes {
		if k[2] == id {
			delete(m.s.roleTimeframes, k)
		}
	}
	return nil
}

func sortTimeframes(tfs []model.Timeframe) {
	sort.Slice(tfs, func(i, j int) bool {
		if !tfs[i].StartDate.Equal(tfs[j].StartDate) {
			return tfs[i].StartDate.Before(tfs[j].StartDate)
		}
		return tfs[i].Name < tfs[j].Name
	})
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct{ s *fakeStore }

func (m *mockAssignmentRepo) AssignRoleTimeframe(_ context.Context, userID, roleID, timeframeID string) (bool, error) {
	k := [3]string{userID, roleID, timeframeID}
	if m.s.roleTimeframes[k] {
		return false, nil
	}
	m.s.roleTimeframes[k] = true
	return true, nil
}

func (m *mockAssignmentRepo) EnsureUserTimeframe(_ context.Context, userID, timeframeID string) (bool, error) {
	k := [2]string{userID, timeframeID}
	if m.s.userTimeframes[k] {
		return false, nil
	}
	m.s.userTimeframes[k] = true
	return true, nil
}

func (m *mockAssignmentRepo) RemoveUserTimeframe(_ context.Context, userID, timeframeID string) error {
	delete(m.s.userTimeframes, [2]string{userID, timeframeID})
	return nil
}

func (m *mockAssignmentRepo) DeleteRoleTimeframes(_ context.Context, userID, timeframeID string) error {
	for k := range m.s.roleTimeframes {
		if k[0] == userID && k[2] == timeframeID {
			delete(m.s.roleTimeframes, k)
		}
	}
	return nil
}

func (m *mockAssignmentRepo) DeleteRoleTimeframesExcept(_ context.Context, userID, timeframeID string, keepRoleIDs []string) (int64, error) {
	keep := make(map[string]bool, len(keepRoleIDs))
	for _, id := range keepRoleIDs {
		keep[id] = true
	}
	var n int64
	for k := range m.s.roleTimeframes {
		if k[0] == userID && k[2] == timeframeID && !keep[k[1]] {
			delete(m.s.roleTimeframes, k)
			n++
		}
	}
	return n, nil
}

func (m *mockAssignmentRepo) HasRoleInTimeframe(_ context.Context, userID, roleName, timeframeID string) (bool, error) {
	r := m.s.roleByName(roleName)
	if r == nil {
		return false, nil
	}
	return m.s.roleTimeframes[[3]string{userID, r.RoleID, timeframeID}], nil
}

func (m *mockAssignmentRepo) ListTimeframesForUserRole(_ context.Context, userID, roleName string) ([]model.Timeframe, error) {
	r := m.s.roleByName(roleName)
	if r == nil {
		return nil, nil
	}
	var result []model.Timeframe
	for k := range m.s.roleTimeframes {
		if k[0] == userID && k[1] == r.RoleID {
			if t, ok := m.s.timeframes[k[2]]; ok {
				result = append(result, *t)
			}
		}
	}
	sortTimeframes(result)
	return result, nil
}

func (m *mockAssignmentRepo) ListRoleNamesInTimeframe(_ context.Context, userID, timeframeID string) ([]string, error) {
	var names []string
	for k := range m.s.roleTimeframes {
		if k[0] == userID && k[2] == timeframeID {
			names = append(names, m.s.roles[k[1]].Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockAssignmentRepo) ListByTimeframe(_ context.Context, timeframeID string) ([]model.UserRoleTimeframe, error) {
	return m.list(func(k [3]string) bool { return k[2] == timeframeID }), nil
}


func (m *mockAssignmentRepo) list(match func(k [3]string) bool) []model.UserRoleTimeframe {
	var result []model.UserRoleTimeframe
	for k := range m.s.roleTimeframes {
		if !match(k) {
			continue
		}
		role := *m.s.roles[k[1]]
		result = append(result, model.UserRoleTimeframe{
			UserID: k[0], RoleID: k[1], TimeframeID: k[2], Role: &role,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.Role.Name < b.Role.Name
	})
	return result
}

// ── Mock ExternalAPIConfigRepository ──

type mockExternalAPIRepo struct{ s *fakeStore }

func (m *mockExternalAPIRepo) GetBySchool(_ context.Context, schoolID string) (*model.ExternalAPIConfig, error) {
	if c, ok := m.s.configs[schoolID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExternalAPIRepo) GetActiveBySchool(_ context.Context, schoolID string) (*model.ExternalAPIConfig, error) {
	if c, ok := m.s.configs[schoolID]; ok && c.IsActive {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExternalAPIRepo) Save(_ context.Context, cfg *model.ExternalAPIConfig) error {
	if old, ok := m.s.configs[cfg.SchoolID]; ok {
		cfg.ConfigID = old.ConfigID
	} else if cfg.ConfigID == "" {
		cfg.ConfigID = m.s.nextID("cfg")
	}
	cp := *cfg
	m.s.configs[cfg.SchoolID] = &cp
	return nil
}

// ── Mock ProjectRepository ──

type mockProjectRepo struct{ s *fakeStore }

func (m *mockProjectRepo) Create(_ context.Context, p *model.Project) error {
	if p.ProjectID == "" {
		p.ProjectID = m.s.nextID("proj")
	}
	p.CreatedAt = time.Now()
	cp := *p
	m.s.projects[p.ProjectID] = &cp
	return nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	if p, ok := m.s.projects[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProjectRepo) Update(_ context.Context, p *model.Project) error {
	if _, ok := m.s.projects[p.ProjectID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	m.s.projects[p.ProjectID] = &cp
	return nil
}

// Delete 同时删除引用该项目的志愿（与外键 ON DELETE CASCADE 一致）
func (m *mockProjectRepo) Delete(_ context.Context, id string) error {
	delete(m.s.projects, id)
	kept := m.s.prefs[:0]
	for _, p := range m.s.prefs {
		if p.ProjectID != id {
			kept = append(kept, p)
		}
	}
	m.s.prefs = kept
	return nil
}

func (m *mockProjectRepo) ListByTimeframe(_ context.Context, timeframeID, keyword string, offset, limit int) ([]model.Project, int64, error) {
	var all []model.Project
	for _, p := range m.s.projects {
		if p.TimeframeID != timeframeID {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(keyword)) {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.Project{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockProjectRepo) CountByTimeframe(_ context.Context, timeframeID string) (int64, error) {
	var n int64
	for _, p := range m.s.projects {
		if p.TimeframeID == timeframeID {
			n++
		}
	}
	return n, nil
}

// ── Mock PreferenceRepository ──

type mockPreferenceRepo struct{ s *fakeStore }

func (m *mockPreferenceRepo) ListByUserTimeframe(_ context.Context, userID, timeframeID string) ([]model.Preference, error) {
	var result []model.Preference
	for _, p := range m.s.prefs {
		if p.UserID == userID && p.TimeframeID == timeframeID {
			if proj, ok := m.s.projects[p.ProjectID]; ok {
				cp := *proj
				p.Project = &cp
			}
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Rank < result[j].Rank })
	return result, nil
}

func (m *mockPreferenceRepo) CreateBatch(_ context.Context, prefs []model.Preference) error {
	for _, p := range prefs {
		for _, existing := range m.s.prefs {
			if existing.UserID == p.UserID && existing.TimeframeID == p.TimeframeID &&
				(existing.Rank == p.Rank || existing.ProjectID == p.ProjectID) {
				return gorm.ErrDuplicatedKey
			}
		}
		if p.PreferenceID == "" {
			p.PreferenceID = m.s.nextID("pref")
		}
		m.s.prefs = append(m.s.prefs, p)
	}
	return nil
}

func (m *mockPreferenceRepo) DeleteByUserTimeframe(_ context.Context, userID, timeframeID string) error {
	kept := m.s.prefs[:0]
	for _, p := range m.s.prefs {
		if !(p.UserID == userID && p.TimeframeID == timeframeID) {
			kept = append(kept, p)
		}
	}
	m.s.prefs = kept
	return nil
}

// ── Mock RosterFetcher ──

type mockFetcher struct {
	rosters   map[string][]map[string]any
	errs      map[string]error
	calls     map[string]int
	health    *externalapi.HealthStatus
	healthErr error
	lastCreds externalapi.Credentials
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		rosters: make(map[string][]map[string]any),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (f *mockFetcher) FetchByPeriod(_ context.Context, creds externalapi.Credentials, period string) ([]map[string]any, error) {
	f.calls[period]++
	f.lastCreds = creds
	if err, ok := f.errs[period]; ok {
		return nil, err
	}
	return f.rosters[period], nil
}

func (f *mockFetcher) Health(_ context.Context, creds externalapi.Credentials) (*externalapi.HealthStatus, error) {
	f.lastCreds = creds
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return f.health, nil
}

// student 构造一条外部名册记录
func student(email, role, period string) map[string]any {
	return map[string]any{
		"email":       email,
		"name":        "Name " + email,
		"course":      "Computer Science",
		"id":          "ID-" + email,
		"role":        role,
		"fyp_session": period,
	}
}

// ── Mock mail.Sender ──

type mockSender struct {
	sent []sentMail
	fail map[string]bool
}

type sentMail struct {
	To      string
	Subject string
	Text    string
}

func (m *mockSender) Send(_ context.Context, msg mail.Message) error {
	if m.fail[msg.To] {
		return fmt.Errorf("模拟投递失败: %s", msg.To)
	}
	m.sent = append(m.sent, sentMail{To: msg.To, Subject: msg.Subject, Text: msg.Text})
	return nil
}

// [自证通过] internal/service/mock_repos_test.go
