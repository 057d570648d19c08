package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	netmail "net/mail"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/echo-tzh/projectFlow/internal/dto"
	"github.com/echo-tzh/projectFlow/internal/model"
	"github.com/echo-tzh/projectFlow/internal/repository"
)

// ── 名册导入业务错误 ──

var (
	ErrImportFileInvalid   = errors.New("无法解析 Excel 文件")
	ErrImportHeaderMissing = errors.New("Excel 缺少必需的表头")
	ErrImportEmpty         = errors.New("Excel 中没有数据行")
	ErrImportTooManyRows   = errors.New("Excel 数据行超过上限")
	ErrImportGenerateFail  = errors.New("生成 Excel 模板失败")
)

const (
	maxImportRows    = 1000
	importSheetName  = "Roster"
	importSavepoint  = "import_row"
	templateFileName = "roster_template.xlsx"
)

// 表头顺序即模板列顺序，解析时大小写不敏感
var importHeaders = []string{"ID", "name", "course studying", "email", "role"}

// Excel 导入仅允许的学期角色，管理类角色不能通过名册授予
var importableRoles = map[string]bool{
	model.RoleAssessor:            true,
	model.RoleSupervisor:          true,
	model.RoleStudent:             true,
	model.RoleAcademicCoordinator: true,
	model.RoleSubjectHead:         true,
}

// ImportService Excel 名册导入业务接口
//
// 与外部同步不同，导入只追加角色，从不移除用户已有的角色或学期关联
type ImportService interface {
	// ParseRosterFile 解析上传的 .xlsx，返回数据行
	ParseRosterFile(r io.Reader) ([]dto.RosterRow, error)
	// ImportRoster 将数据行导入指定学期
	ImportRoster(ctx context.Context, schoolID, timeframeID string, rows []dto.RosterRow) (*dto.ImportRosterResult, error)
	// Template 返回空白导入模板及建议文件名
	Template() (*bytes.Buffer, string, error)
}

type importService struct {
	repo      *repository.Repository
	passwords PasswordStore
	logger    *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(repo *repository.Repository, passwords PasswordStore, logger *zap.Logger) ImportService {
	return &importService{repo: repo, passwords: passwords, logger: logger}
}

// ────────────────────── ParseRosterFile ──────────────────────

func (s *importService) ParseRosterFile(r io.Reader) ([]dto.RosterRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFileInvalid, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrImportEmpty
	}
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFileInvalid, err)
	}
	if len(grid) == 0 {
		return nil, ErrImportEmpty
	}

	// 表头 → 列下标
	index := make(map[string]int, len(grid[0]))
	for i, h := range grid[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, h := range importHeaders {
		if _, ok := index[strings.ToLower(h)]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrImportHeaderMissing, strings.Join(missing, ", "))
	}

	at := func(row []string, header string) string {
		i := index[strings.ToLower(header)]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rows := make([]dto.RosterRow, 0, len(grid)-1)
	for i, line := range grid[1:] {
		row := dto.RosterRow{
			Row:            i + 2,
			StudentStaffID: at(line, "ID"),
			Name:           at(line, "name"),
			Course:         at(line, "course studying"),
			Email:          at(line, "email"),
			Role:           at(line, "role"),
		}
		if row.StudentStaffID == "" && row.Name == "" && row.Course == "" && row.Email == "" && row.Role == "" {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrImportEmpty
	}
	if len(rows) > maxImportRows {
		return nil, fmt.Errorf("%w: %d > %d", ErrImportTooManyRows, len(rows), maxImportRows)
	}
	return rows, nil
}

// ────────────────────── ImportRoster ──────────────────────

func (s *importService) ImportRoster(ctx context.Context, schoolID, timeframeID string, rows []dto.RosterRow) (*dto.ImportRosterResult, error) {
	tf, err := s.repo.Timeframe.GetByID(ctx, timeframeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeframeNotFound
		}
		s.logger.Error("查询学期失败", zap.String("timeframe_id", timeframeID), zap.Error(err))
		return nil, err
	}
	if tf.SchoolID != schoolID {
		return nil, ErrTimeframeNotFound
	}

	result := &dto.ImportRosterResult{Total: len(rows)}
	fail := func(row dto.RosterRow, reason string) {
		result.Failed++
		result.Errors = append(result.Errors, dto.ImportRowError{Row: row.Row, Email: row.Email, Reason: reason})
	}

	// 1. 逐行校验，合法行转换为名册记录
	type validRow struct {
		row dto.RosterRow
		rec RosterRecord
	}
	valid := make([]validRow, 0, len(rows))
	for _, row := range rows {
		rec, reason := rosterRowToRecord(row)
		if reason != "" {
			fail(row, reason)
			continue
		}
		valid = append(valid, validRow{row: row, rec: rec})
	}

	// 2. 单事务 + 行级保存点
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)
	staged := make(map[string]string)

	for _, v := range valid {
		var out recordOutcome
		err := withSavepoint(tx, importSavepoint, func() error {
			var err error
			out, err = importRecord(ctx, txRepo, schoolID, tf.TimeframeID, v.rec)
			return err
		})
		if errors.Is(err, errSavepointBroken) {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("导入事务损坏，已回滚", zap.Error(err))
			return nil, err
		}
		if err != nil {
			s.logger.Warn("导入名册行失败", zap.Int("row", v.row.Row), zap.String("email", v.rec.Email), zap.Error(err))
			fail(v.row, err.Error())
			continue
		}

		if out.created {
			result.Created++
			staged[v.rec.Email] = out.password
		}
		if out.updated {
			result.Updated++
		}
		if out.assigned {
			result.Assigned++
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交导入事务失败", zap.Error(err))
			return nil, err
		}
	}

	for email, pwd := range staged {
		if err := s.passwords.Stage(ctx, email, pwd); err != nil {
			s.logger.Warn("暂存临时密码失败", zap.String("email", email), zap.Error(err))
		}
	}

	s.logger.Info("Excel 名册导入完成",
		zap.String("timeframe", tf.Name),
		zap.Int("total", result.Total),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("assigned", result.Assigned),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// importRecord 追加式地创建/更新用户并分配本学期角色
func importRecord(ctx context.Context, repo *repository.Repository, schoolID, timeframeID string, rec RosterRecord) (recordOutcome, error) {
	out := recordOutcome{roles: len(rec.Roles)}

	user, err := repo.User.GetByEmail(ctx, rec.Email)
	switch {
	case err == nil:
		profileChanged := updateProfile(user, rec, schoolID)
		if profileChanged {
			if err := repo.User.Update(ctx, user); err != nil {
				return out, fmt.Errorf("更新用户资料失败: %w", err)
			}
		}
		rolesChanged, err := applyGlobalRoles(ctx, repo, user, unionRoles(user.RoleNames(), rec.Roles))
		if err != nil {
			return out, err
		}
		out.updated = profileChanged || rolesChanged

	case errors.Is(err, gorm.ErrRecordNotFound):
		var password string
		user, password, err = createRosterUser(ctx, repo, rec, schoolID)
		if err != nil {
			return out, err
		}
		if _, err := applyGlobalRoles(ctx, repo, user, rec.Roles); err != nil {
			return out, err
		}
		out.created = true
		out.password = password

	default:
		return out, fmt.Errorf("查询用户失败: %w", err)
	}

	roles, err := ensureRoles(ctx, repo, rec.Roles)
	if err != nil {
		return out, err
	}
	out.assigned, err = assignTimeframeRoles(ctx, repo, user.UserID, timeframeID, roles)
	return out, err
}

// rosterRowToRecord 校验一行并返回名册记录，非法时返回原因
func rosterRowToRecord(row dto.RosterRow) (RosterRecord, string) {
	if row.Email == "" {
		return RosterRecord{}, "邮箱不能为空"
	}
	if _, err := netmail.ParseAddress(row.Email); err != nil {
		return RosterRecord{}, "邮箱格式不正确"
	}
	if row.Name == "" {
		return RosterRecord{}, "姓名不能为空"
	}

	roles := parseRoles(row.Role)
	if len(roles) == 0 {
		return RosterRecord{}, "角色不能为空"
	}
	for _, r := range roles {
		if !importableRoles[r] {
			return RosterRecord{}, fmt.Sprintf("不支持的角色 %q", r)
		}
	}

	return RosterRecord{
		Email:      NormalizeEmail(row.Email),
		Name:       row.Name,
		Course:     row.Course,
		ExternalID: row.StudentStaffID,
		Roles:      roles,
	}, ""
}

// ────────────────────── Template ──────────────────────

func (s *importService) Template() (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(importSheetName)
	if err != nil {
		s.logger.Error("创建 Sheet 失败", zap.Error(err))
		return nil, "", ErrImportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range importHeaders {
		col := colName(i)
		f.SetCellValue(importSheetName, cell(col, 1), h)
		f.SetColWidth(importSheetName, col, col, 22)
	}
	f.SetCellStyle(importSheetName, "A1", cell(colName(len(importHeaders)-1), 1), headerStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrImportGenerateFail
	}
	return buf, templateFileName, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/import_service.go
