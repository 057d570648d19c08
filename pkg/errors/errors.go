package errors

import (
	"errors"

	"gorm.io/gorm"
)

// ErrDuplicate 唯一约束冲突：记录已存在
var ErrDuplicate = errors.New("记录已存在")

// IsDuplicate 判断错误是否为唯一约束冲突
// 需要 gorm.Config.TranslateError 开启（见 pkg/database.NewDB）
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsNotFound 判断错误是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
