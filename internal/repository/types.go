package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateKey 唯一键冲突，TranslateError 未覆盖的驱动按错误信息兜底
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "Duplicate entry")
}

// getOrCreate 事务内先查后建；并发创建导致唯一键冲突时重新查询
func getOrCreate[T any](ctx context.Context, db *gorm.DB, find func(tx *gorm.DB) (*T, error), create func(tx *gorm.DB) (*T, error)) (*T, bool, error) {
	var (
		result  *T
		created bool
	)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := find(tx)
		if err == nil {
			result = found
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		obj, err := create(tx)
		if err != nil {
			return err
		}
		result, created = obj, true
		return nil
	})
	if err == nil {
		return result, created, nil
	}
	if !isDuplicateKey(err) {
		return nil, false, err
	}

	found, ferr := find(db.WithContext(ctx))
	if ferr != nil {
		return nil, false, ferr
	}
	return found, false, nil
}
