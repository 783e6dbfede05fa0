package models

import (
	"strings"

	"github.com/thuhoaidev/EduPro-sub004/internal/logger"
)

// EnsureDefaultAdmin 确保默认管理员存在且拥有超级管理员权限
func EnsureDefaultAdmin(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		username = "admin"
	}

	var admin Admin
	result := DB.Where("username = ?", username).Limit(1).Find(&admin)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		if !admin.IsSuper {
			if err := DB.Model(&Admin{}).Where("id = ?", admin.ID).Update("is_super", true).Error; err != nil {
				logger.Warnw("ensure_default_admin_super_failed", "error", err)
			}
		}
		return nil
	}

	admin = Admin{Username: username, IsSuper: true}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}
	logger.Infow("default_admin_created", "username", username)
	return nil
}
