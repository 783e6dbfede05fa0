package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/thuhoaidev/EduPro-sub004/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// AuthState 鉴权快照，TokenInvalidBefore 为 Unix 秒，0 表示未设置
type AuthState struct {
	SubjectID          uint   `json:"subject_id"`
	Status             string `json:"status,omitempty"`
	TokenVersion       uint64 `json:"token_version"`
	TokenInvalidBefore int64  `json:"token_invalid_before"`
	IsSuper            bool   `json:"is_super,omitempty"`
}

func userAuthStateKey(userID uint) string {
	return fmt.Sprintf("auth:user:%d", userID)
}

func adminAuthStateKey(adminID uint) string {
	return fmt.Sprintf("auth:admin:%d", adminID)
}

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.Unix()
}

// UserAuthState 从用户模型构建鉴权快照
func UserAuthState(user *models.User) *AuthState {
	if user == nil {
		return nil
	}
	return &AuthState{
		SubjectID:          user.ID,
		Status:             user.Status,
		TokenVersion:       user.TokenVersion,
		TokenInvalidBefore: unixOrZero(user.TokenInvalidBefore),
	}
}

// AdminAuthState 从管理员模型构建鉴权快照
func AdminAuthState(admin *models.Admin) *AuthState {
	if admin == nil {
		return nil
	}
	return &AuthState{
		SubjectID:          admin.ID,
		TokenVersion:       admin.TokenVersion,
		TokenInvalidBefore: unixOrZero(admin.TokenInvalidBefore),
		IsSuper:            admin.IsSuper,
	}
}

// GetUserAuthState 获取用户鉴权快照
func GetUserAuthState(ctx context.Context, userID uint) (*AuthState, bool, error) {
	return getAuthState(ctx, userID, userAuthStateKey)
}

// SetUserAuthState 写入用户鉴权快照
func SetUserAuthState(ctx context.Context, state *AuthState) error {
	return setAuthState(ctx, state, userAuthStateKey)
}

// GetAdminAuthState 获取管理员鉴权快照
func GetAdminAuthState(ctx context.Context, adminID uint) (*AuthState, bool, error) {
	return getAuthState(ctx, adminID, adminAuthStateKey)
}

// SetAdminAuthState 写入管理员鉴权快照
func SetAdminAuthState(ctx context.Context, state *AuthState) error {
	return setAuthState(ctx, state, adminAuthStateKey)
}

func getAuthState(ctx context.Context, id uint, keyFn func(uint) string) (*AuthState, bool, error) {
	if id == 0 {
		return nil, false, nil
	}
	var state AuthState
	hit, err := GetJSON(ctx, keyFn(id), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

func setAuthState(ctx context.Context, state *AuthState, keyFn func(uint) string) error {
	if state == nil || state.SubjectID == 0 {
		return nil
	}
	return SetJSON(ctx, keyFn(state.SubjectID), state, authStateCacheTTL)
}
