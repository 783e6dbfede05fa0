package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "voucher_viewer",
			Policies: []Policy{
				{Object: "/admin/authz/me", Action: "GET"},
				{Object: "/admin/vouchers", Action: "GET"},
				{Object: "/admin/vouchers/:id", Action: "GET"},
				{Object: "/admin/vouchers/:id/usages", Action: "GET"},
			},
		},
		{
			Role:     "voucher_manager",
			Inherits: []string{"voucher_viewer"},
			Policies: []Policy{
				{Object: "/admin/vouchers", Action: "POST"},
				{Object: "/admin/vouchers/:id", Action: "PUT"},
				{Object: "/admin/vouchers/:id", Action: "DELETE"},
				{Object: "/admin/authz/permissions/catalog", Action: "GET"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略，重复执行不会产生重复记录
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := s.EnsureRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("add builtin policy for %s failed: %w", role, err)
			}
		}
	}
	return nil
}
