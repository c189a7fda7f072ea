package service

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"retailhub/internal/domain"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// admin inherits every user permission through the grouping rule below
var rbacPolicies = [][]string{
	{"user", "products", "read"},
	{"user", "cart", "use"},
	{"user", "profile", "read"},
	{"admin", "products", "write"},
	{"admin", "inventory", "read"},
	{"admin", "inventory", "write"},
	{"admin", "orders", "read"},
	{"admin", "orders", "write"},
	{"admin", "dashboard", "read"},
}

// AuthorizationService проверка прав по роли
type AuthorizationService struct {
	enforcer *casbin.Enforcer
}

func NewAuthorizationService() (*AuthorizationService, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RBAC model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RBAC enforcer: %w", err)
	}
	if _, err := e.AddPolicies(rbacPolicies); err != nil {
		return nil, fmt.Errorf("failed to load RBAC policies: %w", err)
	}
	if _, err := e.AddGroupingPolicy(string(domain.RoleAdmin), string(domain.RoleUser)); err != nil {
		return nil, fmt.Errorf("failed to load RBAC roles: %w", err)
	}
	return &AuthorizationService{enforcer: e}, nil
}

func (s *AuthorizationService) CheckPermission(role domain.Role, resource, action string) (bool, error) {
	allowed, err := s.enforcer.Enforce(string(role), resource, action)
	if err != nil {
		return false, fmt.Errorf("RBAC permission check failed: %w", err)
	}
	return allowed, nil
}
