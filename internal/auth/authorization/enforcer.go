// Package authorization provides Casbin-based authorization enforcement for souschef.
// It implements role-based access control (RBAC) with role inheritance:
// admins inherit everything regular users may do.
package authorization

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const (
	modelFile  = "casbin/model.conf"
	policyFile = "casbin/policy.csv"
)

// Enforcer wraps the Casbin enforcer with additional functionality.
// The synced variant is used because roles change at runtime while
// requests are being enforced concurrently.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
	logger   *slog.Logger
}

// NewEnforcer creates a new Casbin enforcer from the embedded model and policy files.
func NewEnforcer(logger *slog.Logger) (*Enforcer, error) {
	modelText, err := CasbinFS.ReadFile(modelFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded casbin model: %w", err)
	}
	policyText, err := CasbinFS.ReadFile(policyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded casbin policy: %w", err)
	}

	m, err := model.NewModelFromString(string(modelText))
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{
		enforcer: enforcer,
		logger:   logger,
	}

	if err := e.loadPolicyLines(string(policyText)); err != nil {
		return nil, fmt.Errorf("failed to load casbin policy: %w", err)
	}

	logger.Debug("casbin enforcer initialized", "model", modelFile, "policy", policyFile)

	return e, nil
}

// loadPolicyLines parses the embedded policy CSV and feeds the rules into the
// in-memory enforcer. Casbin's file adapter wants an on-disk path, which an
// embedded binary doesn't have.
func (e *Enforcer) loadPolicyLines(policyText string) error {
	for _, line := range strings.Split(policyText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) < 2 {
			return fmt.Errorf("malformed policy line: %q", line)
		}

		params := make([]any, 0, len(fields)-1)
		for _, f := range fields[1:] {
			params = append(params, f)
		}

		var err error
		switch fields[0] {
		case "p":
			_, err = e.enforcer.AddPolicy(params...)
		case "g":
			_, err = e.enforcer.AddGroupingPolicy(params...)
		default:
			return fmt.Errorf("unsupported policy type %q in line %q", fields[0], line)
		}
		if err != nil {
			return fmt.Errorf("failed to add policy line %q: %w", line, err)
		}
	}

	return nil
}

// Enforce checks if a subject (user) can perform an action on an object.
// Returns true if the action is allowed, false otherwise.
//
// Example usage:
//
//	allowed, err := e.Enforce("user@example.com", ObjectUsers, ActionRead)
func (e *Enforcer) Enforce(subject, object string, action Action) (bool, error) {
	allowed, err := e.enforcer.Enforce(subject, object, string(action))
	if err != nil {
		e.logger.Error("casbin enforcement error", "subject", subject, "object", object, "action", action, "error", err)
		return false, fmt.Errorf("casbin enforcement failed: %w", err)
	}

	e.logger.Debug("casbin enforcement result", "subject", subject, "object", object, "action", action, "allowed", allowed)
	return allowed, nil
}

// AddRoleForUser assigns a role to a user. The role is validated against the
// known roles before it is added.
//
// Example usage:
//
//	err := e.AddRoleForUser("user@example.com", RoleAdmin)
func (e *Enforcer) AddRoleForUser(user string, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role: %s (valid roles: %s)", role, strings.Join(ValidRoles(), ", "))
	}

	added, err := e.enforcer.AddGroupingPolicy(user, FormatRole(role))
	if err != nil {
		return fmt.Errorf("failed to add role for user: %w", err)
	}
	if !added {
		e.logger.Debug("role already exists for user", "user", user, "role", role)
		return nil
	}

	e.logger.Debug("role added for user", "user", user, "role", role)
	return nil
}

// RemoveRoleForUser removes a role from a user.
//
// Example usage:
//
//	err := e.RemoveRoleForUser("user@example.com", RoleAdmin)
func (e *Enforcer) RemoveRoleForUser(user string, role Role) error {
	removed, err := e.enforcer.RemoveGroupingPolicy(user, FormatRole(role))
	if err != nil {
		return fmt.Errorf("failed to remove role for user: %w", err)
	}
	if !removed {
		e.logger.Debug("role did not exist for user", "user", user, "role", role)
		return nil
	}

	e.logger.Debug("role removed for user", "user", user, "role", role)
	return nil
}

// ReplaceRolesForUser removes every role the user currently has and assigns
// the given role. Used when an admin changes a user's role.
func (e *Enforcer) ReplaceRolesForUser(user string, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role: %s (valid roles: %s)", role, strings.Join(ValidRoles(), ", "))
	}

	if _, err := e.enforcer.DeleteRolesForUser(user); err != nil {
		return fmt.Errorf("failed to clear roles for user: %w", err)
	}

	return e.AddRoleForUser(user, role)
}

// LoadRolesForUsers loads role assignments for multiple users into the enforcer.
// This is typically called at startup to initialize the enforcer with current user roles.
//
// Example usage:
//
//	roles := map[string]string{
//	  "admin@example.com": "admin",
//	  "cook@example.com": "user",
//	}
//	err := e.LoadRolesForUsers(roles)
func (e *Enforcer) LoadRolesForUsers(userRoles map[string]string) error {
	for user, roleStr := range userRoles {
		role, err := NewRole(roleStr)
		if err != nil {
			return fmt.Errorf("failed to load role for user %s: %w", user, err)
		}
		if err := e.AddRoleForUser(user, role); err != nil {
			return fmt.Errorf("failed to load role for user %s: %w", user, err)
		}
	}

	e.logger.Debug("loaded user roles", "count", len(userRoles))
	return nil
}

// GetRolesForUser returns all roles assigned to a user.
func (e *Enforcer) GetRolesForUser(user string) ([]string, error) {
	roles, err := e.enforcer.GetRolesForUser(user)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles for user: %w", err)
	}
	return roles, nil
}
