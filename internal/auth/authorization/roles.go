package authorization

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Role is a typed string representing a user role in the authorization system.
// Valid roles: admin, user.
type Role string

// Role constants for Casbin role-based access control.
// These correspond to the roles defined in casbin/policy.csv.
const (
	// RoleAdmin can manage users in addition to everything RoleUser can do.
	RoleAdmin Role = "admin"

	// RoleUser can manage their own recipes, tags, ingredients, and profile.
	RoleUser Role = "user"
)

// DefaultRole is assigned to self-registered users.
const DefaultRole = RoleUser

// Action is a typed string representing an action in the authorization system.
type Action string

// Action constants for Casbin enforcement.
const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Object constants for Casbin enforcement. Recipes, tags, and ingredients are
// scoped to their owner at the storage layer, so enforcement on those objects
// only gates whether the role may use the API surface at all.
const (
	ObjectUsers       = "users"
	ObjectProfile     = "profile"
	ObjectRecipes     = "recipes"
	ObjectTags        = "tags"
	ObjectIngredients = "ingredients"
)

// NewRole creates a new Role from a string, validating it against known roles.
// Returns an error if the role string is empty or not a valid role.
func NewRole(roleStr string) (Role, error) {
	if roleStr == "" {
		return "", errors.New("role cannot be empty")
	}
	role := Role(roleStr)
	if !role.Valid() {
		return "", fmt.Errorf("invalid role: %s (valid roles: %s)",
			roleStr, strings.Join(ValidRoles(), ", "))
	}
	return role, nil
}

// Valid checks if the role is a valid known role.
func (r Role) Valid() bool {
	return slices.Contains([]Role{RoleAdmin, RoleUser}, r)
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// FormatRole converts a role to the Casbin role format.
// Example: FormatRole(RoleAdmin) returns "role:admin".
func FormatRole(role Role) string {
	return "role:" + role.String()
}

// ValidRoles returns a list of all valid role names as strings.
func ValidRoles() []string {
	return []string{RoleAdmin.String(), RoleUser.String()}
}

// IsValidRole checks if a role name string is valid.
func IsValidRole(roleStr string) bool {
	role := Role(roleStr)
	return role.Valid()
}
