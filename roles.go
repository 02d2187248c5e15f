package identity

// roleHierarchy orders the closed role set; higher values subsume lower.
var roleHierarchy = map[UserRole]int{
	RoleStandardUser: 0,
	RoleAdmin:        1,
}

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	_, ok := roleHierarchy[r]
	return ok
}

// RoleIsAtLeast checks if the role meets the minimum required level
func RoleIsAtLeast(r, minRole UserRole) bool {
	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// RoleAllowedBy reports whether the role appears in the allow-list. An
// empty allow-list admits every valid role. Callers go through this
// instead of comparing role literals at the call site.
func RoleAllowedBy(r UserRole, allowed []UserRole) bool {
	if !IsValidRole(r) {
		return false
	}

	if len(allowed) == 0 {
		return true
	}

	for _, a := range allowed {
		if r == a {
			return true
		}
	}

	return false
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleStandardUser,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}
