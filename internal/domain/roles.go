package domain

type Role string

const (
	// Regular account; default when a draft omits the role.
	RoleUser Role = "user"
	// Administrative account.
	RoleAdmin Role = "admin"
)

func IsValidRole(r string) bool {
	return r == string(RoleUser) || r == string(RoleAdmin)
}
