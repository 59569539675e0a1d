// Package roles is the single source of truth for the organization role
// hierarchy. Every permission check in the application compares roles through
// Rank/HasAtLeast instead of re-deriving the ordering at the call site.
package roles

const (
	Guest  = "guest"
	Member = "member"
	MJ     = "mj"
	Admin  = "admin"
	Owner  = "owner"
)

var ranks = map[string]int{
	Guest:  0,
	Member: 1,
	MJ:     2,
	Admin:  3,
	Owner:  4,
}

// Rank returns the position of a role in the hierarchy. Unknown or absent
// roles rank below guest, which reads as "no permission".
func Rank(role string) int {
	if r, ok := ranks[role]; ok {
		return r
	}
	return -1
}

func HasAtLeast(userRole, requiredRole string) bool {
	return Rank(userRole) >= Rank(requiredRole)
}

func Valid(role string) bool {
	_, ok := ranks[role]
	return ok
}
