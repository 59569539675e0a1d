package roles

import "testing"

func TestRank_Ordering(t *testing.T) {
	ordered := []string{Guest, Member, MJ, Admin, Owner}
	for i := 1; i < len(ordered); i++ {
		if Rank(ordered[i-1]) >= Rank(ordered[i]) {
			t.Errorf("Expected %s to rank below %s", ordered[i-1], ordered[i])
		}
	}
}

func TestHasAtLeast_AllPairs(t *testing.T) {
	all := []string{Guest, Member, MJ, Admin, Owner}
	for _, a := range all {
		for _, b := range all {
			expected := Rank(a) >= Rank(b)
			if HasAtLeast(a, b) != expected {
				t.Errorf("HasAtLeast(%s, %s) = %v, want %v", a, b, !expected, expected)
			}
		}
	}
}

func TestRank_UnknownRole(t *testing.T) {
	if Rank("") >= Rank(Guest) {
		t.Error("Expected empty role to rank below guest")
	}
	if HasAtLeast("sorcerer", Guest) {
		t.Error("Expected unknown role to have no permission")
	}
}

func TestHasAtLeast_Transitive(t *testing.T) {
	// owner >= admin and admin >= mj implies owner >= mj
	if !HasAtLeast(Owner, Admin) || !HasAtLeast(Admin, MJ) || !HasAtLeast(Owner, MJ) {
		t.Error("Hierarchy is not transitive")
	}
}
