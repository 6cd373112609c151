package tags

import "testing"

func TestRegistryRoundTrip(t *testing.T) {
	r := NewRegistry()
	a := r.RegisterTag("fast")
	b := r.RegisterTag("cached")
	if a == TagInvalid || b == TagInvalid {
		t.Fatal("registered ids must be non-zero")
	}
	if r.RegisterTag("fast") != a {
		t.Fatal("RegisterTag must be idempotent")
	}
	if r.GetTagID("nope") != TagInvalid {
		t.Fatal("unknown tag must resolve to TagInvalid")
	}
	if r.GetTagName(a) != "fast" {
		t.Fatalf("GetTagName(a) = %q", r.GetTagName(a))
	}
	all := r.AllTags()
	if len(all) != 2 || all[0] != "fast" || all[1] != "cached" {
		t.Fatalf("AllTags = %v", all)
	}
}

func TestTagSetAlgebra(t *testing.T) {
	a := NewTagSet(1, 2, 3)
	b := NewTagSet(2, 3, 4)

	if !a.Union(b).Equal(NewTagSet(1, 2, 3, 4)) {
		t.Fatal("union mismatch")
	}
	if !a.Intersect(b).Equal(NewTagSet(2, 3)) {
		t.Fatal("intersect mismatch")
	}
	if !a.Difference(b).Equal(NewTagSet(1)) {
		t.Fatal("difference mismatch")
	}
	if !a.SymmetricDifference(b).Equal(NewTagSet(1, 4)) {
		t.Fatal("symmetric difference mismatch")
	}
	if !a.Union(b).Equal(b.Union(a)) {
		t.Fatal("union must commute")
	}
	if !a.Intersect(b).Equal(b.Intersect(a)) {
		t.Fatal("intersect must commute")
	}
	if !a.Difference(a).Empty() {
		t.Fatal("A - A must be empty")
	}
	if !a.SymmetricDifference(a).Empty() {
		t.Fatal("A ^ A must be empty")
	}
}

func TestTagSetDistributivity(t *testing.T) {
	a, b, c := NewTagSet(1, 5), NewTagSet(2, 5), NewTagSet(3, 5)
	lhs := a.Union(b.Intersect(c))
	rhs := a.Union(b).Intersect(a.Union(c))
	if !lhs.Equal(rhs) {
		t.Fatalf("distributivity failed: %v vs %v", lhs.ToVector(), rhs.ToVector())
	}
}

func TestTagSetEqualityLengthInsensitive(t *testing.T) {
	a := TagSet{chunks: []uint64{0b101}}
	b := TagSet{chunks: []uint64{0b101, 0, 0}}
	if !a.Equal(b) {
		t.Fatal("trailing zero chunks must not affect equality")
	}
}

func TestTagInvalidNeverInserted(t *testing.T) {
	var s TagSet
	s.Insert(TagInvalid)
	if !s.Empty() {
		t.Fatal("inserting TagInvalid must be a no-op")
	}
	if s.Contains(TagInvalid) {
		t.Fatal("TagInvalid must never be contained")
	}
}

func TestSubsetSuperset(t *testing.T) {
	a := NewTagSet(1, 2)
	b := NewTagSet(1, 2, 3)
	if !a.IsSubsetOf(b) || a.IsSupersetOf(b) {
		t.Fatal("subset/superset mismatch")
	}
	if !b.IsSupersetOf(a) {
		t.Fatal("b must be a superset of a")
	}
}

func TestStorage(t *testing.T) {
	type node struct{ name string }
	n1, n2 := &node{"a"}, &node{"b"}
	st := NewStorage()

	st.AddTag(n1, 1)
	st.AddTag(n1, 2)
	st.AddTag(n2, 2)

	if !st.HasTag(n1, 1) {
		t.Fatal("n1 should have tag 1")
	}
	if st.HasTag(n2, 1) {
		t.Fatal("n2 should not have tag 1")
	}

	byAll := st.FindByTags(NewTagSet(2), true)
	if len(byAll) != 2 {
		t.Fatalf("expected both nodes, got %d", len(byAll))
	}

	st.RemoveTag(n1, 1)
	if st.HasTag(n1, 1) {
		t.Fatal("tag should have been removed")
	}

	st.ClearTags(n1)
	if st.GetTags(n1) != nil {
		t.Fatal("ClearTags must drop the node entirely")
	}
}
