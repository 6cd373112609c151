package tags

// NodeKey is the identity a node is keyed by in Storage: pointer identity
// of the concrete node value. VFS node types satisfy this implicitly since
// Go interface values holding a pointer compare equal iff the pointers do.
type NodeKey = any

// Storage maps node identity to a TagSet.
type Storage struct {
	byNode map[NodeKey]*TagSet
}

func NewStorage() *Storage {
	return &Storage{byNode: make(map[NodeKey]*TagSet)}
}

func (s *Storage) get(node NodeKey, create bool) *TagSet {
	ts, ok := s.byNode[node]
	if !ok {
		if !create {
			return nil
		}
		ts = &TagSet{}
		s.byNode[node] = ts
	}
	return ts
}

func (s *Storage) AddTag(node NodeKey, id TagID) {
	if id == TagInvalid {
		return
	}
	s.get(node, true).Insert(id)
}

func (s *Storage) RemoveTag(node NodeKey, id TagID) {
	if ts := s.get(node, false); ts != nil {
		ts.Erase(id)
	}
}

func (s *Storage) HasTag(node NodeKey, id TagID) bool {
	if ts := s.get(node, false); ts != nil {
		return ts.Contains(id)
	}
	return false
}

// GetTags returns nil if node carries no tags.
func (s *Storage) GetTags(node NodeKey) *TagSet {
	return s.get(node, false)
}

// ClearTags must be called when a node is removed from the VFS (§4.H).
func (s *Storage) ClearTags(node NodeKey) {
	delete(s.byNode, node)
}

// FindByTag enumerates every keyed node whose TagSet contains id.
func (s *Storage) FindByTag(id TagID) []NodeKey {
	var out []NodeKey
	for node, ts := range s.byNode {
		if ts.Contains(id) {
			out = append(out, node)
		}
	}
	return out
}

// FindByTags enumerates nodes matching the required TagSet: all of it if
// matchAll, otherwise any single tag in it.
func (s *Storage) FindByTags(required TagSet, matchAll bool) []NodeKey {
	var out []NodeKey
	for node, ts := range s.byNode {
		var match bool
		if matchAll {
			match = required.IsSubsetOf(*ts)
		} else {
			match = !required.Intersect(*ts).Empty()
		}
		if match {
			out = append(out, node)
		}
	}
	return out
}
