package kb

// Snapshot is the read-only view of the knowledge base taken at start-of-run.
// Workers share it without locking; write-back happens after all blocks
// complete.
type Snapshot struct {
	entries map[string]Entry
}

// EmptySnapshot returns a snapshot with no entries, for runs without a
// persisted knowledge base.
func EmptySnapshot() *Snapshot {
	return &Snapshot{entries: make(map[string]Entry)}
}

// Lookup returns the confirmed unit id for a (normalized name, parent key)
// pair, if one exists.
func (s *Snapshot) Lookup(key, parentKey string) (string, bool) {
	e, ok := s.entries[snapKey(key, parentKey)]
	if !ok {
		return "", false
	}
	return e.UnitID, true
}

// Len returns the number of entries in the snapshot.
func (s *Snapshot) Len() int { return len(s.entries) }

func snapKey(key, parentKey string) string {
	return key + "\x1f" + parentKey
}
