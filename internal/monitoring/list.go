package monitoring

// List is the insertion-ordered set of CCTV keys pinned for side-panel viewing.
// Keys are display labels such as "CCTV-7 (현장)".
type List struct {
	Keys []string `json:"keys"`
}

func (l *List) Contains(key string) bool {
	for _, k := range l.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Add appends key unless present. Reports whether the list changed.
func (l *List) Add(key string) bool {
	if key == "" || l.Contains(key) {
		return false
	}
	l.Keys = append(l.Keys, key)
	return true
}

// Remove deletes key if present. Reports whether the list changed.
func (l *List) Remove(key string) bool {
	for i, k := range l.Keys {
		if k == key {
			l.Keys = append(l.Keys[:i], l.Keys[i+1:]...)
			return true
		}
	}
	return false
}

func (l *List) Len() int {
	return len(l.Keys)
}
