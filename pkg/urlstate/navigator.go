package urlstate

import "sync"

// MemoryNavigator is an in-process Navigator backed by plain maps. It
// serves tests and headless callers that have no real routing layer.
type MemoryNavigator struct {
	mu     sync.Mutex
	path   string
	params map[string]string
	pushes int
}

// NewMemoryNavigator starts at the given path with no query parameters.
func NewMemoryNavigator(path string) *MemoryNavigator {
	return &MemoryNavigator{path: path, params: make(map[string]string)}
}

func (m *MemoryNavigator) CurrentPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}

func (m *MemoryNavigator) QueryParams() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.params))
	for k, v := range m.params {
		out[k] = v
	}
	return out
}

func (m *MemoryNavigator) PushPath(path string, params map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.path = path
	m.params = make(map[string]string, len(params))
	for k, v := range params {
		m.params[k] = v
	}
	m.pushes++
	return nil
}

// Pushes reports how many navigations have been performed.
func (m *MemoryNavigator) Pushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushes
}
