package eventstream

import "sync"

// Registry owns the live Stream for every currently-running task, so the
// Session Manager (C12) can open one at task creation and look it up again
// for attach/status without threading the *Stream through every call site.
type Registry struct {
	mu      sync.Mutex
	streams map[string]*Stream
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{streams: make(map[string]*Stream)}
}

// Open creates and registers a new stream for taskID, replacing any prior
// stream registered under the same id.
func (r *Registry) Open(taskID string, bufferSize int) *Stream {
	s := New(taskID, bufferSize)
	r.mu.Lock()
	r.streams[taskID] = s
	r.mu.Unlock()
	return s
}

// Get returns the stream registered for taskID, if any.
func (r *Registry) Get(taskID string) (*Stream, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[taskID]
	return s, ok
}

// Close closes and unregisters the stream for taskID, if one exists.
func (r *Registry) Close(taskID string) {
	r.mu.Lock()
	s, ok := r.streams[taskID]
	delete(r.streams, taskID)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// CloseAll closes and unregisters every live stream, used at process
// shutdown so no subscriber goroutine is left blocked on a channel no
// task will ever write to again.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	streams := make([]*Stream, 0, len(r.streams))
	for id, s := range r.streams {
		streams = append(streams, s)
		delete(r.streams, id)
	}
	r.mu.Unlock()
	for _, s := range streams {
		s.Close()
	}
}
