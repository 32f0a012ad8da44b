package bot

import (
	"strings"
	"sync"
)

// sessions holds per-user chat state. It is intentionally in-memory: losing
// a model choice on restart only means falling back to the default model.
type sessions struct {
	mu     sync.RWMutex
	models map[int64]string
}

func newSessions() *sessions {
	return &sessions{models: make(map[int64]string)}
}

// ModelFor returns the user's chosen model, or empty when the default
// should be used.
func (s *sessions) ModelFor(userID int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.models[userID]
}

func (s *sessions) SetModel(userID int64, model string) {
	model = strings.TrimSpace(model)

	s.mu.Lock()
	defer s.mu.Unlock()

	if model == "" {
		delete(s.models, userID)
		return
	}

	s.models[userID] = model
}
