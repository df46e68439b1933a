package memory

import (
	"context"
	"sync"

	"github.com/xenking/dkopi/internal/domain/admin"
)

// Settings keeps the store settings in memory.
type Settings struct {
	mu       sync.RWMutex
	settings admin.Settings
}

// NewSettings starts from admin.DefaultSettings.
func NewSettings() *Settings {
	return &Settings{settings: admin.DefaultSettings()}
}

func (r *Settings) Load(context.Context) (admin.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings, nil
}

func (r *Settings) Save(_ context.Context, s admin.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = s
	return nil
}
