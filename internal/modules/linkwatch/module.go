package linkwatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"warden/internal/audit"
	"warden/internal/config"
	"warden/internal/utils"
)

// Module watches for users posting many link-bearing messages in a short
// window. It only raises an audit signal; containment is the quarantine
// machine's job.
type Module struct {
	mu      sync.Mutex
	windows map[string]*utils.SlidingWindow
	cfg     config.LinkWatchConfig
	audit   *audit.Logger
}

func New(cfg config.LinkWatchConfig, auditLogger *audit.Logger) *Module {
	return &Module{
		windows: make(map[string]*utils.SlidingWindow),
		cfg:     cfg,
		audit:   auditLogger,
	}
}

// HandleMessage records link-bearing messages and reports whether the
// user just crossed the burst threshold.
func (m *Module) HandleMessage(ctx context.Context, guildID, userID, content string) bool {
	if !m.cfg.Enabled || !strings.Contains(content, "http") {
		return false
	}

	window := m.getWindow(guildID + ":" + userID)
	count := window.Add(time.Now())
	if count != m.cfg.Messages {
		return false
	}

	detail := fmt.Sprintf("links=%d window=%ds", count, m.cfg.WindowSeconds)
	m.audit.Log(ctx, audit.LevelWarn, guildID, userID, "link_burst", detail)
	return true
}

func (m *Module) getWindow(key string) *utils.SlidingWindow {
	m.mu.Lock()
	defer m.mu.Unlock()
	window := m.windows[key]
	if window == nil {
		window = utils.NewSlidingWindow(time.Duration(m.cfg.WindowSeconds) * time.Second)
		m.windows[key] = window
	}
	return window
}
