package sync

import (
	"log/slog"
	"sync"

	"github.com/surajmeruva0786/restosaas2/internal/metrics"
	"github.com/surajmeruva0786/restosaas2/internal/store"
)

// Manager hands out one TenantContext per resolved tenant id. The HTTP layer
// serves many tenants concurrently, so instead of retargeting a single
// context it keeps one live context per tenant; SetTenant still carries the
// switch semantics for any context that is retargeted.
type Manager struct {
	gw      store.Gateway
	log     *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	contexts map[string]*TenantContext
}

func NewManager(gw store.Gateway, logger *slog.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		gw:       gw,
		log:      logger,
		metrics:  m,
		contexts: make(map[string]*TenantContext),
	}
}

// Context returns the live context for a tenant, opening its subscriptions
// on first use.
func (m *Manager) Context(tenantID string) *TenantContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.contexts[tenantID]; ok {
		return c
	}
	c := NewTenantContext(m.gw, m.log, m.metrics)
	c.SetTenant(tenantID)
	m.contexts[tenantID] = c
	return c
}

// Release tears down the context for a tenant, if any.
func (m *Manager) Release(tenantID string) {
	m.mu.Lock()
	c, ok := m.contexts[tenantID]
	delete(m.contexts, tenantID)
	m.mu.Unlock()
	if ok {
		c.Close()
	}
}

// Close tears down every context.
func (m *Manager) Close() {
	m.mu.Lock()
	contexts := m.contexts
	m.contexts = make(map[string]*TenantContext)
	m.mu.Unlock()
	for _, c := range contexts {
		c.Close()
	}
}
