package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module. Counts protection
// lifecycle transitions and protection denials.
type Metrics struct {
	StatusChanges        prometheus.Counter
	Locks                prometheus.Counter
	Unlocks              prometheus.Counter
	Voids                prometheus.Counter
	ProtectionViolations prometheus.Counter
}

// New creates a Metrics instance with all registry module metrics registered.
func New() *Metrics {
	return &Metrics{
		StatusChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_registry_status_changes_total",
			Help: "Total number of registry status transitions",
		}),
		Locks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_registry_locks_total",
			Help: "Total number of registry rows locked",
		}),
		Unlocks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_registry_unlocks_total",
			Help: "Total number of registry rows unlocked",
		}),
		Voids: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_registry_voids_total",
			Help: "Total number of registry rows voided",
		}),
		ProtectionViolations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_registry_protection_violations_total",
			Help: "Total number of mutations denied by protection rules",
		}),
	}
}

// IncrementStatusChanges records a successful status transition.
func (m *Metrics) IncrementStatusChanges() { m.StatusChanges.Inc() }

// IncrementLocks records a successful lock.
func (m *Metrics) IncrementLocks() { m.Locks.Inc() }

// IncrementUnlocks records a successful unlock.
func (m *Metrics) IncrementUnlocks() { m.Unlocks.Inc() }

// IncrementVoids records a successful void.
func (m *Metrics) IncrementVoids() { m.Voids.Inc() }

// IncrementProtectionViolations records a denied mutation.
func (m *Metrics) IncrementProtectionViolations() { m.ProtectionViolations.Inc() }
