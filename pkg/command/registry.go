package command

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mattsp1290/hystrix-go/internal/clock"
	"github.com/mattsp1290/hystrix-go/pkg/breaker"
	"github.com/mattsp1290/hystrix-go/pkg/config"
	"github.com/mattsp1290/hystrix-go/pkg/metrics"
	"github.com/mattsp1290/hystrix-go/pkg/pool"
)

// Registry holds the process-wide singletons spec.md §3 mandates: exactly
// one CommandMetrics, one CircuitBreaker, and one Pool per key, for the
// life of the process. Creation is idempotent and safe under concurrent
// callers, replacing the metaclass-keyed singleton registries of
// hystrix-py's CommandMetaclass.
type Registry struct {
	mu sync.Mutex

	metricsByCommand map[string]*metrics.CommandMetrics
	breakersByCommand map[string]*breaker.CircuitBreaker
	poolsByKey        map[string]*pool.Pool
	poolMetricsByKey  map[string]*metrics.PoolMetrics
	groupMembers      map[string]map[string]struct{}

	clk    clock.Clock
	logger *zap.Logger
}

// NewRegistry constructs an empty Registry. clk is threaded through to
// every CommandMetrics and CircuitBreaker this registry creates, so tests
// can share one Mock clock across an entire command graph.
func NewRegistry(clk clock.Clock, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		metricsByCommand:  make(map[string]*metrics.CommandMetrics),
		breakersByCommand: make(map[string]*breaker.CircuitBreaker),
		poolsByKey:        make(map[string]*pool.Pool),
		poolMetricsByKey:  make(map[string]*metrics.PoolMetrics),
		groupMembers:      make(map[string]map[string]struct{}),
		clk:               clk,
		logger:            logger,
	}
}

func (r *Registry) metricsFor(commandKey string, props *config.Properties, notifier metrics.EventNotifier) (*metrics.CommandMetrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cm, ok := r.metricsByCommand[commandKey]; ok {
		return cm, nil
	}
	cm, err := metrics.New(commandKey, r.clk, props, notifier)
	if err != nil {
		return nil, err
	}
	r.metricsByCommand[commandKey] = cm
	return cm, nil
}

func (r *Registry) breakerFor(commandKey string, health breaker.HealthSource, props *config.Properties) *breaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakersByCommand[commandKey]; ok {
		return cb
	}
	cb := breaker.New(commandKey, r.clk, health, props, r.logger)
	r.breakersByCommand[commandKey] = cb
	return cb
}

func (r *Registry) poolFor(poolKey string, props *config.Properties) (*pool.Pool, *metrics.PoolMetrics) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.poolsByKey[poolKey]; ok {
		return p, r.poolMetricsByKey[poolKey]
	}
	pm := metrics.NewPoolMetrics(poolKey)
	p := pool.New(poolKey, defaultMaxWorkers, defaultQueueSize, pm)
	r.poolsByKey[poolKey] = p
	r.poolMetricsByKey[poolKey] = pm
	return p, pm
}

func (r *Registry) registerGroupMember(groupKey, commandKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.groupMembers[groupKey]
	if !ok {
		members = make(map[string]struct{})
		r.groupMembers[groupKey] = members
	}
	members[commandKey] = struct{}{}
}

// CommandsInGroup returns every command key registered under groupKey, in
// no particular order. This supplements spec.md §3's GroupKey defaulting
// rule with the member-enumeration ability hystrix-py's Group class
// provides implicitly through its own metaclass registry.
func (r *Registry) CommandsInGroup(groupKey string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.groupMembers[groupKey]
	out := make([]string, 0, len(members))
	for k := range members {
		out = append(out, k)
	}
	return out
}
