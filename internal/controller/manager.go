// Package controller runs reconciliation loops over watched resources:
// document indexing and thread topic generation.
package controller

import (
	"context"

	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/store"
	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

// Reconciler processes one resource key. Errors trigger a backoff
// retry; a nil return marks the key done.
type Reconciler interface {
	Reconcile(ctx context.Context, key string) error
}

type registration struct {
	name       string
	reconciler Reconciler
	queue      *WorkQueue
	kinds      []string
	cancel     context.CancelFunc
}

// Manager wires store watches into per-controller work queues and runs
// one worker per controller.
type Manager struct {
	store       store.Store
	controllers []*registration
	logger      *zap.Logger
}

// NewManager creates a manager over the given store.
func NewManager(s store.Store, logger *zap.Logger) *Manager {
	return &Manager{store: s, logger: logger}
}

// Register adds a controller that reconciles events for the given
// kinds. Must be called before Start.
func (m *Manager) Register(name string, r Reconciler, kinds ...string) {
	m.controllers = append(m.controllers, &registration{
		name:       name,
		reconciler: r,
		queue:      NewWorkQueue(),
		kinds:      kinds,
	})
}

// Start launches every registered controller: a watch feeder per kind
// plus a worker draining the queue. It returns immediately.
func (m *Manager) Start(ctx context.Context) {
	for _, reg := range m.controllers {
		cctx, cancel := context.WithCancel(ctx)
		reg.cancel = cancel

		m.logger.Info("starting controller",
			zap.String("controller", reg.name),
			zap.Strings("kinds", reg.kinds),
		)

		for _, kind := range reg.kinds {
			events, stop := m.store.Watch(store.KindPrefix(kind))
			go m.feed(cctx, reg, events, stop)
		}
		go m.work(cctx, reg)
	}
}

// Stop cancels all controllers and closes their queues.
func (m *Manager) Stop() {
	for _, reg := range m.controllers {
		m.logger.Info("stopping controller", zap.String("controller", reg.name))
		if reg.cancel != nil {
			reg.cancel()
		}
		reg.queue.Close()
	}
}

func (m *Manager) feed(ctx context.Context, reg *registration, events <-chan v1alpha1.WatchEvent, stop func()) {
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.logger.Debug("watch event",
				zap.String("controller", reg.name),
				zap.String("type", string(ev.Type)),
				zap.String("key", ev.Key),
			)
			reg.queue.Add(ev.Key)
		}
	}
}

func (m *Manager) work(ctx context.Context, reg *registration) {
	for {
		key, ok := reg.queue.Get()
		if !ok {
			return
		}
		select {
		case <-ctx.Done():
			reg.queue.Done(key)
			return
		default:
		}

		if err := reg.reconciler.Reconcile(ctx, key); err != nil {
			m.logger.Error("reconcile failed",
				zap.String("controller", reg.name),
				zap.String("key", key),
				zap.Error(err),
			)
			reg.queue.Fail(key)
			continue
		}
		reg.queue.Done(key)
	}
}
