package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"

	"github.com/campusbite/backoffice/pkg/event"
)

const refreshTimeout = 30 * time.Second

// TriggerSubscriber is the part of the event bus the refresher needs.
type TriggerSubscriber interface {
	Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error
}

// Refresher turns realtime triggers into background re-fetches and then tells
// connected browsers to reload. Triggers are neither coalesced nor ordered;
// the snapshot sequencing keeps the newest result.
type Refresher struct {
	subscriber TriggerSubscriber
	service    *Service
	hub        *Hub
	logger     aqm.Logger

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewRefresher(subscriber TriggerSubscriber, service *Service, hub *Hub, logger aqm.Logger) *Refresher {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Refresher{
		subscriber: subscriber,
		service:    service,
		hub:        hub,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (r *Refresher) Start(ctx context.Context) error {
	if r.subscriber == nil {
		r.logger.Info("NATS subscriber not configured, realtime refresh disabled")
		return nil
	}

	for _, name := range event.Triggers {
		name := name
		subject := event.Subject(name)
		handler := func(_ context.Context, msg []byte) error {
			r.handle(name, msg)
			return nil
		}
		if err := r.subscriber.Subscribe(ctx, subject, handler); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
	}

	r.logger.Info("realtime refresher started", "triggers", len(event.Triggers))
	return nil
}

// Stop cancels running refreshes, closes the subscriber when it can be
// closed, and waits for the refreshes until ctx expires.
func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()

	if closer, ok := r.subscriber.(io.Closer); ok {
		r.closeOnce.Do(func() {
			if err := closer.Close(); err != nil {
				r.logger.Error("cannot close subscriber", "error", err)
			}
		})
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Refresher) handle(name string, msg []byte) {
	var trigger event.Trigger
	if len(msg) > 0 {
		if err := json.Unmarshal(msg, &trigger); err != nil {
			r.logger.Debug("trigger payload ignored", "trigger", name, "error", err)
		}
	}
	r.logger.Debug("trigger received", "trigger", name, "source", trigger.Source)
	r.Trigger(name)
}

// Trigger starts one background refresh for the named trigger.
func (r *Refresher) Trigger(name string) {
	r.mu.Lock()
	if r.ctx.Err() != nil {
		r.mu.Unlock()
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(r.ctx, refreshTimeout)
		defer cancel()

		if err := r.service.RefreshOrders(ctx); err != nil {
			r.logger.Error("realtime refresh failed", "trigger", name, "error", err)
			return
		}
		if r.hub != nil {
			r.hub.Broadcast(name)
		}
	}()
}
