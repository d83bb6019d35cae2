package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"

	"github.com/campusbite/backoffice/pkg"
	"github.com/campusbite/backoffice/pkg/event"
)

const defaultNATSURL = "nats://localhost:4222"

// Publisher is the part of the bus Emit needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg []byte) error
}

// Emit connects to NATS and publishes one realtime trigger.
func Emit(ctx context.Context, config *aqm.Config, logger aqm.Logger, name string) error {
	publisher, err := pkg.NewNATSPublisher(config.GetStringOrDef("nats.url", defaultNATSURL))
	if err != nil {
		return err
	}
	defer publisher.Close()

	return Publish(ctx, publisher, logger, name, time.Now())
}

// Publish sends the trigger envelope for name on its subject.
func Publish(ctx context.Context, publisher Publisher, logger aqm.Logger, name string, now time.Time) error {
	if !event.IsKnown(name) {
		return fmt.Errorf("unknown trigger %q, expected one of %v", name, event.Triggers)
	}

	msg, err := json.Marshal(event.Trigger{
		Name:       name,
		OccurredAt: now.UTC(),
		Source:     "utils-" + uuid.NewString()[:8],
	})
	if err != nil {
		return fmt.Errorf("encode trigger: %w", err)
	}

	subject := event.Subject(name)
	if err := publisher.Publish(ctx, subject, msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	logger.Info("Trigger published", "trigger", name, "subject", subject)
	return nil
}
