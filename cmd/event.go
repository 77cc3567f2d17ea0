package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal/core/events"
	"github.com/frahmantamala/restaurant-ops/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish sample schedule events to check subscribers and the kafka forwarder`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a sample schedule event",
	Long:      `Publish a sample schedule event (` + strings.Join(events.ScheduleEventTypes, ", ") + `) to the event bus`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: events.ScheduleEventTypes,
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishSampleEvent(cmd.Context(), args[0])
	},
}

var (
	eventEmployeeID int64
	eventForward    bool
)

func sampleEvent(eventType string, employeeID int64) (events.Event, error) {
	date := time.Now().UTC().Format("2006-01-02")
	switch eventType {
	case events.EventTypeShiftScheduled:
		return events.NewShiftScheduledEvent(1, employeeID, date, "09:00", "17:00"), nil
	case events.EventTypeShiftCancelled:
		return events.NewShiftCancelledEvent(1, employeeID, date), nil
	case events.EventTypeTimeOffRequested:
		return events.NewTimeOffRequestedEvent(1, employeeID, date, date), nil
	case events.EventTypeTimeOffApproved:
		return events.NewTimeOffDecidedEvent(1, employeeID, true, 1, []int64{1}), nil
	case events.EventTypeTimeOffDenied:
		return events.NewTimeOffDecidedEvent(1, employeeID, false, 1, nil), nil
	}
	return nil, fmt.Errorf("unknown event type %q", eventType)
}

func publishSampleEvent(ctx context.Context, eventType string) error {
	event, err := sampleEvent(eventType, eventEmployeeID)
	if err != nil {
		return err
	}

	lg := logger.LoggerWrapper()
	eventBus := events.NewEventBus(lg)

	eventBus.SubscribeAll(func(ctx context.Context, event events.Event) error {
		lg.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	if eventForward {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		kc := cfg.Messaging.Kafka
		if !kc.Enabled {
			return fmt.Errorf("messaging.kafka is disabled in config")
		}
		forwarder := events.NewKafkaForwarder(events.NewKafkaWriter(kc.Brokers, kc.Topic), lg)
		forwarder.Register(eventBus)
		defer forwarder.Close()
	}

	lg.Info("publishing sample event", "event_type", eventType, "event_id", event.EventID())

	// PublishSync so the forwarder has written before the writer closes.
	if err := eventBus.PublishSync(ctx, event); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	lg.Info("sample event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventEmployeeID, "employee-id", 1, "employee the sample event refers to")
	publishEventCmd.Flags().BoolVar(&eventForward, "kafka", false, "forward the event to the configured kafka topic")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
