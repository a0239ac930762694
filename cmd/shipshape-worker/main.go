package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/shipshapehq/shipshape/pkg/cmd"
	"github.com/shipshapehq/shipshape/pkg/log"
	"github.com/shipshapehq/shipshape/pkg/otelhelper"
	"github.com/shipshapehq/shipshape/pkg/sources"
	"github.com/shipshapehq/shipshape/pkg/sources/kafka"
)

func main() {
	command := &cli.Command{
		Name:                  "shipshape-worker",
		Usage:                 "Consume record feeds and run correction workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Record store URL (redis://, file:// or memory://)",
				Value:   "memory://",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "definitions",
				Usage:   "Path to the YAML definitions file",
				Sources: cli.EnvVars("DEFINITIONS_PATH"),
			},
			&cli.StringFlag{
				Name:    "workflows-dir",
				Usage:   "Directory containing JSON workflow definitions",
				Sources: cli.EnvVars("WORKFLOWS_PATH"),
			},
			&cli.StringSliceFlag{
				Name:    "feed-topics",
				Usage:   "Kafka topics to consume records from (empty disables the feed)",
				Sources: cli.EnvVars("FEED_TOPICS"),
			},
			&cli.StringFlag{
				Name:    "feed-group",
				Usage:   "Kafka consumer group for the record feed",
				Sources: cli.EnvVars("FEED_CONSUMER_GROUP"),
			},
			&cli.StringFlag{
				Name:    "feed-data-type",
				Usage:   "Default data type for feed records",
				Value:   "shipment",
				Sources: cli.EnvVars("FEED_DATA_TYPE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "json",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("worker").With("worker_id", workerID)
			logger.InfoContext(ctx, "Initializing ShipShape Worker")

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			store := cmd.NewRecordStore(command.String("database-url"))
			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close record store", "error", err)
				}
			}()

			engine, err := cmd.NewEngine(logger, cmd.EngineConfig{
				DefinitionsPath: command.String("definitions"),
				WorkflowsDir:    command.String("workflows-dir"),
				Store:           store,
				Publisher:       eventBus,
			})
			if err != nil {
				return err
			}

			var feed sources.Feed
			if topics := command.StringSlice("feed-topics"); len(topics) > 0 {
				var tracer trace.Tracer
				if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
					tracer, err = otelhelper.NewTracer(ctx, "shipshape-worker")
					if err != nil {
						return err
					}
				}

				feed, err = kafka.NewFeed(logger, kafka.Config{
					Topics:        topics,
					ConsumerGroup: command.String("feed-group"),
					DataType:      command.String("feed-data-type"),
					Tracer:        tracer,
				})
				if err != nil {
					return err
				}
			}

			worker := NewWorker(workerID, logger, engine, eventBus, feed)

			if err := worker.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Worker stopped with error", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
