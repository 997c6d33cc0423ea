package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/LexCase-Intelligence/internal/config"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

var errKafkaDisabled = errors.New(errors.ErrCodeFeatureDisabled, "kafka is disabled; set kafka.enabled and kafka.brokers")

func newWorkerCmd() *cobra.Command {
	var ensureTopics bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume analysis requests from Kafka",
		Long: `Worker joins the configured consumer group on the request topic and runs one
analysis per request.  Requests that keep failing are parked on the
dead-letter topic.  It runs until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config
			if !cfg.Kafka.Enabled {
				return errKafkaDisabled
			}
			log := cliCtx.Logger

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if ensureTopics {
				if err := provisionTopics(ctx, cfg.Kafka, log); err != nil {
					return err
				}
			}

			app, err := cliCtx.OpenApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			consumer, err := kafka.NewConsumer(cfg.Kafka, app.Producer, log)
			if err != nil {
				return err
			}
			consumer.Subscribe(cfg.Kafka.RequestTopic, kafka.AnalysisRequestHandler(app.Service, log))
			if err := consumer.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			log.Info("worker stopping",
				logging.Int64("processed", consumer.Processed()),
				logging.Int64("dead_lettered", consumer.DeadLettered()))
			return consumer.Close()
		},
	}

	cmd.Flags().BoolVar(&ensureTopics, "ensure-topics", false, "create the event, request and dead-letter topics before consuming")
	return cmd
}

func provisionTopics(ctx context.Context, cfg config.KafkaConfig, log logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, log)
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg))
}

func newEnqueueCmd() *cobra.Command {
	var (
		force       bool
		requestedBy string
	)

	cmd := &cobra.Command{
		Use:   "enqueue <case-id>...",
		Short: "Queue cases for analysis by the worker",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if !cliCtx.Config.Kafka.Enabled {
				return errKafkaDisabled
			}
			if requestedBy == "" {
				requestedBy = defaultRequester()
			}

			ctx, cancel := withTimeout(cmd, cliCtx)
			defer cancel()

			requester, err := cliCtx.newRequester(cliCtx.Config.Kafka, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer requester.Close()

			now := time.Now().UTC()
			for _, caseID := range args {
				req := kafka.AnalysisRequestedPayload{CaseID: caseID, Force: force, RequestedBy: requestedBy, RequestedAt: now}
				if err := requester.RequestAnalysis(ctx, req); err != nil {
					return fmt.Errorf("enqueue %s: %w", caseID, err)
				}
				PrintSuccess(cmd, fmt.Sprintf("queued analysis of %s", caseID))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "ask the worker to ignore the cached analysis")
	cmd.Flags().StringVar(&requestedBy, "requested-by", "", "requester recorded on the event (default: $USER)")
	return cmd
}

func defaultRequester() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "lexcase-cli"
}

//Personal.AI order the ending
