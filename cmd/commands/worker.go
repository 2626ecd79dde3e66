/*
Copyright 2024 The Paneflow Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/paneflow/paneflow/pkg/introspect"
	"github.com/paneflow/paneflow/pkg/shared/logging"
	"github.com/paneflow/paneflow/pkg/worker"
	"github.com/paneflow/paneflow/pkg/worker/client"
)

// NewWorkerCommand returns the command starting the execution loop plus
// the introspection server. Configuration comes from PANEFLOW_* env vars.
func NewWorkerCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "worker",
		Short: "Start the execution loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			v.SetEnvPrefix("paneflow")
			v.AutomaticEnv()
			v.SetDefault("poll_interval", time.Second)
			v.SetDefault("progress_report_period", 5*time.Second)
			v.SetDefault("introspect_port", 8070)

			controllerURL := v.GetString("controller_url")
			if controllerURL == "" {
				return fmt.Errorf("required environment variable 'PANEFLOW_CONTROLLER_URL' not defined")
			}
			workerID := v.GetString("worker_id")
			if workerID == "" {
				workerID = uuid.New().String()
			}

			log := logging.NewLogger().Named("worker").With("workerID", workerID)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx = logging.WithLogger(ctx, log)
			log.Infow("Starting worker", "controllerURL", controllerURL)

			workUnitClient := client.NewHTTPWorkUnitClient(controllerURL, workerID)
			w := worker.NewWorker(ctx, workUnitClient,
				worker.WithWorkerID(workerID),
				worker.WithPollInterval(v.GetDuration("poll_interval")),
				worker.WithProgressReportPeriod(v.GetDuration("progress_report_period")))
			w.RegisterExecutor("noop", noopExecutorFactory)

			introspectServer := introspect.NewServer(introspect.WithPort(v.GetInt("introspect_port")))
			shutdown, err := introspectServer.Start(ctx)
			if err != nil {
				return fmt.Errorf("failed to start introspection server: %w", err)
			}
			defer func() {
				cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = shutdown(cctx)
			}()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return w.Run(gctx)
			})
			return g.Wait()
		},
	}
	return command
}

// noopExecutor drains a work item without doing anything, used for
// controller connectivity checks.
type noopExecutor struct{}

func noopExecutorFactory(_ context.Context, _ *worker.WorkItem) (worker.WorkExecutor, error) {
	return &noopExecutor{}, nil
}

func (e *noopExecutor) Execute(_ context.Context) error { return nil }

func (e *noopExecutor) Progress() *worker.Progress { return &worker.Progress{PercentComplete: 100} }

func (e *noopExecutor) Counters() []worker.Counter { return nil }

func (e *noopExecutor) Close() error { return nil }
