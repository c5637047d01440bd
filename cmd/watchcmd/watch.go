// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package watchcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/luxfi/dotcli/pkg/application"
	"github.com/luxfi/dotcli/pkg/blockwatch"
	"github.com/luxfi/dotcli/pkg/chain"
	"github.com/luxfi/dotcli/pkg/config"
	"github.com/luxfi/dotcli/pkg/constants"
	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/prompts"
	"github.com/luxfi/dotcli/pkg/substrate"
	"github.com/luxfi/dotcli/pkg/ux"
	"github.com/spf13/cobra"
)

var (
	app *application.DotCLI

	networkNames []string
	kafkaBroker  string
	kafkaTopic   string
	outDir       string
	quietBlocks  bool
)

var (
	errNoNetworks = errors.New("no networks selected")

	// statusInterval is how often the chain standings are printed.
	statusInterval = constants.WatchStatusInterval
)

// dotcli watch
func NewCmd(injectedApp *application.DotCLI) *cobra.Command {
	app = injectedApp

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow finalized blocks on several chains",
		Long: `Subscribe to finalized heads on one or more networks at once and record
every block until interrupted with Ctrl-C.

Each block is appended to log.txt, each of its extrinsics to pallets.txt and
each runtime event to events.txt in ~/.dotcli/watch (or --out). Pallet,
call and event names are read from the chain's runtime metadata. With --kafka-broker every block is also
published as JSON, keyed by chain name. The highest and lowest height of
every chain are printed periodically and on exit.

Without --networks you are asked which networks to watch; non-interactive
runs watch Westend and Westend People.

Examples:
  dotcli watch
  dotcli watch --networks westend,westend-people --kafka-broker localhost:9092`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{constants.LongRunningAnnotation: "true"},
		RunE:        runWatch,
	}
	cmd.Flags().StringSliceVar(&networkNames, "networks", nil, "networks to watch (westend, westend-people, local)")
	cmd.Flags().StringVar(&kafkaBroker, "kafka-broker", "", "publish blocks to this Kafka broker")
	cmd.Flags().StringVar(&kafkaTopic, "kafka-topic", "", fmt.Sprintf("Kafka topic (default %q)", constants.DefaultKafkaTopic))
	cmd.Flags().StringVar(&outDir, "out", "", "directory for log.txt, pallets.txt and events.txt (default ~/.dotcli/watch)")
	cmd.Flags().BoolVar(&quietBlocks, "quiet-blocks", false, "do not print every block, only the standings")
	return cmd
}

func parseNetworks(names []string) ([]models.Network, error) {
	var networks []models.Network
	seen := map[models.Network]bool{}
	for _, name := range names {
		n := models.NetworkFromString(name)
		if n == models.Undefined {
			return nil, fmt.Errorf("unknown network %q", name)
		}
		if !seen[n] {
			seen[n] = true
			networks = append(networks, n)
		}
	}
	return networks, nil
}

func selectNetworks() ([]models.Network, error) {
	if len(networkNames) > 0 {
		return parseNetworks(networkNames)
	}
	defaults := []models.Network{models.Westend, models.WestendPeople}
	if !prompts.IsInteractive() {
		return defaults, nil
	}
	var options []string
	for _, n := range models.AllNetworks() {
		options = append(options, n.String())
	}
	names, cancelled, err := prompts.CaptureListDecision(
		app.Prompt,
		"Which networks should be watched?",
		func(prompt string) (string, error) {
			return app.Prompt.CaptureList(prompt, options)
		},
		"Network",
		"Network",
	)
	if err != nil {
		return nil, err
	}
	if cancelled {
		return nil, errNoNetworks
	}
	if len(names) == 0 {
		return defaults, nil
	}
	return parseNetworks(names)
}

// buildSink opens the file sink and, when a broker is configured, the Kafka
// sink next to it.
func buildSink() (blockwatch.Sink, error) {
	dir := outDir
	if dir == "" {
		dir = app.GetWatchDir()
	}
	files, err := blockwatch.NewFileSink(dir)
	if err != nil {
		return nil, err
	}
	broker := strings.TrimSpace(kafkaBroker)
	if broker == "" {
		broker = app.Conf.GetConfigStringValue(config.KafkaBrokerKey)
	}
	if broker == "" {
		return files, nil
	}
	topic := kafkaTopic
	if topic == "" {
		topic = app.Conf.GetConfigStringValue(config.KafkaTopicKey)
	}
	if topic == "" {
		topic = constants.DefaultKafkaTopic
	}
	ux.Logger.PrintToUser("Publishing blocks to Kafka %s, topic %s", broker, topic)
	return blockwatch.MultiSink{files, blockwatch.NewKafkaSink(broker, topic, app.Log)}, nil
}

// openSources connects to every network. On failure the sessions opened so
// far are closed.
func openSources(ctx context.Context, networks []models.Network) ([]blockwatch.Source, func(), error) {
	var (
		sessions []*chain.Session
		sources  []blockwatch.Source
	)
	closeAll := func() {
		for _, s := range sessions {
			_ = s.Close()
		}
	}
	for _, n := range networks {
		c, err := app.Chain(n)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		s, err := chain.Open(ctx, c.Endpoint, app.DialOptions()...)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		sessions = append(sessions, s)
		sources = append(sources, substrate.NewClient(s, c, app.Log))
		ux.Logger.PrintToUser("Connected to %s (%s)", c.Name, c.Endpoint)
	}
	return sources, closeAll, nil
}

func printEvent(e blockwatch.Event, _ blockwatch.Standing) {
	if quietBlocks {
		return
	}
	ux.Logger.PrintToUser("%s, extrinsics: %d, events: %d", e.LogLine(), len(e.Extrinsics), len(e.Events))
}

func printStanding(s blockwatch.Standing) {
	if len(s.Chains) == 0 {
		return
	}
	if err := ux.PrintStanding(ux.Logger.Writer(), s); err != nil {
		app.Log.Warn("failed to print standings", "error", err)
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	networks, err := selectNetworks()
	if err != nil {
		return err
	}
	if len(networks) == 0 {
		return errNoNetworks
	}

	sink, err := buildSink()
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			app.Log.Warn("failed to close block sink", "error", err)
		}
	}()

	sources, closeSessions, err := openSources(ctx, networks)
	if err != nil {
		return err
	}
	defer closeSessions()

	w := blockwatch.NewWatcher(sources, sink,
		blockwatch.WithLogger(app.Log),
		blockwatch.WithObserver(printEvent),
	)

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(statusInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				printStanding(w.Standing())
			case <-done:
				return
			}
		}
	}()

	ux.Logger.PrintToUser("Watching finalized blocks, press Ctrl-C to stop")
	runErr := w.Run(ctx)
	ux.Logger.PrintLineSeparator()
	printStanding(w.Standing())
	return runErr
}
