package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"botdash/internal/backend"
	"botdash/internal/common"
	"botdash/internal/control"
	"botdash/internal/logging"
	"botdash/internal/model"
	"botdash/internal/storage"
	"botdash/internal/synchronizer"
	"botdash/internal/tui"
	"botdash/internal/view"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "botctl",
		Usage: "Inspect and control the trading bot backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "Backend base URL",
				Value:   common.DefaultBackendURL,
				Sources: cli.EnvVars(common.EnvBackendURL),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Per-request timeout",
				Value:   5 * time.Second,
				Sources: cli.EnvVars(common.EnvRESTTimeout),
			},
			&cli.StringFlag{
				Name:    "data",
				Usage:   "Directory holding the command journal; empty disables it",
				Sources: cli.EnvVars(common.EnvDataPath),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Sources: cli.EnvVars(common.EnvLogLevel),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.Setup(cmd.String("log-level"), "pretty", os.Stderr)
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show bot status and account summary",
				Action: statusAction,
			},
			{
				Name:  "start",
				Usage: "Start the bot",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "interval",
						Aliases: []string{"i"},
						Usage:   "Kline interval for the run",
						Value:   string(model.DefaultInterval),
					},
				},
				Action: startAction,
			},
			{
				Name:   "stop",
				Usage:  "Stop the bot",
				Action: stopAction,
			},
			{
				Name:  "reset",
				Usage: "Clear backtest data",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: resetAction,
			},
			{
				Name:  "config",
				Usage: "Change symbol and trading mode",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Usage: "Trading symbol, e.g. BTCUSDT"},
					&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "TRADING or TRAINING"},
				},
				Action: configAction,
			},
			{
				Name:  "watch",
				Usage: "Open the terminal dashboard",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "interval",
						Aliases: []string{"i"},
						Value:   string(model.DefaultInterval),
						Sources: cli.EnvVars(common.EnvChartInterval),
					},
					&cli.DurationFlag{
						Name:    "poll",
						Value:   synchronizer.DefaultPeriod,
						Sources: cli.EnvVars(common.EnvPollInterval),
					},
					&cli.StringSliceFlag{
						Name:  "symbols",
						Value: []string{"BTCUSDT", "ETHUSDT"},
					},
					&cli.StringFlag{
						Name:  "log-file",
						Usage: "Where to write logs while the dashboard owns the terminal",
						Value: "botctl.log",
					},
				},
				Action: watchAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "botctl:", err)
		os.Exit(1)
	}
}

func newClient(cmd *cli.Command) *backend.Client {
	return backend.New(cmd.String("backend"), cmd.Duration("timeout"))
}

// newDispatcher prints notices to out and journals commands when a data
// directory is configured. The returned func closes the journal.
func newDispatcher(cmd *cli.Command, client *backend.Client, out io.Writer) (*control.Dispatcher, func()) {
	d := control.NewDispatcher(client, control.NotifierFunc(func(n control.Notice) {
		fmt.Fprintln(out, n.Message)
	}))

	dataPath := cmd.String("data")
	if dataPath == "" {
		return d, func() {}
	}
	store, err := storage.New(dataPath)
	if err != nil {
		log.Warn().Err(err).Msg("command journal unavailable")
		return d, func() {}
	}
	d.SetJournal(store)
	return d, func() { store.Close() }
}

// currentConfig fetches the bot config. Failures are logged and yield a
// zero config so that commands which do not depend on it still go out.
func currentConfig(ctx context.Context, client *backend.Client) (model.BotConfig, bool) {
	cfg, err := client.Status(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not fetch bot status")
		return model.BotConfig{}, false
	}
	return cfg, true
}

func statusAction(ctx context.Context, cmd *cli.Command) error {
	client := newClient(cmd)
	cfg, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("fetch status: %w", err)
	}

	fmt.Printf("%s Simulation Dashboard\n", cfg.TradingMode)
	fmt.Printf("  Symbol:  %s\n", cfg.SelectedSymbol)
	fmt.Printf("  Mode:    %s\n", cfg.TradingMode.Label())
	fmt.Printf("  Status:  %s\n", cfg.Status)

	summary, err := client.Summary(ctx)
	if err != nil {
		return fmt.Errorf("fetch summary: %w", err)
	}
	holdings, err := client.Holdings(ctx)
	if err != nil {
		return fmt.Errorf("fetch holdings: %w", err)
	}

	fmt.Println()
	for _, c := range view.SummaryCards(summary, holdings) {
		fmt.Printf("  %-28s %s %s\n", c.Title, c.Value, c.Unit)
		fmt.Printf("  %-28s %s\n", "", c.Description)
	}
	return nil
}

func startAction(ctx context.Context, cmd *cli.Command) error {
	iv, err := model.ParseInterval(cmd.String("interval"))
	if err != nil {
		return err
	}
	client := newClient(cmd)
	d, closeJournal := newDispatcher(cmd, client, os.Stdout)
	defer closeJournal()

	cfg, _ := currentConfig(ctx, client)
	return d.Start(ctx, cfg, iv)
}

func stopAction(ctx context.Context, cmd *cli.Command) error {
	client := newClient(cmd)
	d, closeJournal := newDispatcher(cmd, client, os.Stdout)
	defer closeJournal()

	return d.Stop(ctx)
}

func resetAction(ctx context.Context, cmd *cli.Command) error {
	client := newClient(cmd)
	d, closeJournal := newDispatcher(cmd, client, os.Stdout)
	defer closeJournal()

	if cfg, ok := currentConfig(ctx, client); ok {
		switch {
		case !cfg.IsTraining():
			return fmt.Errorf("reset is only available in %s mode", model.ModeTraining)
		case cfg.IsRunning():
			return fmt.Errorf("stop the bot before resetting its data")
		}
	}

	var confirmer control.Confirmer = control.PromptConfirmer{In: os.Stdin, Out: os.Stdout}
	if cmd.Bool("yes") {
		confirmer = control.Confirmed(true)
	}

	err := d.Reset(ctx, confirmer)
	if errors.Is(err, control.ErrResetDeclined) {
		fmt.Println("Reset cancelled.")
		return nil
	}
	return err
}

func configAction(ctx context.Context, cmd *cli.Command) error {
	draft := control.Draft{Symbol: cmd.String("symbol")}
	if m := cmd.String("mode"); m != "" {
		mode, err := model.ParseTradingMode(m)
		if err != nil {
			return err
		}
		draft.Mode = mode
	}
	if draft.Symbol == "" && draft.Mode == "" {
		return fmt.Errorf("nothing to change: pass --symbol and/or --mode")
	}

	client := newClient(cmd)
	current, ok := currentConfig(ctx, client)
	if !ok {
		return fmt.Errorf("bot status unavailable; config not sent")
	}

	d, closeJournal := newDispatcher(cmd, client, os.Stdout)
	defer closeJournal()
	return d.UpdateConfig(ctx, current, draft)
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	iv, err := model.ParseInterval(cmd.String("interval"))
	if err != nil {
		return err
	}

	out, closeLog, err := logging.Open(cmd.String("log-file"))
	if err != nil {
		return err
	}
	defer closeLog()
	logging.Setup(cmd.String("log-level"), "json", out)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := newClient(cmd)
	syncer := synchronizer.New(client, iv, cmd.Duration("poll"))

	d, closeJournal := newDispatcher(cmd, client, io.Discard)
	defer closeJournal()
	d.SetRefresher(syncer)

	updates, unsubscribe := syncer.Subscribe()
	defer unsubscribe()

	go func() {
		if err := syncer.Run(ctx); err != nil {
			log.Error().Err(err).Msg("synchronizer stopped")
		}
	}()

	m := tui.NewModel(ctx, syncer, updates, d, cmd.StringSlice("symbols"))
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("terminal dashboard: %w", err)
	}
	return nil
}
