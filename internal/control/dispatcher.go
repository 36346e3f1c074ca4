// Package control sends operator commands to the backend and reports the
// outcome through a Notifier. It holds no bot state of its own; callers pass
// the latest known BotConfig and the next poll cycle reflects the result.
package control

import (
	"context"
	"errors"
	"fmt"

	"botdash/internal/common"
	"botdash/internal/model"

	"github.com/rs/zerolog/log"
)

// Command names, used for metrics labels and the journal.
const (
	CmdConfig = "config"
	CmdStart  = "start"
	CmdStop   = "stop"
	CmdReset  = "reset"
)

var (
	// ErrBotRunning is returned when a config update is refused because the
	// bot is running. No request is sent.
	ErrBotRunning = errors.New("bot is running")
	// ErrResetDeclined is returned when the operator does not confirm a reset.
	ErrResetDeclined = errors.New("reset not confirmed")
)

// Commander is the subset of the backend client used for commands.
type Commander interface {
	UpdateConfig(ctx context.Context, cfg model.BotConfig) error
	Start(ctx context.Context, interval model.Interval) error
	Stop(ctx context.Context) error
	Reset(ctx context.Context) error
}

type Metrics interface {
	CommandDone(command, result string)
}

// Journal keeps a local record of issued commands.
type Journal interface {
	RecordCommand(command, detail, result string) error
}

// Refresher is nudged after a successful command.
type Refresher interface {
	Refresh()
}

// Draft is the operator's pending configuration edit.
type Draft struct {
	Symbol string
	Mode   model.TradingMode
}

type Dispatcher struct {
	backend   Commander
	notifier  Notifier
	metrics   Metrics
	journal   Journal
	refresher Refresher
}

func NewDispatcher(backend Commander, notifier Notifier) *Dispatcher {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Dispatcher{backend: backend, notifier: notifier}
}

func (d *Dispatcher) SetMetrics(m Metrics)     { d.metrics = m }
func (d *Dispatcher) SetJournal(j Journal)     { d.journal = j }
func (d *Dispatcher) SetRefresher(r Refresher) { d.refresher = r }

// WithNotifier returns a copy of d reporting to n. Used to capture the
// notice of a single request.
func (d *Dispatcher) WithNotifier(n Notifier) *Dispatcher {
	cp := *d
	cp.notifier = n
	return &cp
}

// UpdateConfig sends draft as the new configuration. It is refused locally
// while current reports RUNNING. Empty draft fields keep the current value.
func (d *Dispatcher) UpdateConfig(ctx context.Context, current model.BotConfig, draft Draft) error {
	if current.IsRunning() {
		d.notifier.Notify(Notice{Level: LevelWarning, Message: common.MsgConfigRejectedRunning})
		d.done(CmdConfig, "", resultRejected, nil)
		return ErrBotRunning
	}

	cfg := model.BotConfig{
		SelectedSymbol: draft.Symbol,
		TradingMode:    draft.Mode,
		Status:         current.Status,
	}
	if cfg.SelectedSymbol == "" {
		cfg.SelectedSymbol = current.SelectedSymbol
	}
	if cfg.TradingMode == "" {
		cfg.TradingMode = current.TradingMode
	}
	detail := fmt.Sprintf("%s %s", cfg.SelectedSymbol, cfg.TradingMode)

	if err := d.backend.UpdateConfig(ctx, cfg); err != nil {
		log.Error().Err(err).Str("symbol", cfg.SelectedSymbol).Str("mode", string(cfg.TradingMode)).Msg("Config update failed")
		d.notifier.Notify(Notice{Level: LevelError, Message: common.MsgConfigFailed})
		d.done(CmdConfig, detail, resultError, err)
		return fmt.Errorf("update config: %w", err)
	}

	d.notifier.Notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf(common.MsgConfigUpdated, cfg.TradingMode)})
	d.done(CmdConfig, detail, resultOK, nil)
	return nil
}

// Start always sends the request; the backend rejects invalid transitions.
func (d *Dispatcher) Start(ctx context.Context, current model.BotConfig, interval model.Interval) error {
	if err := d.backend.Start(ctx, interval); err != nil {
		log.Error().Err(err).Str("interval", string(interval)).Msg("Start command failed")
		d.notifier.Notify(Notice{Level: LevelError, Message: common.MsgCommandFailed})
		d.done(CmdStart, string(interval), resultError, err)
		return fmt.Errorf("start bot: %w", err)
	}

	d.notifier.Notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf(common.MsgBotStarting, current.TradingMode)})
	d.done(CmdStart, string(interval), resultOK, nil)
	return nil
}

func (d *Dispatcher) Stop(ctx context.Context) error {
	if err := d.backend.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("Stop command failed")
		d.notifier.Notify(Notice{Level: LevelError, Message: common.MsgCommandFailed})
		d.done(CmdStop, "", resultError, err)
		return fmt.Errorf("stop bot: %w", err)
	}

	d.notifier.Notify(Notice{Level: LevelSuccess, Message: common.MsgBotStopped})
	d.done(CmdStop, "", resultOK, nil)
	return nil
}

// Toggle stops a running bot and starts any other.
func (d *Dispatcher) Toggle(ctx context.Context, current model.BotConfig, interval model.Interval) error {
	if current.IsRunning() {
		return d.Stop(ctx)
	}
	return d.Start(ctx, current, interval)
}

// Reset clears backtest data once c confirms. A nil Confirmer declines.
func (d *Dispatcher) Reset(ctx context.Context, c Confirmer) error {
	if c == nil || !c.Confirm(common.MsgResetPrompt) {
		log.Info().Msg("Reset cancelled by operator")
		d.done(CmdReset, "", resultRejected, nil)
		return ErrResetDeclined
	}

	if err := d.backend.Reset(ctx); err != nil {
		log.Error().Err(err).Msg("Reset command failed")
		d.notifier.Notify(Notice{Level: LevelError, Message: common.MsgResetFailed})
		d.done(CmdReset, "", resultError, err)
		return fmt.Errorf("reset bot data: %w", err)
	}

	d.notifier.Notify(Notice{Level: LevelSuccess, Message: common.MsgResetDone})
	d.done(CmdReset, "", resultOK, nil)
	return nil
}

const (
	resultOK       = "ok"
	resultError    = "error"
	resultRejected = "rejected"
)

func (d *Dispatcher) done(command, detail, result string, err error) {
	if d.metrics != nil {
		d.metrics.CommandDone(command, result)
	}
	if d.journal != nil {
		if err != nil {
			detail = fmt.Sprintf("%s: %v", detail, err)
		}
		if jerr := d.journal.RecordCommand(command, detail, result); jerr != nil {
			log.Warn().Err(jerr).Str("command", command).Msg("Failed to journal command")
		}
	}
	if result == resultOK && d.refresher != nil {
		d.refresher.Refresh()
	}
	log.Info().Str("command", command).Str("result", result).Msg("Command dispatched")
}
