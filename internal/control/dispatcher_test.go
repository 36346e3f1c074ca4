package control

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"botdash/internal/common"
	"botdash/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCommander struct {
	mock.Mock
}

func (m *mockCommander) UpdateConfig(ctx context.Context, cfg model.BotConfig) error {
	return m.Called(cfg).Error(0)
}

func (m *mockCommander) Start(ctx context.Context, interval model.Interval) error {
	return m.Called(interval).Error(0)
}

func (m *mockCommander) Stop(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *mockCommander) Reset(ctx context.Context) error {
	return m.Called().Error(0)
}

type journalEntry struct {
	command, detail, result string
}

type memJournal struct {
	entries []journalEntry
}

func (j *memJournal) RecordCommand(command, detail, result string) error {
	j.entries = append(j.entries, journalEntry{command, detail, result})
	return nil
}

type memMetrics map[string]int

func (m memMetrics) CommandDone(command, result string) { m[command+"/"+result]++ }

type countingRefresher struct{ n int }

func (r *countingRefresher) Refresh() { r.n++ }

var (
	idle    = model.BotConfig{SelectedSymbol: "BTCUSDT", TradingMode: model.ModeTraining, Status: model.StatusIdle}
	running = model.BotConfig{SelectedSymbol: "BTCUSDT", TradingMode: model.ModeTrading, Status: model.StatusRunning}
)

func newTestDispatcher(c Commander) (*Dispatcher, *Recorder, *memJournal, memMetrics, *countingRefresher) {
	rec := &Recorder{}
	j := &memJournal{}
	m := memMetrics{}
	r := &countingRefresher{}
	d := NewDispatcher(c, rec)
	d.SetJournal(j)
	d.SetMetrics(m)
	d.SetRefresher(r)
	return d, rec, j, m, r
}

func TestUpdateConfigRejectedWhileRunning(t *testing.T) {
	c := &mockCommander{}
	d, rec, j, m, r := newTestDispatcher(c)

	err := d.UpdateConfig(context.Background(), running, Draft{Symbol: "ETHUSDT", Mode: model.ModeTraining})

	assert.ErrorIs(t, err, ErrBotRunning)
	c.AssertNotCalled(t, "UpdateConfig", mock.Anything)
	assert.Len(t, c.Calls, 0, "no request may be sent while running")
	assert.Equal(t, common.MsgConfigRejectedRunning, rec.Last.Message)
	assert.Equal(t, LevelWarning, rec.Last.Level)
	assert.Equal(t, 1, m["config/rejected"])
	require.Len(t, j.entries, 1)
	assert.Equal(t, "rejected", j.entries[0].result)
	assert.Zero(t, r.n)
}

func TestUpdateConfig(t *testing.T) {
	tests := []struct {
		name      string
		draft     Draft
		backend   error
		want      model.BotConfig
		wantErr   bool
		wantMsg   string
		wantLevel Level
	}{
		{
			name:      "sends full config with current status",
			draft:     Draft{Symbol: "ETHUSDT", Mode: model.ModeTrading},
			want:      model.BotConfig{SelectedSymbol: "ETHUSDT", TradingMode: model.ModeTrading, Status: model.StatusIdle},
			wantMsg:   "Configuration updated successfully! New Mode: TRADING",
			wantLevel: LevelSuccess,
		},
		{
			name:      "empty draft keeps current values",
			draft:     Draft{},
			want:      idle,
			wantMsg:   "Configuration updated successfully! New Mode: TRAINING",
			wantLevel: LevelSuccess,
		},
		{
			name:      "backend failure",
			draft:     Draft{Symbol: "ETHUSDT", Mode: model.ModeTraining},
			backend:   errors.New("500"),
			want:      model.BotConfig{SelectedSymbol: "ETHUSDT", TradingMode: model.ModeTraining, Status: model.StatusIdle},
			wantErr:   true,
			wantMsg:   common.MsgConfigFailed,
			wantLevel: LevelError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &mockCommander{}
			c.On("UpdateConfig", tt.want).Return(tt.backend).Once()
			d, rec, _, _, r := newTestDispatcher(c)

			err := d.UpdateConfig(context.Background(), idle, tt.draft)
			if tt.wantErr {
				require.Error(t, err)
				assert.Zero(t, r.n)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, r.n)
			}
			c.AssertExpectations(t)
			assert.Equal(t, tt.wantMsg, rec.Last.Message)
			assert.Equal(t, tt.wantLevel, rec.Last.Level)
		})
	}
}

func TestStartSendsInterval(t *testing.T) {
	c := &mockCommander{}
	c.On("Start", model.Interval4h).Return(nil).Once()
	d, rec, j, m, _ := newTestDispatcher(c)

	require.NoError(t, d.Start(context.Background(), idle, model.Interval4h))
	c.AssertExpectations(t)
	assert.Equal(t, "Bot starting in TRAINING mode...", rec.Last.Message)
	assert.Equal(t, 1, m["start/ok"])
	require.Len(t, j.entries, 1)
	assert.Equal(t, journalEntry{"start", "4h", "ok"}, j.entries[0])
}

func TestStartIsAttemptedEvenWhenRunning(t *testing.T) {
	c := &mockCommander{}
	c.On("Start", model.Interval1h).Return(errors.New("409 already running")).Once()
	d, rec, j, _, _ := newTestDispatcher(c)

	err := d.Start(context.Background(), running, model.Interval1h)
	require.Error(t, err)
	c.AssertExpectations(t)
	assert.Equal(t, common.MsgCommandFailed, rec.Last.Message)
	require.Len(t, j.entries, 1)
	assert.True(t, strings.Contains(j.entries[0].detail, "409 already running"))
}

func TestStop(t *testing.T) {
	c := &mockCommander{}
	c.On("Stop").Return(nil).Once()
	d, rec, _, _, _ := newTestDispatcher(c)

	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, common.MsgBotStopped, rec.Last.Message)

	c.On("Stop").Return(errors.New("down")).Once()
	require.Error(t, d.Stop(context.Background()))
	assert.Equal(t, common.MsgCommandFailed, rec.Last.Message)
	c.AssertExpectations(t)
}

func TestToggle(t *testing.T) {
	c := &mockCommander{}
	c.On("Stop").Return(nil).Once()
	c.On("Start", model.Interval5m).Return(nil).Once()
	d, _, _, _, _ := newTestDispatcher(c)

	require.NoError(t, d.Toggle(context.Background(), running, model.Interval5m))
	require.NoError(t, d.Toggle(context.Background(), idle, model.Interval5m))
	c.AssertExpectations(t)
}

func TestReset(t *testing.T) {
	t.Run("declined sends nothing", func(t *testing.T) {
		c := &mockCommander{}
		d, rec, _, m, _ := newTestDispatcher(c)

		var asked string
		err := d.Reset(context.Background(), ConfirmFunc(func(p string) bool {
			asked = p
			return false
		}))
		assert.ErrorIs(t, err, ErrResetDeclined)
		assert.Equal(t, common.MsgResetPrompt, asked)
		assert.Len(t, c.Calls, 0)
		assert.Zero(t, rec.Count)
		assert.Equal(t, 1, m["reset/rejected"])

		assert.ErrorIs(t, d.Reset(context.Background(), nil), ErrResetDeclined)
		assert.Len(t, c.Calls, 0)
	})

	t.Run("confirmed", func(t *testing.T) {
		c := &mockCommander{}
		c.On("Reset").Return(nil).Once()
		d, rec, _, _, r := newTestDispatcher(c)

		require.NoError(t, d.Reset(context.Background(), Confirmed(true)))
		c.AssertExpectations(t)
		assert.Equal(t, common.MsgResetDone, rec.Last.Message)
		assert.Equal(t, 1, r.n)
	})

	t.Run("backend failure", func(t *testing.T) {
		c := &mockCommander{}
		c.On("Reset").Return(errors.New("boom")).Once()
		d, rec, _, _, _ := newTestDispatcher(c)

		require.Error(t, d.Reset(context.Background(), Confirmed(true)))
		assert.Equal(t, common.MsgResetFailed, rec.Last.Message)
		assert.Equal(t, LevelError, rec.Last.Level)
	})
}

func TestWithNotifierDoesNotLeak(t *testing.T) {
	c := &mockCommander{}
	c.On("Stop").Return(nil)
	base, baseRec, _, _, _ := newTestDispatcher(c)

	scoped := &Recorder{}
	require.NoError(t, base.WithNotifier(scoped).Stop(context.Background()))

	assert.Equal(t, 1, scoped.Count)
	assert.Zero(t, baseRec.Count)
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yes", true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		p := PromptConfirmer{In: strings.NewReader(tt.input), Out: &out}
		assert.Equal(t, tt.want, p.Confirm("Sure?"), "input %q", tt.input)
		assert.Equal(t, "Sure? [y/N]: ", out.String())
	}
}
