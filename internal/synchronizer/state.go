package synchronizer

import (
	"sync"
	"time"

	"botdash/internal/model"
)

// Snapshot is a read-only copy of the view-state. Slices are owned by the
// receiver and may be modified freely.
type Snapshot struct {
	Seq      uint64         // cycle that last wrote this snapshot
	Loading  bool           // true until the first cycle completes
	Interval model.Interval // selected chart interval

	HasConfig bool
	Config    model.BotConfig

	HasData        bool
	MarketInterval model.Interval // interval Market was fetched at
	Summary        model.AccountSummary
	Trades         []model.Trade
	Holdings       []model.Holding
	Performance    []model.AccountSnapshot
	Market         []model.MarketBar

	LastUpdated time.Time // last full successful cycle
	LastError   string
}

func (s Snapshot) clone() Snapshot {
	s.Trades = append([]model.Trade(nil), s.Trades...)
	s.Holdings = append([]model.Holding(nil), s.Holdings...)
	s.Performance = append([]model.AccountSnapshot(nil), s.Performance...)
	s.Market = append([]model.MarketBar(nil), s.Market...)
	return s
}

type batch struct {
	summary     model.AccountSummary
	trades      []model.Trade
	holdings    []model.Holding
	performance []model.AccountSnapshot
	market      []model.MarketBar
}

// State owns the view-state. Only the Synchronizer writes to it; every
// write is tagged with the cycle sequence and writes from a cycle older
// than the latest one begun are dropped.
type State struct {
	mu     sync.RWMutex
	snap   Snapshot
	latest uint64
	subs   map[chan Snapshot]struct{}
}

func NewState(interval model.Interval) *State {
	return &State{
		snap: Snapshot{Loading: true, Interval: interval},
		subs: make(map[chan Snapshot]struct{}),
	}
}

func (st *State) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.snap.clone()
}

// Subscribe returns a channel that receives every new snapshot. A slow
// reader only ever sees the newest pending snapshot; older ones are
// dropped. Call the returned func to unsubscribe.
func (st *State) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	st.mu.Lock()
	st.subs[ch] = struct{}{}
	st.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			st.mu.Lock()
			delete(st.subs, ch)
			st.mu.Unlock()
		})
	}
}

// begin marks seq as the newest cycle. Anything older becomes stale.
func (st *State) begin(seq uint64) {
	st.mu.Lock()
	if seq > st.latest {
		st.latest = seq
	}
	st.mu.Unlock()
}

func (st *State) current(seq uint64) bool {
	return seq == st.latest
}

func (st *State) setInterval(iv model.Interval) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.snap.Interval == iv {
		return
	}
	st.snap.Interval = iv
	st.publishLocked()
}

func (st *State) applyStatus(seq uint64, cfg model.BotConfig) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.current(seq) {
		return false
	}
	st.snap.Seq = seq
	st.snap.Config = cfg
	st.snap.HasConfig = true
	st.publishLocked()
	return true
}

func (st *State) applyBatch(seq uint64, iv model.Interval, b batch, at time.Time) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.current(seq) {
		return false
	}
	st.snap.Seq = seq
	st.snap.Loading = false
	st.snap.HasData = true
	st.snap.MarketInterval = iv
	st.snap.Summary = b.summary
	st.snap.Trades = b.trades
	st.snap.Holdings = b.holdings
	st.snap.Performance = b.performance
	st.snap.Market = b.market
	st.snap.LastUpdated = at
	st.snap.LastError = ""
	st.publishLocked()
	return true
}

// fail ends a cycle without touching the data fields.
func (st *State) fail(seq uint64, err error) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.current(seq) {
		return false
	}
	st.snap.Seq = seq
	st.snap.Loading = false
	st.snap.LastError = err.Error()
	st.publishLocked()
	return true
}

func (st *State) publishLocked() {
	for ch := range st.subs {
		snap := st.snap.clone()
		select {
		case ch <- snap:
		default:
			// drop the stale pending snapshot and replace it
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
