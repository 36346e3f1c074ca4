package tui

import (
	"botdash/internal/control"
	"botdash/internal/synchronizer"
)

// SnapshotMsg carries a new view-state from the synchronizer.
type SnapshotMsg struct {
	Snapshot synchronizer.Snapshot
}

// CommandResultMsg reports the outcome of a dispatched command.
type CommandResultMsg struct {
	Notice control.Notice
	Err    error
}

// updatesClosedMsg signals that the subscription ended.
type updatesClosedMsg struct{}
