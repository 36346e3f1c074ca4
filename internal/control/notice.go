package control

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a user-facing message produced by a command.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to the global logger only.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	ev := log.Info()
	if n.Level == LevelError {
		ev = log.Warn()
	}
	ev.Str("level", string(n.Level)).Msg(n.Message)
}

// Recorder keeps the last notice. Not safe for concurrent use.
type Recorder struct {
	Last  Notice
	Count int
}

func (r *Recorder) Notify(n Notice) {
	r.Last = n
	r.Count++
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Confirmed answers every prompt with the given value.
type Confirmed bool

func (c Confirmed) Confirm(string) bool { return bool(c) }

// PromptConfirmer asks on out and reads a y/yes answer from in.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (p PromptConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(p.Out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
