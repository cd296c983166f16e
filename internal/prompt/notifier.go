package prompt

import "github.com/tliron/commonlog"

// Notifier shows short messages to the user.
type Notifier interface {
	Info(message string)
	Warn(message string)
	Error(message string)
}

type nopNotifier struct{}

func (nopNotifier) Info(string)  {}
func (nopNotifier) Warn(string)  {}
func (nopNotifier) Error(string) {}

// NopNotifier drops every message.
var NopNotifier Notifier = nopNotifier{}

// LogNotifier writes messages to a commonlog logger.
type LogNotifier struct {
	Log commonlog.Logger
}

func (n LogNotifier) Info(message string)  { n.Log.Notice(message) }
func (n LogNotifier) Warn(message string)  { n.Log.Warning(message) }
func (n LogNotifier) Error(message string) { n.Log.Error(message) }
