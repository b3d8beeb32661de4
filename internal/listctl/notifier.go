// Package listctl holds the reusable controllers behind the admin
// console's resource screens: a paged, filtered collection view and a
// single-entity detail view. Controllers own view state and talk to the
// API through injected fetch functions; rendering stays with the caller.
package listctl

import "log"

// Notifier receives the outcome of user-triggered mutations. The console
// shows these as toasts; tests capture them.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// LogNotifier writes notifications to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Success(msg string) { log.Printf("ok: %s", msg) }
func (LogNotifier) Error(msg string)   { log.Printf("error: %s", msg) }

// nopNotifier is the default when none is configured.
type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}
