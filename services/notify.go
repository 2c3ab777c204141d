package services

import (
	"context"
	"log"
)

// Level is the severity of a user-facing notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier delivers short user-facing messages (toasts).
type Notifier interface {
	Notify(ctx context.Context, level Level, message string)
}

// LogNotifier writes notifications to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, level Level, message string) {
	log.Printf("notify [%s]: %s", level, message)
}

// Confirmer asks a human to approve a destructive step.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, message string) bool {
	return f(ctx, message)
}

// Approved is a Confirmer with a fixed answer, for callers that collected
// the approval before the request reached the service.
type Approved bool

func (a Approved) Confirm(context.Context, string) bool {
	return bool(a)
}
