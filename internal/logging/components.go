package logging

import (
	"context"
	"time"
)

// ComponentLogger binds a Logger to one subsystem and adds operation
// timing helpers on top of it
type ComponentLogger struct {
	Logger
	component string
}

// ForComponent creates a component-bound logger on the package default
func ForComponent(component string) *ComponentLogger {
	return &ComponentLogger{
		Logger:    WithComponent(component),
		component: component,
	}
}

// WithContext creates a logger carrying the trace ID from the context
func (l *ComponentLogger) WithContext(ctx context.Context) *ComponentLogger {
	return &ComponentLogger{
		Logger:    l.Logger.WithTraceID(GetTraceID(ctx)),
		component: l.component,
	}
}

// LogOperation logs the start and completion of an operation
func (l *ComponentLogger) LogOperation(operation string, fn func() error) error {
	startTime := time.Now()
	l.Info("Starting operation", "operation", operation)

	err := fn()
	duration := time.Since(startTime)

	if err != nil {
		l.Error("Operation failed",
			"operation", operation,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		return err
	}

	l.Info("Operation completed",
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}

// LogSlowOperation logs operations that exceed expected duration
func (l *ComponentLogger) LogSlowOperation(operation string, duration, expected time.Duration) {
	l.Warn("Slow operation detected",
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
		"expected_ms", expected.Milliseconds(),
		"slowdown_factor", float64(duration)/float64(expected),
	)
}
