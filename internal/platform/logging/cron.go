package logging

import "github.com/robfig/cron/v3"

type cronLogger struct {
	logger *Logger
}

// CronLogger adapts Logger to cron.Logger. Cron's chatty scheduling messages go to debug.
func CronLogger(logger *Logger) cron.Logger {
	if logger == nil {
		logger = Default()
	}
	return cronLogger{logger: logger}
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.logger.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := make([]any, 0, len(keysAndValues)+2)
	args = append(args, "error", err)
	args = append(args, keysAndValues...)
	c.logger.Error(msg, args...)
}
