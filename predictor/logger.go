package predictor

import (
	"fmt"
	"log/slog"
)

// Logger is the predictor's injectable logging collaborator, mirroring the
// Logger/StdoutLogger/NullLogger trio of sqldef's database package (SPEC_FULL
// §10.1): callers who don't care about predictor diagnostics pass
// NoopLogger{}, callers who do wire SlogLogger.
type Logger interface {
	Print(v ...any)
	Printf(format string, v ...any)
	Println(v ...any)
}

// NoopLogger discards everything. It is the default when no Logger is
// supplied to New.
type NoopLogger struct{}

func (NoopLogger) Print(v ...any)                 {}
func (NoopLogger) Printf(format string, v ...any) {}
func (NoopLogger) Println(v ...any)               {}

// SlogLogger routes predictor diagnostics through log/slog, at Info level.
// A nil L falls back to slog.Default().
type SlogLogger struct {
	L *slog.Logger
}

func (s SlogLogger) logger() *slog.Logger {
	if s.L != nil {
		return s.L
	}
	return slog.Default()
}

func (s SlogLogger) Print(v ...any) { s.logger().Info(fmt.Sprint(v...)) }
func (s SlogLogger) Printf(format string, v ...any) {
	s.logger().Info(fmt.Sprintf(format, v...))
}
func (s SlogLogger) Println(v ...any) { s.logger().Info(fmt.Sprintln(v...)) }
