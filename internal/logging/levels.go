package logging

import (
	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below Debug (-1). Used for validator request and response
// bodies, which are too large and too sensitive for normal debug output.
const TraceLevel = zapcore.Level(-2)

// LevelFromString parses a level name, accepting "trace" in addition to
// the zap names.
func LevelFromString(level string) (zapcore.Level, error) {
	if level == "trace" {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}
