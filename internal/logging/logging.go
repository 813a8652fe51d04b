// Package logging builds the console logger shared by every command.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvDebug enables debug logging when set to a truthy value.
const EnvDebug = "SCRIPTS_DEBUG"

var levelColors = map[zapcore.Level]*color.Color{
	zapcore.DebugLevel: color.New(color.FgBlue),
	zapcore.InfoLevel:  color.New(color.FgGreen),
	zapcore.WarnLevel:  color.New(color.FgHiRed),
	zapcore.ErrorLevel: color.New(color.FgRed),
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	name := l.CapitalString()
	if c, ok := levelColors[l]; ok {
		name = c.Sprint(name)
	}
	enc.AppendString(name)
}

// New returns a console logger writing to w at the given level. Entries carry
// no timestamp so transcripts stay stable.
func New(w io.Writer, level zap.AtomicLevel) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	encCfg.StacktraceKey = ""
	encCfg.EncodeLevel = encodeLevel
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

// Stderr returns a logger on os.Stderr.
func Stderr(level zap.AtomicLevel) *zap.Logger {
	return New(os.Stderr, level)
}

// ParseLevel accepts debug, info, warn, or error in any case.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// DebugFromEnv reports whether SCRIPTS_DEBUG asks for debug output.
func DebugFromEnv(lookup func(string) (string, bool)) bool {
	v, ok := lookup(EnvDebug)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}
