package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bizcal/internal/schedule"
)

var (
	mu     sync.RWMutex
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger = newLogger()
)

func newLogger() *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.MessageKey = "message"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(os.Stdout), level)
	return zap.New(core)
}

// SetLevel changes the minimum level; unknown names leave it unchanged.
func SetLevel(name string) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(name)); err == nil {
		level.SetLevel(l)
	}
}

// Use swaps the underlying logger, mainly for tests.
func Use(l *zap.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

// L returns the current logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Log(lvl, msg string, fields map[string]any) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(lvl)); err != nil {
		l = zapcore.InfoLevel
	}
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	if ce := L().Check(l, msg); ce != nil {
		ce.Write(zf...)
	}
}

func Info(msg string, fields map[string]any)  { Log("info", msg, fields) }
func Error(msg string, fields map[string]any) { Log("error", msg, fields) }
func Debug(msg string, fields map[string]any) { Log("debug", msg, fields) }

// TraceSink forwards calendar trace lines as debug entries carrying fields.
func TraceSink(fields map[string]any) schedule.Sink {
	return schedule.SinkFunc(func(line string) {
		f := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			f[k] = v
		}
		f["trace"] = line
		Debug("calendar_trace", f)
	})
}
