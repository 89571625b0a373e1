package logging

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter is a zapcore.Core that forwards entries to a Logger.
type ZapAdapter struct {
	logger *Logger
}

// NewZapAdapter creates a new zapcore.Core that forwards logs to logger.
func NewZapAdapter(logger *Logger) *ZapAdapter {
	return &ZapAdapter{
		logger: logger,
	}
}

func toLevel(level zapcore.Level) LogLevel {
	switch level {
	case zapcore.DebugLevel:
		return DebugLevel
	case zapcore.InfoLevel:
		return InfoLevel
	case zapcore.WarnLevel:
		return WarnLevel
	case zapcore.FatalLevel:
		return FatalLevel
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel:
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Enabled implements zapcore.Core
func (a *ZapAdapter) Enabled(level zapcore.Level) bool {
	return a.logger.shouldLog(toLevel(level))
}

// fieldValue converts a zapcore.Field to a value encoding/json can render.
func fieldValue(field zapcore.Field) interface{} {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type:
		return field.Integer
	case zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type, zapcore.UintptrType:
		return uint64(field.Integer)
	case zapcore.Float64Type:
		return finite(math.Float64frombits(uint64(field.Integer)))
	case zapcore.Float32Type:
		return finite(float64(math.Float32frombits(uint32(field.Integer))))
	case zapcore.BoolType:
		return field.Integer == 1
	case zapcore.DurationType:
		return time.Duration(field.Integer).String()
	case zapcore.TimeType:
		if loc, ok := field.Interface.(*time.Location); ok {
			return time.Unix(0, field.Integer).In(loc).Format(time.RFC3339Nano)
		}
		return time.Unix(0, field.Integer).UTC().Format(time.RFC3339Nano)
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
		return field.Interface
	case zapcore.StringerType:
		if s, ok := field.Interface.(fmt.Stringer); ok {
			return s.String()
		}
		return field.Interface
	default:
		return field.Interface
	}
}

// finite renders non-finite floats as strings; encoding/json rejects them.
func finite(f float64) interface{} {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Sprint(f)
	}
	return f
}

func toMap(fields []zapcore.Field, extra int) map[string]interface{} {
	f := make(map[string]interface{}, len(fields)+extra)
	for _, field := range fields {
		if field.Type == zapcore.SkipType || field.Type == zapcore.NamespaceType {
			continue
		}
		f[field.Key] = fieldValue(field)
	}
	return f
}

// With implements zapcore.Core
func (a *ZapAdapter) With(fields []zapcore.Field) zapcore.Core {
	return &ZapAdapter{
		logger: a.logger.WithFields(toMap(fields, 0)),
	}
}

// Check implements zapcore.Core
func (a *ZapAdapter) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if a.Enabled(ent.Level) {
		return ce.AddCore(ent, a)
	}
	return ce
}

// Write implements zapcore.Core. Fatal entries are written at FATAL and
// exit through the Logger.
func (a *ZapAdapter) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	f := toMap(fields, 2)
	if ent.Caller.Defined {
		f["caller"] = ent.Caller.TrimmedPath()
	}
	if ent.LoggerName != "" {
		f["logger"] = ent.LoggerName
	}
	a.logger.log(toLevel(ent.Level), ent.Message, f, 0)
	return nil
}

// Sync implements zapcore.Core
func (a *ZapAdapter) Sync() error {
	return nil
}

// NewZapLogger creates a *zap.Logger that forwards logs to logger.
func NewZapLogger(logger *Logger) *zap.Logger {
	return zap.New(NewZapAdapter(logger), zap.AddCaller())
}
