package log

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/recruitly/screening-engine/pkg/requestid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StructuredLogger writes operation traces for a named component. The
// underlying zap logger is resolved when an entry is written so that loggers
// created before zap.ReplaceGlobals still end up on the configured output.
type StructuredLogger struct {
	name   string
	level  zapcore.Level
	fields []zap.Field
}

func NewDebugLogger(name string) *StructuredLogger {
	return &StructuredLogger{name: name, level: zapcore.DebugLevel}
}

func NewInfoLogger(name string) *StructuredLogger {
	return &StructuredLogger{name: name, level: zapcore.InfoLevel}
}

func (l *StructuredLogger) WithContext(ctx context.Context) *StructuredLogger {
	cp := &StructuredLogger{name: l.name, level: l.level, fields: append([]zap.Field{}, l.fields...)}
	if id := requestid.FromContext(ctx); id != "" {
		cp.fields = append(cp.fields, zap.String("request_id", id))
	}
	return cp
}

func (l *StructuredLogger) Operation(name string) *OperationBuilder {
	return &OperationBuilder{
		logger: l,
		name:   name,
		fields: append([]zap.Field{zap.String("operation", name)}, l.fields...),
	}
}

func (l *StructuredLogger) base() *zap.Logger {
	return zap.L().Named(l.name).WithOptions(zap.AddCallerSkip(2))
}

type OperationBuilder struct {
	logger *StructuredLogger
	name   string
	fields []zap.Field
}

func (b *OperationBuilder) WithString(key, value string) *OperationBuilder {
	b.fields = append(b.fields, zap.String(key, value))
	return b
}

func (b *OperationBuilder) WithInt(key string, value int) *OperationBuilder {
	b.fields = append(b.fields, zap.Int(key, value))
	return b
}

func (b *OperationBuilder) WithBool(key string, value bool) *OperationBuilder {
	b.fields = append(b.fields, zap.Bool(key, value))
	return b
}

func (b *OperationBuilder) WithUUID(key string, value uuid.UUID) *OperationBuilder {
	b.fields = append(b.fields, zap.String(key, value.String()))
	return b
}

func (b *OperationBuilder) WithParam(key string, value any) *OperationBuilder {
	b.fields = append(b.fields, zap.String(key, fmt.Sprintf("%v", value)))
	return b
}

func (b *OperationBuilder) Build() *OperationTracer {
	t := &OperationTracer{logger: b.logger, fields: b.fields, start: time.Now()}
	t.write(b.logger.level, "operation started", nil)
	return t
}

// OperationTracer logs the steps and the outcome of one operation.
type OperationTracer struct {
	logger *StructuredLogger
	fields []zap.Field
	start  time.Time
}

func (t *OperationTracer) Step(name string) *Entry {
	return &Entry{tracer: t, level: t.logger.level, msg: "step", fields: []zap.Field{zap.String("step", name)}}
}

func (t *OperationTracer) Success() *Entry {
	return &Entry{tracer: t, level: t.logger.level, msg: "operation succeeded", fields: []zap.Field{zap.Duration("duration", time.Since(t.start))}}
}

func (t *OperationTracer) Error(err error) *Entry {
	return &Entry{tracer: t, level: zapcore.ErrorLevel, msg: "operation failed", fields: []zap.Field{zap.Error(err), zap.Duration("duration", time.Since(t.start))}}
}

func (t *OperationTracer) write(level zapcore.Level, msg string, extra []zap.Field) {
	logger := t.logger.base()
	if ce := logger.Check(level, msg); ce != nil {
		ce.Write(append(append([]zap.Field{}, t.fields...), extra...)...)
	}
}

type Entry struct {
	tracer *OperationTracer
	level  zapcore.Level
	msg    string
	fields []zap.Field
}

func (e *Entry) WithString(key, value string) *Entry {
	e.fields = append(e.fields, zap.String(key, value))
	return e
}

func (e *Entry) WithInt(key string, value int) *Entry {
	e.fields = append(e.fields, zap.Int(key, value))
	return e
}

func (e *Entry) WithBool(key string, value bool) *Entry {
	e.fields = append(e.fields, zap.Bool(key, value))
	return e
}

func (e *Entry) WithFloat(key string, value float64) *Entry {
	e.fields = append(e.fields, zap.Float64(key, value))
	return e
}

func (e *Entry) WithUUID(key string, value uuid.UUID) *Entry {
	e.fields = append(e.fields, zap.String(key, value.String()))
	return e
}

func (e *Entry) Log() {
	e.tracer.write(e.level, e.msg, e.fields)
}
