package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// templateEncoder renders log lines from a user-supplied format string
// using the {timestamp}, {level}, {message} placeholders described in the
// router's logging.format configuration option. The embedded JSON encoder
// supplies the zapcore.ObjectEncoder methods; EncodeEntry renders each
// field of a log call itself, as " key=value" after the templated line.
type templateEncoder struct {
	zapcore.Encoder
	format string
}

const defaultFormat = "{timestamp} [{level}] {message}"

func newTemplateEncoder(format string) *templateEncoder {
	if format == "" {
		format = defaultFormat
	}
	return &templateEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		format:  format,
	}
}

func (enc *templateEncoder) Clone() zapcore.Encoder {
	return &templateEncoder{Encoder: enc.Encoder.Clone(), format: enc.format}
}

func (enc *templateEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := enc.format
	line = strings.ReplaceAll(line, "{timestamp}", ent.Time.Format("2006-01-02T15:04:05.000Z07:00"))
	line = strings.ReplaceAll(line, "{level}", strings.ToUpper(ent.Level.String()))
	line = strings.ReplaceAll(line, "{message}", ent.Message)

	buf := buffer.NewPool().Get()
	buf.AppendString(line)
	if ent.LoggerName != "" {
		buf.AppendString(" logger=")
		buf.AppendString(ent.LoggerName)
	}
	for _, f := range fields {
		buf.AppendString(" ")
		buf.AppendString(f.Key)
		buf.AppendString("=")
		buf.AppendString(fieldString(f))
	}
	buf.AppendString("\n")
	return buf, nil
}

func fieldString(f zapcore.Field) string {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", f.Integer)
	case zapcore.BoolType:
		return fmt.Sprintf("%t", f.Integer == 1)
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok {
			return err.Error()
		}
	}
	if f.Interface != nil {
		return fmt.Sprintf("%v", f.Interface)
	}
	return f.String
}
