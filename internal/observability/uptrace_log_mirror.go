package observability

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logInstrumentationScope = "zeal-league/internal/platform/logging"

// Access log lines for probes are high volume and carry nothing worth keeping.
var probePaths = map[string]struct{}{
	"/healthz": {},
	"/health":  {},
	"/livez":   {},
	"/readyz":  {},
}

// newLogMirror forwards logging records at or above minLevel to an
// OpenTelemetry logger. Key/values are normalized through zap's map encoder
// so the attribute types match what the JSON log line shows.
func newLogMirror(otelLogger otellog.Logger, minLevel logging.Level) logging.MirrorFunc {
	return func(ctx context.Context, level logging.Level, msg string, args ...any) {
		if level < minLevel || isProbeAccessLog(msg, args) {
			return
		}
		severity := otelSeverity(level)
		if !otelLogger.Enabled(ctx, otellog.EnabledParameters{Severity: severity, EventName: msg}) {
			return
		}

		now := time.Now().UTC()
		var record otellog.Record
		record.SetTimestamp(now)
		record.SetObservedTimestamp(now)
		record.SetSeverity(severity)
		record.SetSeverityText(level.CapitalString())
		record.SetEventName(msg)
		record.SetBody(otellog.StringValue(msg))
		record.AddAttributes(logAttributes(args)...)
		otelLogger.Emit(ctx, record)
	}
}

func isProbeAccessLog(msg string, args []any) bool {
	if msg != "http request" {
		return false
	}
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] != "path" {
			continue
		}
		path, _ := args[i+1].(string)
		_, probe := probePaths[strings.ToLower(path)]
		return probe
	}
	return false
}

func otelSeverity(level zapcore.Level) otellog.Severity {
	switch level {
	case zapcore.DebugLevel:
		return otellog.SeverityDebug
	case zapcore.InfoLevel:
		return otellog.SeverityInfo
	case zapcore.WarnLevel:
		return otellog.SeverityWarn
	case zapcore.ErrorLevel:
		return otellog.SeverityError
	default:
		if level < zapcore.DebugLevel {
			return otellog.SeverityTrace
		}
		return otellog.SeverityFatal
	}
}

func logAttributes(args []any) []otellog.KeyValue {
	if len(args) == 0 {
		return nil
	}
	enc := zapcore.NewMapObjectEncoder()
	keys := make([]string, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || strings.TrimSpace(key) == "" {
			key = fmt.Sprintf("arg_%d", i/2)
		}
		keys = append(keys, key)
		if i+1 >= len(args) {
			continue
		}
		if err, isErr := args[i+1].(error); isErr {
			enc.AddString(key, err.Error())
			continue
		}
		zap.Any(key, args[i+1]).AddTo(enc)
	}

	attrs := make([]otellog.KeyValue, 0, len(keys))
	for _, key := range keys {
		v, ok := enc.Fields[key]
		if !ok {
			attrs = append(attrs, otellog.Empty(key))
			continue
		}
		attrs = append(attrs, otellog.KeyValue{Key: key, Value: otelValue(v)})
	}
	return attrs
}

// otelValue converts what zap's MapObjectEncoder stores into a log value.
func otelValue(v any) otellog.Value {
	switch x := v.(type) {
	case nil:
		return otellog.Value{}
	case string:
		return otellog.StringValue(x)
	case bool:
		return otellog.BoolValue(x)
	case int:
		return otellog.IntValue(x)
	case int64:
		return otellog.Int64Value(x)
	case int32:
		return otellog.Int64Value(int64(x))
	case int16:
		return otellog.Int64Value(int64(x))
	case int8:
		return otellog.Int64Value(int64(x))
	case uint32:
		return otellog.Int64Value(int64(x))
	case uint16:
		return otellog.Int64Value(int64(x))
	case uint8:
		return otellog.Int64Value(int64(x))
	case uint64:
		if x > 1<<63-1 {
			return otellog.StringValue(fmt.Sprint(x))
		}
		return otellog.Int64Value(int64(x))
	case float64:
		return otellog.Float64Value(x)
	case float32:
		return otellog.Float64Value(float64(x))
	case []byte:
		return otellog.BytesValue(slices.Clone(x))
	case time.Time:
		return otellog.StringValue(x.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		return otellog.StringValue(x.String())
	case []any:
		items := make([]otellog.Value, 0, len(x))
		for _, item := range x {
			items = append(items, otelValue(item))
		}
		return otellog.SliceValue(items...)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		kvs := make([]otellog.KeyValue, 0, len(keys))
		for _, k := range keys {
			kvs = append(kvs, otellog.KeyValue{Key: k, Value: otelValue(x[k])})
		}
		return otellog.MapValue(kvs...)
	default:
		return otellog.StringValue(fmt.Sprint(x))
	}
}
