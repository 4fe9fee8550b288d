package observability

import (
	"errors"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestShouldSkipUptraceLog(t *testing.T) {
	if !shouldSkipUptraceLog("http_request", map[string]any{"http_path": "/healthz"}) {
		t.Fatalf("expected health check log to be skipped")
	}
	if shouldSkipUptraceLog("http_request", map[string]any{"http_path": "/v1/leagues"}) {
		t.Fatalf("did not expect non-health log to be skipped")
	}
	if shouldSkipUptraceLog("tracking poll failed", map[string]any{"http_path": "/healthz"}) {
		t.Fatalf("did not expect non-http_request event to be skipped")
	}
}

func TestEncodeFields_MergesCoreAndEntryFields(t *testing.T) {
	values := encodeFields(
		[]zapcore.Field{zap.String("league_id", "plusliga")},
		[]zapcore.Field{zap.Int("count", 3), zap.Error(errors.New("boom")), zap.Duration("elapsed", time.Second)},
	)

	if values["league_id"] != "plusliga" {
		t.Fatalf("unexpected league_id: %v", values["league_id"])
	}
	if values["error"] != "boom" {
		t.Fatalf("unexpected error field: %v", values["error"])
	}
	if _, ok := values["count"]; !ok {
		t.Fatalf("missing count field: %v", values)
	}
}

func TestBuildOTelLogAttributes_SortedKeys(t *testing.T) {
	attrs := buildOTelLogAttributes(map[string]any{
		"match_id":  "E1",
		"attempt":   2,
		"league_id": "plusliga",
		"payload":   nil,
	})
	if len(attrs) != 4 {
		t.Fatalf("expected 4 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "attempt" || attrs[0].Value.AsInt64() != 2 {
		t.Fatalf("unexpected first attribute: %+v", attrs[0])
	}
	if attrs[1].Key != "league_id" || attrs[1].Value.AsString() != "plusliga" {
		t.Fatalf("unexpected league_id attribute")
	}
	if attrs[3].Key != "payload" || attrs[3].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected payload attribute")
	}
}

func TestToOTelLogValue_Map(t *testing.T) {
	v := toOTelLogValue(map[string]any{
		"sets": 3,
		"won":  true,
	}, 0)
	if v.Kind() != otellog.KindMap {
		t.Fatalf("expected map value, got %s", v.Kind())
	}
	if items := v.AsMap(); len(items) != 2 {
		t.Fatalf("expected 2 map items, got %d", len(items))
	}
}

func TestToOTelSeverity(t *testing.T) {
	cases := map[zapcore.Level]otellog.Severity{
		zapcore.DebugLevel: otellog.SeverityDebug,
		zapcore.InfoLevel:  otellog.SeverityInfo,
		zapcore.WarnLevel:  otellog.SeverityWarn,
		zapcore.ErrorLevel: otellog.SeverityError,
		zapcore.FatalLevel: otellog.SeverityFatal,
	}
	for level, want := range cases {
		if got := toOTelSeverity(level); got != want {
			t.Fatalf("unexpected severity for %s: got=%v want=%v", level, got, want)
		}
	}
}

func TestUptraceLogCore_RespectsLevel(t *testing.T) {
	core := newUptraceLogCore("dev", zapcore.WarnLevel)
	if core.Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info to be disabled")
	}
	if !core.Enabled(zapcore.ErrorLevel) {
		t.Fatalf("expected error to be enabled")
	}
	if err := core.With([]zapcore.Field{zap.String("k", "v")}).Write(zapcore.Entry{Level: zapcore.ErrorLevel, Message: "x"}, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
}
