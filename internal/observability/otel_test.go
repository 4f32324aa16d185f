package observability

import "testing"

func TestOtelConfigFromEnvParsesHeaders(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "api-key=abc, broken ,x-team = bakery,empty=")
	cfg := OtelConfigFromEnv()
	h := cfg.Headers
	if len(h) != 2 || h["api-key"] != "abc" || h["x-team"] != "bakery" {
		t.Fatalf("unexpected headers: %v", h)
	}
	if cfg.ServiceName != defaultServiceName {
		t.Fatalf("service name: %s", cfg.ServiceName)
	}
}

func TestOtelSampleRatioClamped(t *testing.T) {
	t.Setenv("OTEL_SAMPLER_RATIO", "4")
	if got := OtelConfigFromEnv().SampleRatio; got != 1 {
		t.Fatalf("ratio: got=%v want=1", got)
	}
	t.Setenv("OTEL_SAMPLER_RATIO", "-1")
	if got := OtelConfigFromEnv().SampleRatio; got != 0 {
		t.Fatalf("ratio: got=%v want=0", got)
	}
}

func TestParseHeadersEmpty(t *testing.T) {
	if parseHeaders(nil) != nil {
		t.Fatalf("expected nil for no headers")
	}
}
