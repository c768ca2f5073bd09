package beacon

import "testing"

func TestWithProtocolVersionAppendsVersionParam(t *testing.T) {
	cfg := Config{ProtocolVersion: 10}

	got, err := cfg.WithProtocolVersion("wss://gateway.example/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "wss://gateway.example/?v=10"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWithProtocolVersionPreservesExistingQuery(t *testing.T) {
	cfg := Config{ProtocolVersion: 10}

	got, err := cfg.WithProtocolVersion("wss://gateway.example/?encoding=json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "wss://gateway.example/?encoding=json&v=10"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
