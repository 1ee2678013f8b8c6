package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter("bogus", "json", &buf)
	if l.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level, got %s", l.GetLevel())
	}

	l.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line should be filtered, got %s", buf.String())
	}
}

func TestComponentAddsField(t *testing.T) {
	var buf bytes.Buffer
	l := Component(newWithWriter("debug", "json", &buf), "valuation")
	l.Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	if line["component"] != "valuation" || line["service"] != "portfolio-tracker" {
		t.Fatalf("unexpected fields: %v", line)
	}
}
