package utils

import (
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type durationHolder struct {
	Short   Duration
	Forever Duration
}

func TestDurationUnmarshal(t *testing.T) {
	var holder durationHolder
	err := toml.Unmarshal([]byte("Short=\"90m\"\nForever=\"never\"\n"), &holder)
	if err != nil {
		t.Fatalf("Couldn't unmarshal durations: %s", err)
	}
	if time.Duration(holder.Short) != 90*time.Minute {
		t.Fatalf("Expected 90m, got %s", time.Duration(holder.Short))
	}
	if time.Duration(holder.Forever) < 100*365*24*time.Hour {
		t.Fatalf("Expected 'never' to be a very long time, got %s", time.Duration(holder.Forever))
	}
}

func TestDurationUnmarshalBad(t *testing.T) {
	var holder durationHolder
	err := toml.Unmarshal([]byte("Short=\"whenever\"\n"), &holder)
	if err == nil {
		t.Fatalf("Expected error for garbage duration")
	}
}
