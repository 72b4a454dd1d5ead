package instance

import (
	"strings"
	"testing"
)

func TestGetIDPrefersExplicitID(t *testing.T) {
	t.Setenv("SOLARPO_INSTANCE_ID", "api-7")
	t.Setenv("DYNO", "web.1")
	if got := GetID("api"); got != "api-7" {
		t.Fatalf("expected api-7, got %q", got)
	}
}

func TestGetIDFallsBackToDyno(t *testing.T) {
	t.Setenv("SOLARPO_INSTANCE_ID", "")
	t.Setenv("DYNO", "worker.2")
	if got := GetID("cron-worker"); got != "worker.2" {
		t.Fatalf("expected worker.2, got %q", got)
	}
}

func TestGetIDUsesServiceName(t *testing.T) {
	t.Setenv("SOLARPO_INSTANCE_ID", "")
	t.Setenv("DYNO", "")
	if got := GetID("outbox-publisher"); !strings.HasPrefix(got, "outbox-publisher") {
		t.Fatalf("expected service prefix, got %q", got)
	}
}
