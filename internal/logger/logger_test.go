package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSecretsAreRedacted(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.Info("token issued", "user_id", 7, "token", "abc.def.ghi", "jwt_secret", "s3cr3t")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["token"] != "[REDACTED]" || fields["jwt_secret"] != "[REDACTED]" {
		t.Fatalf("expected credentials redacted, got %+v", fields)
	}
	if fields["user_id"] != int64(7) {
		t.Fatalf("expected user_id kept, got %+v", fields["user_id"])
	}
}
