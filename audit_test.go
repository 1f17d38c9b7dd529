package tokenauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/tokenauth/credential"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func newAuditTestEngine(t *testing.T, sink AuditSink, bufferSize int) (*Engine, *credential.MemoryStore) {
	t.Helper()

	store := credential.NewMemoryStore()
	cfg := validTestConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = bufferSize
	cfg.Audit.DropIfFull = false

	engine, err := New().WithConfig(cfg).WithStore(store).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine, store
}

func collect(t *testing.T, sink *ChannelSink, n int) []AuditEvent {
	t.Helper()

	events := make([]AuditEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(events) < n {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("expected %d audit events, got %d", n, len(events))
		}
	}
	return events
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	engine, err := New().
		WithConfig(validTestConfig()).
		WithStore(credential.NewMemoryStore()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	_ = engine.Register(context.Background(), "alice", "pw1")
	_, _, _ = engine.Login(context.Background(), "alice", "wrong")
	engine.Close()

	if got := sink.count.Load(); got != 0 {
		t.Fatalf("expected no sink calls when disabled, got %d", got)
	}
}

func TestAuditEventSequence(t *testing.T) {
	sink := NewChannelSink(32)
	engine, _ := newAuditTestEngine(t, sink, 32)
	ctx := WithClientIP(context.Background(), "198.51.100.33")

	_ = engine.Register(ctx, "alice", "pw1")
	_ = engine.Register(ctx, "alice", "pw1")
	_, _, _ = engine.Login(ctx, "alice", "bad")
	_, refresh, err := engine.Login(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	_, _ = engine.Refresh(ctx, refresh)
	_, _ = engine.Refresh(ctx, "not-stored")
	_ = engine.Logout(ctx, refresh)
	engine.Close()

	events := collect(t, sink, 7)
	want := []struct {
		eventType string
		success   bool
		errCode   string
	}{
		{auditEventRegisterSuccess, true, ""},
		{auditEventRegisterDuplicate, false, string(auditErrDuplicate)},
		{auditEventLoginFailure, false, string(auditErrInvalidCredentials)},
		{auditEventLoginSuccess, true, ""},
		{auditEventRefreshSuccess, true, ""},
		{auditEventRefreshInvalid, false, string(auditErrInvalidToken)},
		{auditEventLogout, true, ""},
	}
	for i, w := range want {
		ev := events[i]
		if ev.EventType != w.eventType || ev.Success != w.success || ev.Error != w.errCode {
			t.Fatalf("event %d: expected %+v, got %+v", i, w, ev)
		}
		if ev.IP != "198.51.100.33" {
			t.Fatalf("event %d: expected client IP, got %q", i, ev.IP)
		}
	}
	if events[5].Metadata["reason"] != "not_stored" {
		t.Fatalf("expected not_stored reason, got %v", events[5].Metadata)
	}
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	sink := NewChannelSink(16)
	engine, store := newAuditTestEngine(t, sink, 16)
	ctx := context.Background()

	const secret = "correct-password-123"
	_ = engine.Register(ctx, "alice", secret)
	_, refresh, err := engine.Login(ctx, "alice", secret)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	access, err := engine.Refresh(ctx, refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	_ = engine.Logout(ctx, refresh)
	engine.Close()

	u, err := store.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	needles := []string{secret, refresh, access, u.PasswordHash}

	for _, ev := range collect(t, sink, 4) {
		flat := fmt.Sprintf("%+v", ev)
		for _, needle := range needles {
			if strings.Contains(flat, needle) {
				t.Fatalf("sensitive value leaked into audit event %s", ev.EventType)
			}
		}
	}
}

func TestAuditErrorCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		want AuditErrorCode
	}{
		{nil, ""},
		{ErrMissingCredentials, auditErrMissingCredentials},
		{ErrPasswordTooLong, auditErrPasswordTooLong},
		{ErrAccountExists, auditErrDuplicate},
		{ErrInvalidCredentials, auditErrInvalidCredentials},
		{ErrRefreshMissing, auditErrMissingToken},
		{ErrRefreshInvalid, auditErrInvalidToken},
		{ErrTokenExpired, auditErrExpiredToken},
		{internalError("login", errors.New("boom")), auditErrInternal},
	}
	for _, tt := range tests {
		if got := auditErrorCode(tt.err); got != tt.want {
			t.Fatalf("auditErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestAuditDroppedCountsOnFullBuffer(t *testing.T) {
	gate := make(chan struct{})
	sink := gateSink(gate)
	cfg := validTestConfig()
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}

	engine, err := New().WithConfig(cfg).WithStore(credential.NewMemoryStore()).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for range 6 {
		_ = engine.Logout(context.Background(), "")
	}
	if engine.AuditDropped() == 0 {
		t.Fatal("expected drops while the sink is blocked")
	}
	close(gate)
	engine.Close()
}

type gateSink chan struct{}

func (g gateSink) Emit(context.Context, AuditEvent) { <-g }
