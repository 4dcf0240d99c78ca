package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/groupwarden/warden/moderation/truststore"
	"github.com/groupwarden/warden/moderation/warnstore"
)

// Test fakes and fixture constructors. Intentionally exported, for use in
// other packages' tests.

type PlatformCall struct {
	Method    string
	ChatID    int64
	UserID    int64
	MessageID int64
	Text      string
}

// ChatPlatform fake which records every call and can be told to fail or
// deny moderation for specific chats.
type RecordingPlatform struct {
	lk    sync.Mutex
	calls []PlatformCall
	// chats where every mutating call returns an error
	FailChats map[int64]bool
	// chats where CanModerate reports false
	UnmoderatableChats map[int64]bool
}

func NewRecordingPlatform() *RecordingPlatform {
	return &RecordingPlatform{
		FailChats:          make(map[int64]bool),
		UnmoderatableChats: make(map[int64]bool),
	}
}

func (p *RecordingPlatform) record(call PlatformCall) error {
	p.lk.Lock()
	defer p.lk.Unlock()
	p.calls = append(p.calls, call)
	if p.FailChats[call.ChatID] {
		return fmt.Errorf("platform rejected %s in chat %d", call.Method, call.ChatID)
	}
	return nil
}

// Copy of all recorded calls, in order.
func (p *RecordingPlatform) Calls() []PlatformCall {
	p.lk.Lock()
	defer p.lk.Unlock()
	out := make([]PlatformCall, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *RecordingPlatform) CallCount(method string) int {
	p.lk.Lock()
	defer p.lk.Unlock()
	n := 0
	for _, c := range p.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (p *RecordingPlatform) BanMember(ctx context.Context, chatID, userID int64, until time.Time) error {
	return p.record(PlatformCall{Method: "ban", ChatID: chatID, UserID: userID})
}

func (p *RecordingPlatform) UnbanMember(ctx context.Context, chatID, userID int64) error {
	return p.record(PlatformCall{Method: "unban", ChatID: chatID, UserID: userID})
}

func (p *RecordingPlatform) RestrictMember(ctx context.Context, chatID, userID int64, until time.Time) error {
	return p.record(PlatformCall{Method: "restrict", ChatID: chatID, UserID: userID})
}

func (p *RecordingPlatform) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return p.record(PlatformCall{Method: "delete", ChatID: chatID, MessageID: messageID})
}

func (p *RecordingPlatform) SendMessage(ctx context.Context, chatID int64, text string) error {
	return p.record(PlatformCall{Method: "send", ChatID: chatID, Text: text})
}

func (p *RecordingPlatform) CanModerate(ctx context.Context, chatID int64) (bool, error) {
	return !p.UnmoderatableChats[chatID], nil
}

// TargetRegistry fake over a fixed slice.
type StaticRegistry struct {
	Targets []Target
}

func (r StaticRegistry) ListActive(ctx context.Context) ([]Target, error) {
	return r.Targets, nil
}

// HealthGate backed directly by platform permission checks, no caching.
type ProbeHealthGate struct {
	Platform ChatPlatform
}

func (g ProbeHealthGate) FilterHealthy(ctx context.Context, targets []Target) []Target {
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		if ok, err := g.Platform.CanModerate(ctx, t.ID); err == nil && ok {
			out = append(out, t)
		}
	}
	return out
}

// Engine over mem stores, a recording platform, and three healthy chats.
func EngineTestFixture() (*Engine, *RecordingPlatform) {
	platform := NewRecordingPlatform()
	eng := &Engine{
		Logger:   slog.Default(),
		Platform: platform,
		Targets: StaticRegistry{Targets: []Target{
			{ID: 1001, Title: "general"},
			{ID: 1002, Title: "offtopic"},
			{ID: 1003, Title: "support"},
		}},
		Health:   ProbeHealthGate{Platform: platform},
		Trust:    truststore.NewMemTrustStore(),
		Warnings: warnstore.NewMemWarnStore(),
	}
	return eng, platform
}
