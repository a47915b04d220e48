package httpadapter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	metricsinmem "chaserbot/internal/adapter/metrics/inmemory"
	"chaserbot/internal/adapter/repo/memory"
	"chaserbot/internal/app/ports"
	"chaserbot/internal/app/replay"
	"chaserbot/internal/app/status"
	"chaserbot/internal/domain/match"
	"chaserbot/internal/domain/world"
	"chaserbot/internal/protocol"
)

func TestState_NotJoined(t *testing.T) {
	h := Handler{StatusUC: status.UseCase{Sessions: fakeSessions{}}}
	ctx := &app.RequestContext{}

	h.state(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusServiceUnavailable; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	assertErrorCode(t, ctx, "not_joined")
}

func TestState_ReturnsSnapshot(t *testing.T) {
	players, _ := match.Resolve("bot", "bot", "alice")
	players.Us.Pos = world.Point{X: 1, Y: 1}
	st := match.GameState{
		MatchID:   "m1",
		Room:      "r1",
		Phase:     match.Turn(world.SideCold),
		Map:       world.NewMap(4, 4),
		TurnsLeft: 50,
		Players:   players,
	}
	h := Handler{StatusUC: status.UseCase{Sessions: fakeSessions{session: fakeSession{st: st}}}}
	ctx := &app.RequestContext{}

	h.state(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusOK; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	var body map[string]any
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body["match_id"] != "m1" || body["turns_left"] != 50.0 || body["acting"] != "cold" {
		t.Fatalf("unexpected body: %v", body)
	}
	us, _ := body["us"].(map[string]any)
	if us["side"] != "cold" || us["x"] != 1.0 {
		t.Fatalf("unexpected us: %v", us)
	}
}

func TestReplay_ReturnsJournaledEvents(t *testing.T) {
	store := memory.NewStore()
	events := memory.NewEventRepo(store)
	at := time.Unix(1700000000, 0)
	if err := events.Append(context.Background(), "m1", []match.DomainEvent{
		{Type: match.EventBoard, OccurredAt: at, Payload: map[string]any{"phase": "turn", "turns_left": 30, "score_us": 1, "score_opponent": 0}},
		{Type: match.EventCommand, OccurredAt: at.Add(time.Second), Payload: map[string]any{"packet": "look"}},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	h := Handler{ReplayUC: &replay.UseCase{Events: events}}
	ctx := &app.RequestContext{}
	ctx.Request.SetRequestURI("/api/replay?match_id=m1&limit=10")

	h.replay(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusOK; got != want {
		t.Fatalf("status mismatch: got=%d want=%d body=%s", got, want, ctx.Response.Body())
	}
	var body struct {
		MatchID string           `json:"match_id"`
		Events  []map[string]any `json:"events"`
		Latest  map[string]any   `json:"latest"`
	}
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.MatchID != "m1" || len(body.Events) != 2 {
		t.Fatalf("unexpected replay body: %+v", body)
	}
	if body.Latest["turns_left"] != 30.0 || body.Latest["commands"] != 1.0 {
		t.Fatalf("unexpected latest: %v", body.Latest)
	}
}

func TestReplay_RejectsBadRequests(t *testing.T) {
	h := Handler{ReplayUC: &replay.UseCase{Events: memory.NewEventRepo(memory.NewStore())}}
	cases := []struct {
		uri  string
		code int
		err  string
	}{
		{uri: "/api/replay?limit=5", code: consts.StatusBadRequest, err: "bad_request"},
		{uri: "/api/replay?match_id=m1&limit=abc", code: consts.StatusBadRequest, err: "bad_request"},
		{uri: "/api/replay?match_id=missing", code: consts.StatusNotFound, err: "not_found"},
	}
	for _, tc := range cases {
		ctx := &app.RequestContext{}
		ctx.Request.SetRequestURI(tc.uri)
		h.replay(context.Background(), ctx)
		if got := ctx.Response.StatusCode(); got != tc.code {
			t.Fatalf("%s: status mismatch: got=%d want=%d", tc.uri, got, tc.code)
		}
		assertErrorCode(t, ctx, tc.err)
	}
}

func TestReplay_NotConfigured(t *testing.T) {
	ctx := &app.RequestContext{}
	Handler{}.replay(context.Background(), ctx)
	if got, want := ctx.Response.StatusCode(), consts.StatusNotFound; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	assertErrorCode(t, ctx, "not_configured")
}

func TestKPI_IncludesJournalCounters(t *testing.T) {
	rec := metricsinmem.NewRecorder()
	rec.RecordCommand("move_player")
	h := Handler{KPI: rec, Journal: fixedJournal{written: 7, dropped: 1}}
	ctx := &app.RequestContext{}

	h.kpi(context.Background(), ctx)

	var body struct {
		Decisions map[string]any    `json:"decisions"`
		Journal   map[string]uint64 `json:"journal"`
	}
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.Decisions["command_total"] != 1.0 {
		t.Fatalf("unexpected decisions: %v", body.Decisions)
	}
	if body.Journal["written"] != 7 || body.Journal["dropped"] != 1 {
		t.Fatalf("unexpected journal: %v", body.Journal)
	}
}

func TestHealthz(t *testing.T) {
	ctx := &app.RequestContext{}
	Handler{}.healthz(context.Background(), ctx)
	if got, want := string(ctx.Response.Body()), `{"status":"ok"}`; got != want {
		t.Fatalf("body mismatch: got=%q want=%q", got, want)
	}
}

func assertErrorCode(t *testing.T, ctx *app.RequestContext, want string) {
	t.Helper()
	var body map[string]map[string]any
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got := body["error"]["code"]; got != want {
		t.Fatalf("error code mismatch: got=%q want=%q", got, want)
	}
}

type fakeSessions struct {
	session ports.GameSession
}

func (f fakeSessions) Current() (ports.GameSession, bool) {
	return f.session, f.session != nil
}

type fakeSession struct {
	st match.GameState
}

func (f fakeSession) Snapshot() match.GameState { return f.st.Clone() }

func (f fakeSession) Submit(context.Context, protocol.Command) error { return nil }

type fixedJournal struct {
	written, dropped uint64
}

func (j fixedJournal) Written() uint64 { return j.written }
func (j fixedJournal) Dropped() uint64 { return j.dropped }
