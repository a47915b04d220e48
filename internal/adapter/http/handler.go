package httpadapter

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"chaserbot/internal/app/ports"
	"chaserbot/internal/app/replay"
	"chaserbot/internal/app/status"
)

// Handler serves the read-only match API used by visualizers.
type Handler struct {
	StatusUC status.UseCase
	ReplayUC *replay.UseCase
	KPI      kpiSnapshotProvider
	Journal  journalStats
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())
	s.GET("/healthz", h.healthz)

	api := s.Group("/api")
	api.GET("/state", h.state)
	api.GET("/replay", h.replay)

	s.GET("/ops/kpi", h.kpi)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

type journalStats interface {
	Dropped() uint64
	Written() uint64
}

func (h Handler) healthz(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

func (h Handler) state(c context.Context, ctx *app.RequestContext) {
	resp, err := h.StatusUC.Execute(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) replay(c context.Context, ctx *app.RequestContext) {
	if h.ReplayUC == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "journal not configured")
		return
	}
	limit, err := optionalInt(string(ctx.Query("limit")))
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "limit must be an integer")
		return
	}
	occurredFrom, _ := strconv.ParseInt(string(ctx.Query("occurred_from")), 10, 64)
	occurredTo, _ := strconv.ParseInt(string(ctx.Query("occurred_to")), 10, 64)
	resp, err := h.ReplayUC.Execute(c, replay.Request{
		MatchID:      string(ctx.Query("match_id")),
		Limit:        limit,
		OccurredFrom: occurredFrom,
		OccurredTo:   occurredTo,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	body := map[string]any{"decisions": h.KPI.SnapshotAny()}
	if h.Journal != nil {
		body["journal"] = map[string]uint64{
			"written": h.Journal.Written(),
			"dropped": h.Journal.Dropped(),
		}
	}
	ctx.JSON(consts.StatusOK, body)
}

func optionalInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, status.ErrNotJoined):
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "not_joined", err.Error())
	case errors.Is(err, replay.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
