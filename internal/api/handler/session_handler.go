package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jaibharat/management-hub/internal/api/metrics"
	"github.com/jaibharat/management-hub/internal/api/middleware"
	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/ports"
	"github.com/jaibharat/management-hub/internal/core/service"
)

const heartbeatInterval = 15 * time.Second

// SessionLeaser hands out session contexts that stay live while leased.
type SessionLeaser interface {
	middleware.SessionLookup
	Acquire(sessionID string) (*service.SessionContext, func())
}

// SessionHandler exposes the session state and a live guard outcome feed.
type SessionHandler struct {
	sessions       SessionLeaser
	policy         *service.RolePolicy
	loadingTimeout time.Duration
	heartbeat      time.Duration
	log            zerolog.Logger
}

func NewSessionHandler(sessions SessionLeaser, policy *service.RolePolicy, loadingTimeout time.Duration, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:       sessions,
		policy:         policy,
		loadingTimeout: loadingTimeout,
		heartbeat:      heartbeatInterval,
		log:            log,
	}
}

type sessionResponse struct {
	State    string           `json:"state"`
	Identity *domain.Identity `json:"identity,omitempty"`
	Roles    []domain.Role    `json:"roles"`
}

// Current reports the session state of the calling browser.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /api/session [get]
func (h *SessionHandler) Current(c echo.Context) error {
	session, err := ctxSession(c, h.sessions)
	if err != nil {
		return err
	}
	state := resolvedState(c, session, h.loadingTimeout)

	resp := sessionResponse{State: state.Kind().String(), Roles: []domain.Role{}}
	if id, ok := state.Identity(); ok {
		resp.Identity = &id
		resp.Roles = append(resp.Roles, domain.RoleStudent)
		if h.policy.IsAdmin(id) {
			resp.Roles = append(resp.Roles, domain.RoleAdmin)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

type outcomeEvent struct {
	Outcome   string           `json:"outcome"`
	Target    string           `json:"target,omitempty"`
	LoginPath string           `json:"login_path,omitempty"`
	Identity  *domain.Identity `json:"identity,omitempty"`
}

// Stream mounts a guard for the requested group on the caller's session and
// pushes every outcome as a server-sent event until the client goes away.
//
// @Summary      Guard outcome stream
// @Tags         session
// @Produce      text/event-stream
// @Param        group  query  string  true   "Route group"  Enums(admin, student)
// @Param        path   query  string  false  "Path the viewer is on"
// @Success      200
// @Failure      400  {object}  map[string]string
// @Router       /api/session/stream [get]
func (h *SessionHandler) Stream(c echo.Context) error {
	group, ok := domain.GroupByName(c.QueryParam("group"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown route group")
	}
	sid := middleware.SessionID(c)
	if sid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	session, release := h.sessions.Acquire(sid)
	defer release()

	path := service.SafeRedirect(c.QueryParam("path"), group.LoginRole())
	sink := newStreamSink(path)
	m := service.NewAccessGuard(group, h.policy).Mount(session, sink, service.GuardViews{
		Protected: sink,
		Loading:   sink,
		Denied:    sink,
	}, nil)
	defer m.Unmount()

	metrics.GuardStreamsActive.Inc()
	defer metrics.GuardStreamsActive.Dec()
	h.log.Debug().Str("group", group.Name).Str("path", path).Msg("guard stream opened")

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	var last service.Outcome
	sent := false
	for {
		if out := m.Outcome(); !sent || out != last {
			if err := writeOutcome(res, out); err != nil {
				return nil
			}
			last, sent = out, true
		}

		select {
		case <-c.Request().Context().Done():
			return nil
		case <-sink.changed:
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeOutcome(res *echo.Response, out service.Outcome) error {
	ev := outcomeEvent{Outcome: out.Kind.String(), Target: out.Target, LoginPath: out.LoginPath}
	if out.Kind == service.OutcomeRender || out.Kind == service.OutcomeDenied {
		id := out.Identity
		ev.Identity = &id
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: outcome\ndata: %s\n\n", data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

// streamSink is the navigator and every view of a streamed mount. Each
// call just wakes the stream loop, which reads the mount's latest outcome.
type streamSink struct {
	path    string
	changed chan struct{}
}

func newStreamSink(path string) *streamSink {
	return &streamSink{path: path, changed: make(chan struct{}, 1)}
}

func (s *streamSink) Navigate(string, ports.NavigateOptions) { s.wake() }
func (s *streamSink) CurrentPath() string                    { return s.path }
func (s *streamSink) Render(map[string]any)                  { s.wake() }

func (s *streamSink) wake() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
