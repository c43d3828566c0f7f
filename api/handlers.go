package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskflow-api/domain"
	"taskflow-api/genai"
	"taskflow-api/store"
)

const requestBodyMaxSize = 64 * 1024 // 64 KiB

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, sessions Sessions, flows FlowRunner, auth Authenticator, logger *log.Logger) {
	e.GET("/healthz", healthz())

	e.GET("/api/tasks", getTasks(sessions, auth))
	e.POST("/api/tasks", postTask(sessions, auth))
	e.PATCH("/api/tasks/:id", patchTask(sessions, auth))
	e.DELETE("/api/tasks/:id", deleteTask(sessions, auth))
	e.POST("/api/tasks/:id/move", moveTask(sessions, auth))
	e.POST("/api/tasks/reprioritize", reprioritizeTasks(sessions, flows, auth, logger))

	e.GET("/api/notifications", getNotifications(sessions, auth))
	e.POST("/api/notifications/read", markNotificationsRead(sessions, auth))
	e.GET("/api/notifications/stream", streamNotifications(sessions, auth))

	e.GET("/api/dashboard", getDashboard(sessions, auth))
	e.POST("/api/signout", signOut(sessions, auth))

	e.POST("/api/ai/describe", describeTask(flows, auth, logger))
	e.POST("/api/ai/subtasks", suggestSubtasks(flows, auth, logger))
	e.POST("/api/ai/draft", draftTask(flows, auth, logger))
	e.POST("/api/ai/image", generateImage(flows, auth, logger))
	e.POST("/api/ai/parse", parseTask(flows, auth, logger))
	e.POST("/api/ai/summarize", summarizeDashboard(sessions, flows, auth, logger))
	e.POST("/api/ai/narrate", narrateSummary(flows, auth, logger))
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func authedUser(c echo.Context, auth Authenticator) (string, error) {
	return auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type tasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

func getTasks(sessions Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := authedUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		sess := sessions.Session(c.Request().Context(), userID)
		tasks := sess.Tasks()

		var priority *domain.Priority
		if raw := c.QueryParam("priority"); raw != "" {
			p := domain.Priority(raw)
			if !p.Valid() {
				return c.String(http.StatusBadRequest, "invalid priority")
			}
			priority = &p
		}
		tasks = domain.FilterTasks(tasks, priority, c.QueryParam("q"))
		return c.JSON(http.StatusOK, tasksResponse{Tasks: tasks})
	}
}

func postTask(sessions Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := authedUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var draft domain.TaskDraft
		if err := decodeBody(c, &draft); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if draft.Title == "" {
			return c.String(http.StatusBadRequest, "title is required")
		}
		if draft.Priority == "" {
			draft.Priority = domain.PriorityMedium
		}
		if !draft.Priority.Valid() {
			return c.String(http.StatusBadRequest, "invalid priority")
		}
		sess := sessions.Session(c.Request().Context(), userID)
		task := sess.CreateTask(c.Request().Context(), draft)
		return c.JSON(http.StatusCreated, task)
	}
}

func patchTask(sessions Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := authedUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var patch domain.TaskPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if patch.Priority != nil && !patch.Priority.Valid() {
			return c.String(http.StatusBadRequest, "invalid priority")
		}
		if patch.Status != nil && !patch.Status.Valid() {
			return c.String(http.StatusBadRequest, "invalid status")
		}
		sess := sessions.Session(c.Request().Context(), userID)
		sess.UpdateTask(c.Request().Context(), c.Param("id"), patch)
		return c.NoContent(http.StatusNoContent)
	}
}

func deleteTask(sessions Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := authedUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		sess := sessions.Session(c.Request().Context(), userID)
		sess.DeleteTask(c.Request().Context(), c.Param("id"))
		return c.NoContent(http.StatusNoContent)
	}
}

type moveRequest struct {
	Status domain.Status `json:"status"`
}

func moveTask(sessions Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := authedUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req moveRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if !req.Status.Valid() {
			return c.String(http.StatusBadRequest, "invalid status")
		}
		sess := sessions.Session(c.Request().Context(), userID)
		sess.MoveTask(c.Request().Context(), c.Param("id"), req.Status)
		return c.NoContent(http.StatusNoContent)
	}
}

type reprioritizeResponse struct {
	Applied          int                  `json:"applied"`
	PrioritizedTasks []genai.TaskPriority `json:"prioritizedTasks"`
}

func reprioritizeTasks(sessions Sessions, flows FlowRunner, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newFlowRequestMetrics(ctx, logger, "reprioritize")
		if spanCtx != nil {
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := authedUser(c, auth)
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		sess := sessions.Session(ctx, userID)
		tasks := sess.Tasks()
		infos := make([]genai.TaskInfo, 0, len(tasks))
		for _, t := range tasks {
			infos = append(infos, genai.TaskInfo{ID: t.ID, Title: t.Title, Description: t.Description})
		}

		flowStart := time.Now()
		resp, flowErr := flows.Reprioritize(ctx, genai.ReprioritizeRequest{Tasks: infos})
		metrics.ObserveFlow(time.Since(flowStart))
		if flowErr != nil {
			metrics.SetErrorStage("flow")
			err = flowErrorResponse(c, flowErr)
			return err
		}

		updates := make([]store.TaskUpdate, 0, len(resp.PrioritizedTasks))
		for _, pt := range resp.PrioritizedTasks {
			p := pt.Priority
			updates = append(updates, store.TaskUpdate{
				ID:    pt.ID,
				Patch: domain.TaskPatch{Priority: &p},
			})
		}
		applied := sess.UpdateTasks(ctx, updates)

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, reprioritizeResponse{
			Applied:          applied,
			PrioritizedTasks: resp.PrioritizedTasks,
		})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

type notificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unreadCount"`
}

func getNotifications(sessions Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := authedUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		sess := sessions.Session(c.Request().Context(), userID)
		return c.JSON(http.StatusOK, notificationsResponse{
			Notifications: sess.Notifications(),
			UnreadCount:   sess.UnreadCount(),
		})
	}
}

func markNotificationsRead(sessions Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := authedUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		sess := sessions.Session(c.Request().Context(), userID)
		sess.MarkAllRead(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	}
}

type dashboardResponse struct {
	Stats    domain.DashboardStats    `json:"stats"`
	Overdue  []domain.Task            `json:"overdue"`
	Upcoming []domain.Task            `json:"upcoming"`
	ByDueDay map[string][]domain.Task `json:"byDueDay"`
}

func getDashboard(sessions Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := authedUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		sess := sessions.Session(c.Request().Context(), userID)
		tasks := sess.Tasks()
		now := time.Now()
		return c.JSON(http.StatusOK, dashboardResponse{
			Stats:    domain.ComputeDashboardStats(tasks, now),
			Overdue:  domain.OverdueTasks(tasks, now),
			Upcoming: domain.UpcomingTasks(tasks, now),
			ByDueDay: domain.GroupByDueDay(tasks),
		})
	}
}

func signOut(sessions Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := authedUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		sessions.Deactivate(userID)
		return c.NoContent(http.StatusNoContent)
	}
}

// flowEndpoint wraps the shared auth, metrics and error handling around one
// AI flow call. run decodes the request body itself and returns the value to
// encode.
func flowEndpoint(name string, auth Authenticator, logger *log.Logger, run func(c echo.Context, ctx context.Context, userID string) (any, error)) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newFlowRequestMetrics(ctx, logger, name)
		if spanCtx != nil {
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := authedUser(c, auth)
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		flowStart := time.Now()
		out, flowErr := run(c, ctx, userID)
		metrics.ObserveFlow(time.Since(flowStart))
		if flowErr != nil {
			if genai.IsValidation(flowErr) || errors.Is(flowErr, errInvalidBody) {
				metrics.SetErrorStage("validation")
			} else {
				metrics.SetErrorStage("flow")
			}
			err = flowErrorResponse(c, flowErr)
			return err
		}

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, out)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

var errInvalidBody = errors.New("invalid body")

type flowErrorBody struct {
	Error string `json:"error"`
}

func flowErrorResponse(c echo.Context, err error) error {
	if errors.Is(err, errInvalidBody) {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	if genai.IsValidation(err) {
		return c.JSON(http.StatusBadRequest, flowErrorBody{Error: err.Error()})
	}
	return c.JSON(http.StatusBadGateway, flowErrorBody{Error: err.Error()})
}

func describeTask(flows FlowRunner, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return flowEndpoint("describe", auth, logger, func(c echo.Context, ctx context.Context, _ string) (any, error) {
		var req genai.DescribeRequest
		if err := decodeBody(c, &req); err != nil {
			return nil, errInvalidBody
		}
		return flows.Describe(ctx, req)
	})
}

func suggestSubtasks(flows FlowRunner, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return flowEndpoint("suggest-subtasks", auth, logger, func(c echo.Context, ctx context.Context, _ string) (any, error) {
		var req genai.SubtasksRequest
		if err := decodeBody(c, &req); err != nil {
			return nil, errInvalidBody
		}
		return flows.SuggestSubtasks(ctx, req)
	})
}

func draftTask(flows FlowRunner, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return flowEndpoint("draft-task", auth, logger, func(c echo.Context, ctx context.Context, _ string) (any, error) {
		var req genai.DraftTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return nil, errInvalidBody
		}
		return flows.DraftTask(ctx, req)
	})
}

func generateImage(flows FlowRunner, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return flowEndpoint("generate-image", auth, logger, func(c echo.Context, ctx context.Context, _ string) (any, error) {
		var req genai.ImageRequest
		if err := decodeBody(c, &req); err != nil {
			return nil, errInvalidBody
		}
		return flows.GenerateImage(ctx, req)
	})
}

func parseTask(flows FlowRunner, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return flowEndpoint("parse-task", auth, logger, func(c echo.Context, ctx context.Context, _ string) (any, error) {
		var req genai.ParseTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return nil, errInvalidBody
		}
		if req.CurrentDate.IsZero() {
			req.CurrentDate = time.Now()
		}
		return flows.ParseTask(ctx, req)
	})
}

func summarizeDashboard(sessions Sessions, flows FlowRunner, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return flowEndpoint("summarize-dashboard", auth, logger, func(c echo.Context, ctx context.Context, userID string) (any, error) {
		tasks := sessions.Session(ctx, userID).Tasks()
		stats := domain.ComputeDashboardStats(tasks, time.Now())
		return flows.SummarizeDashboard(ctx, genai.SummaryRequest{
			TotalTasks:     stats.Total,
			CompletedTasks: stats.Done,
			OverdueTasks:   stats.Overdue,
			UpcomingTasks:  stats.Upcoming,
		})
	})
}

func narrateSummary(flows FlowRunner, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return flowEndpoint("narrate-summary", auth, logger, func(c echo.Context, ctx context.Context, _ string) (any, error) {
		var req genai.NarrateRequest
		if err := decodeBody(c, &req); err != nil {
			return nil, errInvalidBody
		}
		return flows.NarrateSummary(ctx, req)
	})
}
