// Package gateway serves recorded QA passes over HTTP. The API is read-only:
// passes are created by running scans from the CLI, the gateway only reports
// on them.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes/model"
	"github.com/fieldstone-cms/sitecheck/pkg/types"
	"github.com/fieldstone-cms/sitecheck/pkg/types/timestamp"
)

var log = logging.Logger("gateway")

// shutdownTimeout bounds how long a graceful shutdown may take once the
// server's context is canceled.
const shutdownTimeout = 5 * time.Second

// PassView is the JSON shape of a pass served over the API.
type PassView struct {
	ID             string              `json:"id"`
	State          string              `json:"state"`
	ExpectedSteps  int                 `json:"expected_steps"`
	CompletedSteps int                 `json:"completed_steps"`
	Error          string              `json:"error,omitempty"`
	CreatedAt      timestamp.Timestamp `json:"created_at"`
	UpdatedAt      timestamp.Timestamp `json:"updated_at"`
}

// NewPassView builds the JSON view of a pass.
func NewPassView(pass *model.Pass) PassView {
	view := PassView{
		ID:             pass.ID().String(),
		State:          string(pass.State()),
		ExpectedSteps:  pass.ExpectedSteps(),
		CompletedSteps: pass.CompletedSteps(),
		CreatedAt:      pass.CreatedAt(),
		UpdatedAt:      pass.UpdatedAt(),
	}
	if err := pass.Error(); err != nil {
		view.Error = err.Error()
	}
	return view
}

// ResultView is the JSON shape of a step result served over the API.
type ResultView struct {
	ID        string              `json:"id"`
	PassID    string              `json:"pass_id"`
	CheckID   string              `json:"check_id"`
	Step      string              `json:"step"`
	Passed    bool                `json:"passed"`
	Payload   json.RawMessage     `json:"payload,omitempty"`
	CreatedAt timestamp.Timestamp `json:"created_at"`
}

// NewResultView builds the JSON view of a step result.
func NewResultView(result *model.StepResult) ResultView {
	return ResultView{
		ID:        result.ID().String(),
		PassID:    result.PassID().String(),
		CheckID:   result.CheckID(),
		Step:      result.Step(),
		Passed:    result.Passed(),
		Payload:   result.Payload(),
		CreatedAt: result.CreatedAt(),
	}
}

// Server is an HTTP server exposing recorded passes and their step results.
type Server struct {
	Passes passes.API

	echo *echo.Echo
}

// New builds a Server routing the results API over the given passes API.
func New(passesAPI passes.API) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(echo.WrapMiddleware(otelhttp.NewMiddleware("gateway")))

	s := &Server{Passes: passesAPI, echo: e}

	e.GET("/healthz", s.health)
	e.GET("/api/passes", s.listPasses)
	e.GET("/api/passes/:id", s.getPass)
	e.GET("/api/passes/:id/results", s.passResults)

	return s
}

// ServeHTTP dispatches a request to the gateway's routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start serves on addr until ctx is canceled, then shuts the server down
// gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	// shut down the server gracefully on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			log.Errorf("shutting down server: %s", err)
		}
	}()

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("closing server: %w", err)
	}
	return nil
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listPasses(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	recorded, err := s.Passes.ListPasses(c.Request().Context(), limit)
	if err != nil {
		return fmt.Errorf("listing passes: %w", err)
	}

	views := make([]PassView, 0, len(recorded))
	for _, pass := range recorded {
		views = append(views, NewPassView(pass))
	}
	return c.JSON(http.StatusOK, views)
}

func (s *Server) getPass(c echo.Context) error {
	pass, err := s.lookupPass(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewPassView(pass))
}

func (s *Server) passResults(c echo.Context) error {
	pass, err := s.lookupPass(c)
	if err != nil {
		return err
	}

	results, err := s.Passes.ResultsForPass(c.Request().Context(), pass.ID())
	if err != nil {
		return fmt.Errorf("listing results for pass %s: %w", pass.ID(), err)
	}

	views := make([]ResultView, 0, len(results))
	for _, result := range results {
		views = append(views, NewResultView(result))
	}
	return c.JSON(http.StatusOK, views)
}

func (s *Server) lookupPass(c echo.Context) (*model.Pass, error) {
	passID, err := types.ParsePassID(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid pass ID")
	}
	pass, err := s.Passes.GetPass(c.Request().Context(), passID)
	if err != nil {
		return nil, fmt.Errorf("loading pass %s: %w", passID, err)
	}
	if pass == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "pass not found")
	}
	return pass, nil
}

func requestLogger(log *logging.ZapEventLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			log.Debugw("request",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", c.Response().Status,
				"duration", time.Since(start),
			)
			return err
		}
	}
}
