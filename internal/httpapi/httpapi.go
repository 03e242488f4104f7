// Package httpapi is the thin HTTP shell over internal/job and
// internal/resultstore: job submission, status polling, and a
// websocket heartbeat feed, plus the job console's static page. It never
// implements simulation logic itself — every route either resolves
// request parameters into internal/job.Inputs and calls Dispatch, or
// reads back an already-written result directory.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"luxera/cmd/web"
	"luxera/internal/direct"
	"luxera/internal/errs"
	"luxera/internal/geometry"
	"luxera/internal/hashutil"
	"luxera/internal/job"
	"luxera/internal/logger"
	"luxera/internal/photocache"
	"luxera/internal/photometry"
	"luxera/internal/resultstore"
)

// Config controls where submitted jobs read photometry from and where
// results are cached.
type Config struct {
	ResultsRoot   string
	SchemaVersion int
	Cache         photocache.Cache // may be nil to disable cross-run photometry caching
}

// Server wires Config to an Echo handler tree.
type Server struct {
	cfg Config
}

// NewServer builds a Server; port selection and listener startup are the
// caller's responsibility (see cmd/luxera-server).
func NewServer(cfg Config) *Server {
	if cfg.ResultsRoot == "" {
		cfg.ResultsRoot = ".luxera/results"
	}
	if cfg.SchemaVersion == 0 {
		cfg.SchemaVersion = 5
	}
	return &Server{cfg: cfg}
}

// Handler returns the registered Echo router.
func (s *Server) Handler() http.Handler {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"http://*", "https://*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowHeaders:     []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.GET("/", s.consoleHandler)
	e.GET("/health", s.healthHandler)
	e.POST("/jobs", s.submitJobHandler)
	e.GET("/jobs/:hash", s.jobStatusHandler)
	e.GET("/jobs/log", s.jobLogHandler)
	e.GET("/docs", echo.WrapHandler(http.HandlerFunc(web.DocsPageWebHandler)))

	return e
}

func (s *Server) healthHandler(c echo.Context) error {
	stats := map[string]string{"status": "up"}
	if s.cfg.Cache != nil {
		stats = s.cfg.Cache.Health()
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) consoleHandler(c echo.Context) error {
	rows, err := s.listJobRows()
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return web.Console(rows).Render(c.Request().Context(), c.Response())
}

func (s *Server) listJobRows() ([]web.JobRow, error) {
	entries, err := os.ReadDir(s.cfg.ResultsRoot)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("httpapi: list results: %w", err)
	}
	rows := make([]web.JobRow, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir, ok := resultstore.Exists(s.cfg.ResultsRoot, e.Name())
		status := "pending"
		if ok {
			status = "complete"
		}
		rows = append(rows, web.JobRow{Hash: e.Name(), Status: status, ResultDir: dir})
	}
	return rows, nil
}

// submitRequest is the JSON body accepted by POST /jobs: a job spec plus
// enough scene description to resolve internal/job.Inputs without a full
// project-file ingestion pipeline (a single photometry asset placed at
// an explicit position, evaluated over a rectangular grid).
type submitRequest struct {
	Type             string            `json:"type"`
	Backend          string            `json:"backend"`
	Settings         map[string]string `json:"settings"`
	Seed             uint64            `json:"seed"`
	PhotometryPath   string            `json:"photometry_path"`
	LuminairePos     [3]float64        `json:"luminaire_position"`
	GridOrigin       [3]float64        `json:"grid_origin"`
	GridWidth        float64           `json:"grid_width"`
	GridHeight       float64           `json:"grid_height"`
	GridNx           int               `json:"grid_nx"`
	GridNy           int               `json:"grid_ny"`
}

func (s *Server) submitJobHandler(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	rec := errs.NewRecovery()
	table, err := s.loadPhotometry(req.PhotometryPath, rec)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	luminaire := &photometry.Luminaire{
		ID:            "submitted",
		PhotometryRef: table,
		Transform:     geometry.NewEulerZYX(vec3(req.LuminairePos), 0, 0, 0, 1),
		FluxMultiplier: 1,
	}

	nx, ny := req.GridNx, req.GridNy
	if nx <= 0 {
		nx = 5
	}
	if ny <= 0 {
		ny = 5
	}
	target := direct.RectGrid{
		Origin: vec3(req.GridOrigin),
		AxisU:  geometry.NewDirection(geometry.Vector3{X: 1}),
		AxisV:  geometry.NewDirection(geometry.Vector3{Y: 1}),
		Width:  req.GridWidth, Height: req.GridHeight,
		Nx: nx, Ny: ny,
		Normal: geometry.NewDirection(geometry.Vector3{Z: 1}),
	}

	spec := job.Spec{
		ID:       fmt.Sprintf("submit-%d", time.Now().UnixNano()),
		Type:     job.Type(req.Type),
		Backend:  req.Backend,
		Settings: req.Settings,
		Seed:     req.Seed,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Minute)
	defer cancel()

	outcome, err := job.Dispatch(ctx, s.cfg.ResultsRoot, s.cfg.SchemaVersion, spec, job.Inputs{
		Luminaires: []*photometry.Luminaire{luminaire},
		Target:     target,
		Rec:        rec,
	})
	if err != nil {
		logger.Default.Errorf("job dispatch failed: %v", err)
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"job_hash":   outcome.Hash,
		"result_dir": outcome.ResultDir,
		"cached":     outcome.Cached,
	})
}

// loadPhotometry parses path and, when a cache is configured, stores the
// parsed table's stable JSON under its content hash.
func (s *Server) loadPhotometry(path string, rec *errs.Recovery) (*photometry.CanonicalPhotometry, error) {
	table, err := photometry.Load(path, rec)
	if err != nil {
		return nil, err
	}
	if s.cfg.Cache != nil {
		if blob, err := hashutil.StableJSON(table); err == nil {
			_ = s.cfg.Cache.Put(table.Hash(), blob)
		}
	}
	return table, nil
}

func (s *Server) jobStatusHandler(c echo.Context) error {
	hash := c.Param("hash")
	dir, ok := resultstore.Exists(s.cfg.ResultsRoot, hash)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"status": "pending"})
	}
	data, err := os.ReadFile(filepath.Join(dir, "result.json"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.Blob(http.StatusOK, "application/json", data)
}

func (s *Server) jobLogHandler(c echo.Context) error {
	socket, err := websocket.Accept(c.Response().Writer, c.Request(), nil)
	if err != nil {
		return nil
	}
	defer socket.Close(websocket.StatusGoingAway, "server closing websocket")

	ctx := socket.CloseRead(c.Request().Context())
	for {
		msg := "luxera " + strconv.FormatInt(time.Now().Unix(), 10)
		if err := socket.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(2 * time.Second):
		}
	}
}

func vec3(a [3]float64) geometry.Vector3 {
	return geometry.Vector3{X: a[0], Y: a[1], Z: a[2]}
}
