// Package api implements the REST API for managing l-systems and running
// interpretations.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lemonberrylabs/lindenmaker/internal/logging"
	"github.com/lemonberrylabs/lindenmaker/pkg/lstring"
	"github.com/lemonberrylabs/lindenmaker/pkg/metrics"
	"github.com/lemonberrylabs/lindenmaker/pkg/parser"
	"github.com/lemonberrylabs/lindenmaker/pkg/runtime"
	"github.com/lemonberrylabs/lindenmaker/pkg/store"
	"github.com/lemonberrylabs/lindenmaker/pkg/types"
)

// Config holds optional server dependencies.
type Config struct {
	// Logger receives application logs. Defaults to a no-op logger.
	Logger *slog.Logger

	// AccessLog receives one line per request. Nil disables access logging.
	AccessLog io.Writer
}

// Server is the API server.
type Server struct {
	app      *fiber.App
	store    *store.Store
	logger   *slog.Logger
	metrics  *metrics.Collector
	registry *prometheus.Registry

	mu     sync.RWMutex
	parsed map[string]*parser.Document // cached parsed documents
}

// New creates a new API server.
func New(s *store.Store, cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("registering go collector: %w", err)
	}
	col, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	srv := &Server{
		store:    s,
		logger:   cfg.Logger,
		metrics:  col,
		registry: reg,
		parsed:   make(map[string]*parser.Document),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		BodyLimit:             parser.MaxSourceSize + 64*1024,
	})
	app.Use(recover.New())
	if cfg.AccessLog != nil {
		app.Use(logger.New(logger.Config{Output: cfg.AccessLog}))
	}

	// L-systems API
	app.Post("/v1/lsystems", srv.createLSystem)
	app.Get("/v1/lsystems/:lsystem", srv.getLSystem)
	app.Get("/v1/lsystems", srv.listLSystems)
	app.Patch("/v1/lsystems/:lsystem", srv.updateLSystem)
	app.Delete("/v1/lsystems/:lsystem", srv.deleteLSystem)

	// Interpretations API
	app.Post("/v1/lsystems/:lsystem/interpretations", srv.createInterpretation)
	app.Get("/v1/lsystems/:lsystem/interpretations/:interpretation", srv.getInterpretation)
	app.Get("/v1/lsystems/:lsystem/interpretations", srv.listInterpretations)
	app.Get("/v1/lsystems/:lsystem/interpretations/:interpretation/scene", srv.getScene)
	app.Get("/v1/lsystems/:lsystem/interpretations/:interpretation/scene.obj", srv.getSceneOBJ)

	// Stateless tools
	app.Post("/v1/tokenize", srv.tokenize)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	srv.app = app
	return srv, nil
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// Metrics returns the server's interpreter metrics.
func (s *Server) Metrics() *metrics.Collector {
	return s.metrics
}

// apiError writes the error body shared by every endpoint.
func apiError(c *fiber.Ctx, code int, status, message string, details any) error {
	body := fiber.Map{
		"code":    code,
		"message": message,
		"status":  status,
	}
	if details != nil {
		body["details"] = details
	}
	return c.Status(code).JSON(fiber.Map{"error": body})
}

// storeError maps store errors to HTTP errors.
func storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apiError(c, 404, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, store.ErrAlreadyExists):
		return apiError(c, 409, "ALREADY_EXISTS", err.Error(), nil)
	default:
		return apiError(c, 500, "INTERNAL", err.Error(), nil)
	}
}

// --- L-system Handlers ---

type lsystemRequest struct {
	SourceContents string `json:"sourceContents"`
	Description    string `json:"description"`
}

var validLSystemID = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// MaxLSystemIDLength is the maximum length of an l-system ID.
const MaxLSystemIDLength = 128

func validID(id string) bool {
	return validLSystemID.MatchString(id) && len(id) <= MaxLSystemIDLength
}

func (s *Server) createLSystem(c *fiber.Ctx) error {
	id := c.Query("lsystemId")
	if id == "" {
		return apiError(c, 400, "INVALID_ARGUMENT", "lsystemId query parameter is required", nil)
	}
	if !validID(id) {
		return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid lsystemId %q", id), nil)
	}

	var req lsystemRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err), nil)
	}
	if req.SourceContents == "" {
		return apiError(c, 400, "INVALID_ARGUMENT", "sourceContents is required", nil)
	}

	// Validate by parsing the document
	doc, err := parser.Parse([]byte(req.SourceContents))
	if err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid l-system document: %v", err), nil)
	}

	ls, err := s.store.CreateLSystem(id, req.SourceContents, req.Description)
	if err != nil {
		return storeError(c, err)
	}

	s.cache(ls.Name, doc)
	s.logger.Info("lsystem created", "name", ls.Name, "revision", ls.RevisionID)
	return c.Status(200).JSON(lsystemToJSON(ls))
}

func (s *Server) getLSystem(c *fiber.Ctx) error {
	ls, err := s.store.GetLSystem(store.LSystemName(c.Params("lsystem")))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(lsystemToJSON(ls))
}

func (s *Server) listLSystems(c *fiber.Ctx) error {
	lsystems := s.store.ListLSystems()

	items := make([]fiber.Map, len(lsystems))
	for i, ls := range lsystems {
		items[i] = lsystemToJSON(ls)
	}

	return c.JSON(fiber.Map{
		"lsystems": items,
	})
}

func (s *Server) updateLSystem(c *fiber.Ctx) error {
	name := store.LSystemName(c.Params("lsystem"))

	var req lsystemRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err), nil)
	}

	current, err := s.store.GetLSystem(name)
	if err != nil {
		return storeError(c, err)
	}

	source := current.SourceCode
	var doc *parser.Document
	if req.SourceContents != "" {
		doc, err = parser.Parse([]byte(req.SourceContents))
		if err != nil {
			return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid l-system document: %v", err), nil)
		}
		source = req.SourceContents
	}

	ls, err := s.store.UpdateLSystem(name, source, req.Description)
	if err != nil {
		return storeError(c, err)
	}
	if doc != nil {
		s.cache(name, doc)
	}

	return c.JSON(lsystemToJSON(ls))
}

func (s *Server) deleteLSystem(c *fiber.Ctx) error {
	name := store.LSystemName(c.Params("lsystem"))

	if err := s.store.DeleteLSystem(name); err != nil {
		return storeError(c, err)
	}

	s.mu.Lock()
	delete(s.parsed, name)
	s.mu.Unlock()

	return c.JSON(fiber.Map{
		"name": name,
		"done": true,
	})
}

// --- Interpretation Handlers ---

type interpretationRequest struct {
	Overrides map[string]any `json:"overrides"`
}

func (s *Server) createInterpretation(c *fiber.Ctx) error {
	name := store.LSystemName(c.Params("lsystem"))

	var req interpretationRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err), nil)
	}

	doc, err := s.document(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return storeError(c, err)
		}
		return apiError(c, 500, "INTERNAL", fmt.Sprintf("failed to parse l-system: %v", err), nil)
	}

	opts, err := runtime.DecodeOptions(req.Overrides, doc.Options())
	if err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", err.Error(), nil)
	}

	in, err := s.store.CreateInterpretation(name, opts)
	if err != nil {
		return storeError(c, err)
	}

	hooks := runtime.ChainHooks(logging.Hooks(s.logger.With("interpretation", in.Name)), s.metrics.Hooks())
	sc, res, err := runtime.Draw(doc.LString, opts, doc.Palette(), doc.SceneOptions(), hooks)
	if err != nil {
		_ = s.store.FailInterpretation(in.Name, err, res)
	} else {
		_ = s.store.CompleteInterpretation(in.Name, sc, res)
	}

	in, err = s.store.GetInterpretation(in.Name)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(200).JSON(interpretationToJSON(in))
}

func (s *Server) getInterpretation(c *fiber.Ctx) error {
	in, err := s.store.GetInterpretation(buildInterpretationName(c))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(interpretationToJSON(in))
}

func (s *Server) listInterpretations(c *fiber.Ctx) error {
	name := store.LSystemName(c.Params("lsystem"))
	if _, err := s.store.GetLSystem(name); err != nil {
		return storeError(c, err)
	}

	interps := s.store.ListInterpretations(name)
	items := make([]fiber.Map, len(interps))
	for i, in := range interps {
		items[i] = interpretationToJSON(in)
	}

	return c.JSON(fiber.Map{
		"interpretations": items,
	})
}

// builtScene returns a succeeded interpretation or writes the error.
func (s *Server) builtScene(c *fiber.Ctx) (*store.Interpretation, error) {
	in, err := s.store.GetInterpretation(buildInterpretationName(c))
	if err != nil {
		return nil, storeError(c, err)
	}
	if in.Scene == nil {
		return nil, apiError(c, 409, "FAILED_PRECONDITION",
			fmt.Sprintf("interpretation '%s' has no scene (state: %s)", in.Name, in.State), nil)
	}
	return in, nil
}

func (s *Server) getScene(c *fiber.Ctx) error {
	in, err := s.builtScene(c)
	if in == nil {
		return err
	}
	return c.JSON(in.Scene.Export())
}

func (s *Server) getSceneOBJ(c *fiber.Ctx) error {
	in, err := s.builtScene(c)
	if in == nil {
		return err
	}
	var buf bytes.Buffer
	if err := in.Scene.WriteOBJ(&buf); err != nil {
		return apiError(c, 500, "INTERNAL", err.Error(), nil)
	}
	c.Set("Content-Type", "text/plain; charset=utf-8")
	return c.Send(buf.Bytes())
}

// --- Tokenize ---

type tokenizeRequest struct {
	LString string `json:"lstring"`
}

func (s *Server) tokenize(c *fiber.Ctx) error {
	var req tokenizeRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err), nil)
	}
	if len(req.LString) > parser.MaxSourceSize {
		return apiError(c, 400, "INVALID_ARGUMENT",
			fmt.Sprintf("lstring size %d exceeds maximum %d bytes", len(req.LString), parser.MaxSourceSize), nil)
	}

	cut := lstring.ApplyCuts(lstring.StripSpace(req.LString))
	tokens, err := lstring.NewLexer(cut).Tokenize()
	if err != nil {
		return interpretError(c, err)
	}

	items := make([]fiber.Map, len(tokens))
	for i, tok := range tokens {
		cmd, err := tok.Command()
		if err != nil {
			if ie := types.AsInterpretError(err); ie != nil {
				err = ie.At(tok.Pos, tok.Text)
			}
			return interpretError(c, err)
		}
		items[i] = fiber.Map{
			"raw":    tok.Text,
			"pos":    tok.Pos,
			"symbol": string(tok.Symbol),
			"kind":   cmd.Kind.String(),
			"args":   cmd.Args,
		}
	}

	return c.JSON(fiber.Map{
		"cut":    cut,
		"tokens": items,
	})
}

// interpretError writes an interpreter error with its payload as details.
func interpretError(c *fiber.Ctx, err error) error {
	if ie := types.AsInterpretError(err); ie != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", ie.Error(), ie.ToMap())
	}
	return apiError(c, 400, "INVALID_ARGUMENT", err.Error(), nil)
}

// --- Directory Loading ---

// LoadDir loads all .yaml, .yml and .json documents from dir as l-systems.
// The lowercased file name without extension becomes the l-system ID.
// Files that cannot be loaded are logged and skipped.
func (s *Server) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading lsystems directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}

		base := strings.TrimSuffix(name, ext)
		id := strings.ToLower(base)
		if id != base {
			s.logger.Warn("lowercased lsystem ID", "id", id, "file", name)
		}
		if !validID(id) {
			s.logger.Warn("skipping file with invalid lsystem ID", "file", name, "id", id)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			s.logger.Warn("could not read file", "file", name, "error", err)
			continue
		}

		doc, err := parser.Parse(data)
		if err != nil {
			s.logger.Warn("could not parse file", "file", name, "error", err)
			continue
		}

		ls, err := s.store.CreateLSystem(id, string(data), doc.Description)
		if err != nil {
			s.logger.Warn("could not load file", "file", name, "error", err)
			continue
		}

		s.cache(ls.Name, doc)
		loaded++
		s.logger.Info("loaded lsystem", "id", id, "file", name)
	}

	s.logger.Info("loaded lsystems", "count", loaded, "dir", dir)
	return loaded, nil
}

// --- Helpers ---

func (s *Server) cache(name string, doc *parser.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parsed[name] = doc
}

// document returns the parsed document of an l-system, parsing and caching
// the stored source on a miss.
func (s *Server) document(name string) (*parser.Document, error) {
	s.mu.RLock()
	doc, ok := s.parsed[name]
	s.mu.RUnlock()
	if ok {
		return doc, nil
	}

	ls, err := s.store.GetLSystem(name)
	if err != nil {
		return nil, err
	}
	doc, err = parser.Parse([]byte(ls.SourceCode))
	if err != nil {
		return nil, err
	}
	s.cache(name, doc)
	return doc, nil
}

func buildInterpretationName(c *fiber.Ctx) string {
	return store.InterpretationName(c.Params("lsystem"), c.Params("interpretation"))
}

func lsystemToJSON(ls *store.LSystem) fiber.Map {
	return fiber.Map{
		"name":           ls.Name,
		"description":    ls.Description,
		"revisionId":     ls.RevisionID,
		"createTime":     ls.CreateTime.Format(time.RFC3339),
		"updateTime":     ls.UpdateTime.Format(time.RFC3339),
		"sourceContents": ls.SourceCode,
	}
}

func interpretationToJSON(in *store.Interpretation) fiber.Map {
	result := fiber.Map{
		"name":              in.Name,
		"state":             in.State,
		"startTime":         in.StartTime.Format(time.RFC3339),
		"lsystemRevisionId": in.LSystemRevisionID,
		"options":           in.Options,
	}

	if in.Result != nil {
		result["result"] = fiber.Map{
			"commands": in.Result.Commands,
			"skipped":  in.Result.Skipped,
			"counts":   in.Result.Counts,
			"duration": in.Result.Duration.String(),
		}
	}
	if in.Stats != nil {
		result["stats"] = in.Stats
	}
	if in.Error != nil {
		result["error"] = fiber.Map{
			"payload": in.Error.Payload,
			"context": in.Error.Context,
		}
	}
	if !in.EndTime.IsZero() {
		result["endTime"] = in.EndTime.Format(time.RFC3339)
	}

	return result
}
