// Package api implements the REST surface of the deskcalc server: expression
// evaluation, the evaluation history, and read/run access to loaded
// worksheets.
package api

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/tapelabs/deskcalc/pkg/calc"
	"github.com/tapelabs/deskcalc/pkg/history"
	"github.com/tapelabs/deskcalc/pkg/worksheet"
)

// Server is the deskcalc API server.
type Server struct {
	app    *fiber.App
	hist   *history.History
	sheets map[string]*worksheet.Worksheet
	order  []string // worksheet names in registration order
}

// New creates a new API server around an existing history.
func New(hist *history.History) *Server {
	srv := &Server{
		hist:   hist,
		sheets: make(map[string]*worksheet.Worksheet),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	app.Use(logger.New())

	app.Get("/healthz", srv.health)

	// Evaluation API
	app.Post("/v1/evaluate", srv.evaluate)

	// History API
	app.Get("/v1/history", srv.listHistory)
	app.Get("/v1/history/:id", srv.getHistoryEntry)
	app.Delete("/v1/history", srv.clearHistory)

	// Worksheets API
	app.Get("/v1/worksheets", srv.listWorksheets)
	app.Get("/v1/worksheets/:name", srv.getWorksheet)
	app.Post("/v1/worksheets/:name/run", srv.runWorksheet)

	srv.app = app
	return srv
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

// Register makes a worksheet available over the API. Registration happens
// at startup, before Listen; the map is read-only afterwards. A later
// registration with the same name replaces the earlier one.
func (s *Server) Register(ws *worksheet.Worksheet) {
	if _, exists := s.sheets[ws.Name]; exists {
		log.Printf("Warning: replacing worksheet %q", ws.Name)
	} else {
		s.order = append(s.order, ws.Name)
	}
	s.sheets[ws.Name] = ws
}

// Worksheets returns the registered worksheets in registration order.
func (s *Server) Worksheets() []*worksheet.Worksheet {
	sheets := make([]*worksheet.Worksheet, 0, len(s.order))
	for _, name := range s.order {
		sheets = append(sheets, s.sheets[name])
	}
	return sheets
}

// LoadDir loads every worksheet file from dir and registers it by name.
func (s *Server) LoadDir(dir string) error {
	sheets, err := worksheet.LoadDir(dir)
	if err != nil {
		return err
	}
	for _, ws := range sheets {
		s.Register(ws)
	}
	return nil
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// --- Evaluation Handlers ---

type evaluateRequest struct {
	Expression string `json:"expression"`
}

// evaluate runs one expression and records it. Domain failures (bad syntax,
// division by zero) are part of the recorded outcome and return 200; only
// transport misuse produces an error status.
func (s *Server) evaluate(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    400,
				"message": fmt.Sprintf("invalid request body: %v", err),
				"status":  "INVALID_ARGUMENT",
			},
		})
	}

	expr := strings.TrimSpace(req.Expression)
	if expr == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    400,
				"message": "expression is required",
				"status":  "INVALID_ARGUMENT",
			},
		})
	}

	v, err := calc.Evaluate(expr)
	entry := s.hist.Record(expr, v, err)

	return c.Status(200).JSON(entryToJSON(entry))
}

// --- History Handlers ---

func (s *Server) listHistory(c *fiber.Ctx) error {
	entries := s.hist.List()
	if limit := c.QueryInt("limit"); limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	items := make([]fiber.Map, len(entries))
	for i, e := range entries {
		items[i] = entryToJSON(e)
	}

	return c.JSON(fiber.Map{
		"entries": items,
		"count":   len(items),
	})
}

func (s *Server) getHistoryEntry(c *fiber.Ctx) error {
	e, err := s.hist.Get(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    404,
				"message": err.Error(),
				"status":  "NOT_FOUND",
			},
		})
	}

	return c.JSON(entryToJSON(e))
}

func (s *Server) clearHistory(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"cleared": s.hist.Clear(),
	})
}

// --- Worksheet Handlers ---

func (s *Server) listWorksheets(c *fiber.Ctx) error {
	items := make([]fiber.Map, 0, len(s.order))
	for _, name := range s.order {
		ws := s.sheets[name]
		items = append(items, fiber.Map{
			"name":        ws.Name,
			"description": ws.Description,
			"expressions": len(ws.Expressions),
		})
	}

	return c.JSON(fiber.Map{
		"worksheets": items,
	})
}

func (s *Server) getWorksheet(c *fiber.Ctx) error {
	ws, ok := s.sheets[c.Params("name")]
	if !ok {
		return c.Status(404).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    404,
				"message": fmt.Sprintf("worksheet '%s' not found", c.Params("name")),
				"status":  "NOT_FOUND",
			},
		})
	}

	return c.JSON(ws)
}

func (s *Server) runWorksheet(c *fiber.Ctx) error {
	ws, ok := s.sheets[c.Params("name")]
	if !ok {
		return c.Status(404).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    404,
				"message": fmt.Sprintf("worksheet '%s' not found", c.Params("name")),
				"status":  "NOT_FOUND",
			},
		})
	}

	rep := worksheet.Run(ws, s.hist)
	return c.JSON(rep)
}

// --- Helpers ---

func entryToJSON(e *history.Entry) fiber.Map {
	m := fiber.Map{
		"id":         e.ID,
		"expression": e.Expression,
		"state":      e.State,
		"createTime": e.CreateTime.Format(time.RFC3339),
	}

	if e.State == history.EntrySucceeded {
		m["result"] = e.Result
		m["value"] = e.Value
	}
	if e.Error != nil {
		m["error"] = fiber.Map{
			"kind":    e.Error.Kind,
			"message": e.Error.Message,
		}
	}

	return m
}
