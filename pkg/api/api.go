// Package api implements the REST API over Flare evaluation sessions.
package api

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/flare/pkg/expr"
	"github.com/lemonberrylabs/flare/pkg/store"
)

// Server is the HTTP API server.
type Server struct {
	app   *fiber.App
	store *store.Store
}

// New creates a new API server over s.
func New(s *store.Store) *Server {
	srv := &Server{store: s}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	// Sessions API
	app.Post("/v1/sessions", srv.createSession)
	app.Get("/v1/sessions", srv.listSessions)
	app.Get("/v1/sessions/:session", srv.getSession)
	app.Delete("/v1/sessions/:session", srv.deleteSession)
	app.Post("/v1/sessions/:session\\:eval", srv.evalSession)

	// Stateless helpers
	app.Post("/v1/tokenize", srv.tokenize)
	app.Post("/v1/parse", srv.parse)

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

// --- Session Handlers ---

func (s *Server) createSession(c *fiber.Ctx) error {
	sess, err := s.store.CreateSession()
	if err != nil {
		return errorJSON(c, 500, "INTERNAL", err.Error())
	}
	log.Printf("Created session %s", sess.Name)
	return c.Status(201).JSON(sessionToJSON(sess, false))
}

func (s *Server) listSessions(c *fiber.Ctx) error {
	sessions := s.store.ListSessions()

	items := make([]fiber.Map, len(sessions))
	for i, sess := range sessions {
		items[i] = sessionToJSON(sess, false)
	}

	return c.JSON(fiber.Map{
		"sessions": items,
	})
}

func (s *Server) getSession(c *fiber.Ctx) error {
	sess, err := s.store.GetSession(c.Params("session"))
	if err != nil {
		return errorJSON(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(sessionToJSON(sess, true))
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	name := c.Params("session")
	if err := s.store.DeleteSession(name); err != nil {
		return errorJSON(c, 404, "NOT_FOUND", err.Error())
	}
	log.Printf("Deleted session %s", name)
	return c.JSON(fiber.Map{})
}

type sourceRequest struct {
	Source string `json:"source"`
}

func (s *Server) evalSession(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	// Evaluation errors are part of a successful response; only a missing
	// session is an HTTP error.
	rec, err := s.store.Eval(c.Params("session"), req.Source)
	if err != nil {
		return errorJSON(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(rec)
}

// --- Stateless Handlers ---

type tokenJSON struct {
	Text   string `json:"text"`
	Quoted bool   `json:"quoted"`
}

func (s *Server) tokenize(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	tokens := expr.Tokenize(req.Source)
	items := make([]tokenJSON, len(tokens))
	for i, tok := range tokens {
		items[i] = tokenJSON{Text: tok.Text, Quoted: tok.Quoted}
	}
	return c.JSON(fiber.Map{"tokens": items})
}

func (s *Server) parse(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	exprs, err := expr.ParseString(req.Source)
	if err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", err.Error())
	}

	items := make([]fiber.Map, len(exprs))
	for i, e := range exprs {
		items[i] = fiber.Map{
			"type": e.Type().String(),
			"text": e.String(),
		}
	}
	return c.JSON(fiber.Map{"expressions": items})
}

// --- Helpers ---

func sessionToJSON(sess *store.Session, detail bool) fiber.Map {
	info := sess.Info()
	m := fiber.Map{
		"name":         info.Name,
		"createTime":   info.CreateTime.Format(time.RFC3339Nano),
		"updateTime":   info.UpdateTime.Format(time.RFC3339Nano),
		"evalCount":    info.EvalCount,
		"errorCount":   info.ErrorCount,
		"bindingCount": info.BindingCount,
	}
	if detail {
		m["bindings"] = sess.Bindings()
		m["history"] = sess.History()
	}
	return m
}

func errorJSON(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}
