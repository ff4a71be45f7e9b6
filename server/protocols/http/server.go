package http

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gear6io/stardog-go/pkg/errors"
	"github.com/gear6io/stardog-go/server/config"
	"github.com/gear6io/stardog-go/server/dataset"
	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	sparqlResultsJSON = "application/sparql-results+json"
	requestIDHeader   = "X-Request-ID"
)

// Server speaks the subset of the Stardog HTTP API the client uses, answering
// from a dataset.Store
type Server struct {
	store  *dataset.Store
	app    *fiber.App
	logger zerolog.Logger
}

// NewServer creates a new HTTP server instance
func NewServer(store *dataset.Store, logger zerolog.Logger) *Server {
	s := &Server{
		store:  store,
		logger: logger.With().Str("component", "http-server").Logger(),
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             config.MaxQueryBodyBytes,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())

	if users := store.Users(); len(users) > 0 {
		s.app.Use(basicauth.New(basicauth.Config{
			Users: users,
			Realm: "stardog",
		}))
	}

	s.app.Get("/admin/databases", s.handleListDatabases)
	s.app.Put("/admin/databases/:db/online", s.handleOnline)
	s.app.Put("/admin/databases/:db/offline", s.handleOffline)
	s.app.Post("/:db/query", s.handleQuery)
	s.app.Get("/:db/size", s.handleSize)

	return s
}

// App exposes the fiber app, e.g. for app.Test in unit tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve accepts connections on ln until Stop is called
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info().Str("address", ln.Addr().String()).Msg("Starting HTTP server")
	return s.app.Listener(ln)
}

// Stop shuts the server down, waiting up to timeout for in-flight requests
func (s *Server) Stop(timeout time.Duration) error {
	s.logger.Info().Msg("Stopping HTTP server")
	return s.app.ShutdownWithTimeout(timeout)
}

func (s *Server) record(c *fiber.Ctx, database string, params map[string]string) {
	username, _ := c.Locals("username").(string)
	s.store.Record(dataset.Request{
		Method:     c.Method(),
		Path:       c.Path(),
		Database:   database,
		Params:     params,
		Username:   username,
		RequestID:  c.Get(requestIDHeader),
		ReceivedAt: time.Now(),
	})
}

func (s *Server) handleQuery(c *fiber.Ctx) error {
	db := c.Params("db")
	params := map[string]string{}
	for _, key := range []string{"query", "limit", "offset", "baseURI", "reasoning"} {
		if v := c.FormValue(key); v != "" {
			params[key] = v
		}
	}
	s.record(c, db, params)

	q := dataset.Query{
		Database: db,
		Text:     params["query"],
		BaseURI:  params["baseURI"],
	}
	if q.Text == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing query parameter")
	}

	var err error
	if q.Limit, err = optionalInt(params, "limit"); err != nil {
		return err
	}
	if q.Offset, err = optionalInt(params, "offset"); err != nil {
		return err
	}
	if v, ok := params["reasoning"]; ok {
		if q.Reasoning, err = strconv.ParseBool(v); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "reasoning must be true or false")
		}
	}

	answer, err := s.store.Answer(q)
	if err != nil {
		return err
	}

	s.logger.Debug().
		Str("database", db).
		Bool("reasoning", q.Reasoning).
		Int("bindings", len(answer.Bindings)).
		Str("request_id", c.Get(requestIDHeader)).
		Msg("Answered query")

	if answer.Status != 0 {
		return c.Status(answer.Status).SendString(answer.Body)
	}

	c.Set(fiber.HeaderContentType, sparqlResultsJSON)
	if answer.Boolean != nil {
		return c.JSON(fiber.Map{
			"head":    fiber.Map{},
			"boolean": *answer.Boolean,
		}, sparqlResultsJSON)
	}

	return c.JSON(fiber.Map{
		"head":    fiber.Map{"vars": answer.Vars},
		"results": fiber.Map{"bindings": answer.Bindings},
	}, sparqlResultsJSON)
}

func optionalInt(params map[string]string, key string) (*int, error) {
	v, ok := params[key]
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, key+" must be an integer")
	}
	return &n, nil
}

func (s *Server) handleOnline(c *fiber.Ctx) error {
	return s.setOnline(c, true)
}

func (s *Server) handleOffline(c *fiber.Ctx) error {
	return s.setOnline(c, false)
}

func (s *Server) setOnline(c *fiber.Ctx, online bool) error {
	db := c.Params("db")
	body := c.Body()

	strategy := "WAIT"
	if len(body) > 0 {
		if !gjson.ValidBytes(body) {
			return fiber.NewError(fiber.StatusBadRequest, "body must be JSON")
		}
		if v := gjson.GetBytes(body, "strategy"); v.Exists() {
			strategy = strings.ToUpper(v.String())
		}
	}
	s.record(c, db, map[string]string{"strategy": strategy})

	if strategy != "WAIT" && strategy != "NO_WAIT" {
		return errors.Newf(dataset.ErrStrategyUnsupported, "unknown strategy %q", strategy)
	}
	if err := s.store.SetOnline(db, online); err != nil {
		return err
	}

	s.logger.Info().Str("database", db).Bool("online", online).Str("strategy", strategy).Msg("Database state changed")
	return c.JSON(fiber.Map{"message": "Successfully changed database state"})
}

func (s *Server) handleListDatabases(c *fiber.Ctx) error {
	s.record(c, "", nil)
	return c.JSON(fiber.Map{"databases": s.store.Databases()})
}

func (s *Server) handleSize(c *fiber.Ctx) error {
	db := c.Params("db")
	s.record(c, db, nil)

	size, err := s.store.Size(db)
	if err != nil {
		return err
	}
	return c.SendString(strconv.FormatInt(size, 10))
}

// handleError maps dataset codes onto HTTP statuses
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	switch {
	case errors.HasCode(err, dataset.ErrDatabaseNotFound):
		status = fiber.StatusNotFound
	case errors.HasCode(err, dataset.ErrDatabaseOffline):
		status = fiber.StatusServiceUnavailable
	case errors.HasCode(err, dataset.ErrPaginationInvalid), errors.HasCode(err, dataset.ErrStrategyUnsupported):
		status = fiber.StatusBadRequest
	case asFiberError(err, &fiberErr):
		status = fiberErr.Code
	}

	if status >= fiber.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(status).SendString(err.Error())
}

func asFiberError(err error, target **fiber.Error) bool {
	fe, ok := err.(*fiber.Error)
	if ok {
		*target = fe
	}
	return ok
}
