package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blockdeck/blockdeck/internal/blockstates"
	"github.com/blockdeck/blockdeck/internal/cache"
	"github.com/blockdeck/blockdeck/internal/clidata"
)

// BlockStateSource opens stored documents by data version; *blockstates.Service satisfies it.
type BlockStateSource interface {
	Open(ctx context.Context, dataVersion int) (*cache.ReadResult, error)
}

// CliDataSource opens WorldEdit CLI data documents; *clidata.Service satisfies it.
type CliDataSource interface {
	Open(ctx context.Context, dataVersion, cliDataVersion int) (*cache.ReadResult, error)
}

// AppOptions controls how the Fiber application behaves.
type AppOptions struct {
	Logger *logrus.Logger
	States BlockStateSource
	// CliData 为空时不注册 /we-cli-data 路由。
	CliData    CliDataSource
	ListenPort int
}

const contextKeyRequestID = "_blockdeck_request_id"

// NewApp builds the Fiber application with request ids, panic recovery and
// the block-state routes.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.States == nil {
		return nil, errors.New("block state source is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	h := &blockStatesHandler{states: opts.States, logger: opts.Logger}
	app.Get("/block-states/:dataVersion", h.serve)
	if opts.CliData != nil {
		ch := &cliDataHandler{source: opts.CliData, logger: opts.Logger}
		app.Get("/we-cli-data/:dataVersion", ch.serve)
	}

	return app, nil
}

func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

type blockStatesHandler struct {
	states BlockStateSource
	logger *logrus.Logger
}

func (h *blockStatesHandler) serve(c fiber.Ctx) error {
	started := time.Now()
	raw := strings.TrimSpace(c.Params("dataVersion"))
	fields := logrus.Fields{"action": "block_states_get", "data_version": raw}
	dataVersion, err := strconv.Atoi(raw)
	if err != nil {
		logRequest(h.logger, c, fields, fiber.StatusBadRequest, started, nil)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_data_version"})
	}

	result, err := h.states.Open(requestContext(c), dataVersion)
	if errors.Is(err, blockstates.ErrNotFound) {
		logRequest(h.logger, c, fields, fiber.StatusNotFound, started, nil)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}
	return streamDocument(h.logger, c, fields, started, result, err)
}

type cliDataHandler struct {
	source CliDataSource
	logger *logrus.Logger
}

func (h *cliDataHandler) serve(c fiber.Ctx) error {
	started := time.Now()
	raw := strings.TrimSpace(c.Params("dataVersion"))
	rawCli := strings.TrimSpace(c.Query("cliDataVersion"))
	fields := logrus.Fields{"action": "cli_data_get", "data_version": raw, "cli_data_version": rawCli}
	dataVersion, err := strconv.Atoi(raw)
	if err != nil {
		logRequest(h.logger, c, fields, fiber.StatusBadRequest, started, nil)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_data_version"})
	}
	cliDataVersion := clidata.DefaultCliDataVersion
	if rawCli != "" {
		if cliDataVersion, err = strconv.Atoi(rawCli); err != nil {
			logRequest(h.logger, c, fields, fiber.StatusBadRequest, started, nil)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_cli_data_version"})
		}
	}

	result, err := h.source.Open(requestContext(c), dataVersion, cliDataVersion)
	if errors.Is(err, clidata.ErrNotFound) {
		logRequest(h.logger, c, fields, fiber.StatusNotFound, started, nil)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}
	return streamDocument(h.logger, c, fields, started, result, err)
}

func requestContext(c fiber.Ctx) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// streamDocument 把已打开的缓存条目直接写入响应体；openErr 非空时返回 500。
func streamDocument(logger *logrus.Logger, c fiber.Ctx, fields logrus.Fields, started time.Time, result *cache.ReadResult, openErr error) error {
	if openErr != nil {
		logRequest(logger, c, fields, fiber.StatusInternalServerError, started, openErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage_error"})
	}
	defer result.Reader.Close()

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderLastModified, result.Entry.ModTime.UTC().Format(http.TimeFormat))
	c.Status(fiber.StatusOK)

	_, err := io.Copy(c.Response().BodyWriter(), result.Reader)
	logRequest(logger, c, fields, fiber.StatusOK, started, err)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("read %s failed: %v", result.Entry.Key, err))
	}
	return nil
}

func logRequest(logger *logrus.Logger, c fiber.Ctx, fields logrus.Fields, status int, started time.Time, err error) {
	entry := logger.WithFields(fields).WithFields(logrus.Fields{
		"request_id": RequestID(c),
		"status":     status,
		"elapsed_ms": time.Since(started).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("document_request_failed")
		return
	}
	entry.Debug("document_served")
}
