// Package server exposes a content store's read surface over HTTP for
// remote connections.
package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/BobConanDev/db-sub001/internal/storage"
)

// New builds a fiber app serving the storage read protocol over store.
func New(store storage.Store, log *zap.Logger) *fiber.App {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Debug("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("took", time.Since(start)),
		)
		return err
	})

	app.Get(storage.HealthPath, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "method": store.Method()})
	})

	app.Get(storage.ReadPath, func(c *fiber.Ctx) error {
		address := c.Query("address")
		b, ok, err := store.Read(c.Context(), address)
		if err != nil {
			return storageError(c, log, err)
		}
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
		return c.Send(b)
	})

	app.Get(storage.ExistsPath, func(c *fiber.Ctx) error {
		ok, err := store.Exists(c.Context(), c.Query("address"))
		if err != nil {
			return storageError(c, log, err)
		}
		return c.JSON(fiber.Map{"exists": ok})
	})

	app.Get(storage.ListPath, func(c *fiber.Ctx) error {
		paths := []string{}
		for path, err := range store.List(c.Context(), c.Query("prefix")) {
			if err != nil {
				return storageError(c, log, err)
			}
			paths = append(paths, path)
		}
		return c.JSON(paths)
	})

	return app
}

func storageError(c *fiber.Ctx, log *zap.Logger, err error) error {
	if errors.Is(err, storage.ErrMalformedAddress) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	log.Error("storage request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
