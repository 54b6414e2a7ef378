package transport

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/shopfabric/realtime/src/service"
)

// Diagnostics exposes the read-only operational inspection routes.
type Diagnostics struct {
	svc *service.Service
}

// NewDiagnostics creates the diagnostics route handler.
func NewDiagnostics(svc *service.Service) *Diagnostics {
	return &Diagnostics{svc: svc}
}

// RegisterRoutes mounts the diagnostics endpoints on a Fiber router.
func (d *Diagnostics) RegisterRoutes(router fiber.Router) {
	router.Get("/realtime/stats", d.handleStats)
	router.Get("/realtime/connections", d.handleConnections)
	router.Get("/realtime/recent", d.handleRecent)
}

func (d *Diagnostics) handleStats(c fiber.Ctx) error {
	return c.JSON(d.svc.GetConnectionStats())
}

func (d *Diagnostics) handleConnections(c fiber.Ctx) error {
	conns := d.svc.GetActiveConnections()
	return c.JSON(fiber.Map{
		"connections": conns,
		"count":       len(conns),
	})
}

func (d *Diagnostics) handleRecent(c fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	evts, err := d.svc.RecentEvents(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "event trail unavailable",
		})
	}
	return c.JSON(fiber.Map{
		"events": evts,
		"count":  len(evts),
	})
}
