package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rohanthewiz/rweb"

	"schedulehub/engine"
	"schedulehub/models"
	"schedulehub/prefs"
)

const pageTimeout = 15 * time.Second

// Pages serves the server-rendered dashboard and its HTML partials
type Pages struct {
	store *models.Store
	hub   *engine.Hub
	prefs *prefs.Store
}

// NewPages returns the page handlers
func NewPages(store *models.Store, hub *engine.Hub, p *prefs.Store) *Pages {
	return &Pages{store: store, hub: hub, prefs: p}
}

func roomID(c rweb.Context) string {
	id, _ := c.Get("room_id").(string)
	return id
}

func member(c rweb.Context) string {
	m, _ := c.Get("member").(string)
	return m
}

// viewID is the dashboard view handed out by the view middleware
func viewID(c rweb.Context) string {
	v, _ := c.Get("view_id").(string)
	return v
}

func pageContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), pageTimeout)
}

// NotFound handles 404 errors
func NotFound(c rweb.Context) error {
	if c.Request().Header("Accept") == "application/json" {
		c.SetStatus(http.StatusNotFound)
		return c.WriteJSON(map[string]string{
			"error": "Resource not found",
		})
	}

	c.SetStatus(http.StatusNotFound)
	return c.WriteHTML("<h1>404 - Page Not Found</h1>")
}

// ServerError handles 500 errors
func ServerError(c rweb.Context) error {
	if c.Request().Header("Accept") == "application/json" {
		c.SetStatus(http.StatusInternalServerError)
		return c.WriteJSON(map[string]string{
			"error": "Internal server error",
		})
	}

	c.SetStatus(http.StatusInternalServerError)
	return c.WriteHTML("<h1>500 - Internal Server Error</h1>")
}
