package web

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"schedulehub/models"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
)

// CorsMiddleware lets other household screens on the LAN call the API.
// Tokens travel in the Authorization header, so no credentials are allowed.
func CorsMiddleware(c rweb.Context) error {
	h := c.Response()
	h.SetHeader("Access-Control-Allow-Origin", "*")
	h.SetHeader("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.SetHeader("Access-Control-Allow-Headers", "Content-Type, Authorization")
	h.SetHeader("Access-Control-Max-Age", "600")

	if c.Request().Method() == http.MethodOptions {
		c.SetStatus(http.StatusNoContent)
		return nil
	}
	return c.Next()
}

// RoomTokenMiddleware validates room tokens and populates the room context.
// The token comes from the Authorization header or, for the browser
// dashboard and its EventSource, the room_token cookie. Requests without a
// valid token fall back to defaultRoomID when one is configured and
// continue without a room otherwise; handlers decide what needs one.
func RoomTokenMiddleware(signer *models.TokenSigner, defaultRoomID string) rweb.Handler {
	return func(c rweb.Context) error {
		c.Set("room_id", defaultRoomID)
		c.Set("member", "")
		c.Set("authenticated", false)

		tokenString := bearerToken(c)
		if tokenString == "" {
			if cookie, err := c.GetCookie("room_token"); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" || signer == nil {
			return c.Next()
		}

		claims, err := signer.ValidateToken(tokenString)
		if err != nil {
			// Don't log every invalid token attempt
			return c.Next()
		}

		c.Set("room_id", claims.RoomID)
		c.Set("member", claims.Member)
		c.Set("authenticated", true)
		return c.Next()
	}
}

// viewCookie names the browser's dashboard view
const viewCookie = "view_id"

// ViewMiddleware gives each dashboard browser its own view of the calendar.
// The dashboard page hands out the view_id cookie; requests without one,
// like API clients, use the room's shared view.
func ViewMiddleware(c rweb.Context) error {
	viewID, err := c.GetCookie(viewCookie)
	if err != nil || uuid.Validate(viewID) != nil {
		viewID = ""
	}

	if viewID == "" && c.Request().Method() == http.MethodGet && c.Request().Path() == "/" {
		viewID = uuid.New().String()
		if err := c.SetCookie(viewCookie, viewID); err != nil {
			logger.LogErr(err, "failed to set view cookie")
			viewID = ""
		}
	}

	c.Set("view_id", viewID)
	return c.Next()
}

func bearerToken(c rweb.Context) string {
	authHeader := c.Request().Header("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware(c rweb.Context) error {
	// Add security headers
	c.Response().SetHeader("X-Content-Type-Options", "nosniff")
	c.Response().SetHeader("X-Frame-Options", "DENY")
	c.Response().SetHeader("X-XSS-Protection", "1; mode=block")
	c.Response().SetHeader("Referrer-Policy", "strict-origin-when-cross-origin")

	// Content Security Policy: everything is served from the embedded static dir
	csp := []string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-inline'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"connect-src 'self'",
	}
	c.Response().SetHeader("Content-Security-Policy", strings.Join(csp, "; "))

	return c.Next()
}

// RateLimitMiddleware limits POSTs under pathPrefix per client address.
// Household codes are short, so guessing them must be slow.
func RateLimitMiddleware(pathPrefix string, requestsPerMinute int) rweb.Handler {
	type visitor struct {
		lastSeen time.Time
		count    int
	}

	var mu sync.Mutex
	visitors := make(map[string]*visitor)

	return func(c rweb.Context) error {
		if c.Request().Method() != "POST" || !strings.HasPrefix(c.Request().Path(), pathPrefix) {
			return c.Next()
		}

		ip := c.Request().Header("X-Forwarded-For")
		if ip == "" {
			ip = c.Request().Header("X-Real-IP")
		}
		if ip == "" {
			ip = "unknown"
		}

		now := time.Now()
		mu.Lock()
		for addr, v := range visitors {
			if now.Sub(v.lastSeen) > time.Minute {
				delete(visitors, addr)
			}
		}

		limited := false
		v, exists := visitors[ip]
		if !exists {
			visitors[ip] = &visitor{lastSeen: now, count: 1}
		} else if now.Sub(v.lastSeen) < time.Minute {
			v.count++
			limited = v.count > requestsPerMinute
		} else {
			v.lastSeen = now
			v.count = 1
		}
		mu.Unlock()

		if limited {
			logger.Info("Rate limit exceeded", "ip", ip, "path", c.Request().Path())
			c.SetStatus(http.StatusTooManyRequests)
			return c.WriteJSON(map[string]interface{}{
				"success": false,
				"error":   "too many attempts, try again in a minute",
			})
		}
		return c.Next()
	}
}

// LoggingMiddleware logs each request with its household at debug level
func LoggingMiddleware(c rweb.Context) error {
	start := time.Now()
	err := c.Next()

	roomID, _ := c.Get("room_id").(string)
	logger.Debug("Request",
		"method", c.Request().Method(),
		"path", c.Request().Path(),
		"room_id", roomID,
		"duration", time.Since(start).String(),
	)
	if err != nil {
		logger.LogErr(err, "request handler failed", "path", c.Request().Path())
	}
	return err
}
