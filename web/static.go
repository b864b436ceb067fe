package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
)

//go:embed all:static
var staticFiles embed.FS

// Wall displays reload rarely, so assets may be reused for a few minutes
const staticMaxAge = "public, max-age=300"

var staticTypes = map[string]string{
	".css": "text/css; charset=utf-8",
	".js":  "application/javascript; charset=utf-8",
	".svg": "image/svg+xml",
	".png": "image/png",
}

// faviconSVG is a calendar page marked "SH"
const faviconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 500 500"><rect width="500" height="500" rx="40" fill="#3f6e8c"/><rect x="70" y="110" width="360" height="300" rx="24" fill="white" fill-opacity=".9"/><rect x="70" y="110" width="360" height="70" rx="24" fill="#e0664f"/><text x="250" y="355" font-family="Arial,sans-serif" font-weight="900" font-size="150" fill="#3f6e8c" text-anchor="middle">SH</text></svg>`

// SetupStaticFiles serves the embedded dashboard stylesheet and script
func SetupStaticFiles(s *rweb.Server) {
	assets, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logger.LogErr(err, "failed to open embedded static dir")
		return
	}

	s.Get("/favicon.ico", func(c rweb.Context) error {
		c.Response().SetHeader("Content-Type", "image/svg+xml")
		c.Response().SetHeader("Cache-Control", "public, max-age=86400")
		return c.Bytes([]byte(faviconSVG))
	})

	s.Get("/static/*", func(c rweb.Context) error {
		name := strings.TrimPrefix(c.Request().Path(), "/static/")
		contentType, ok := staticTypes[path.Ext(name)]
		if !ok || !fs.ValidPath(name) {
			c.SetStatus(http.StatusNotFound)
			return nil
		}

		content, err := fs.ReadFile(assets, name)
		if err != nil {
			c.SetStatus(http.StatusNotFound)
			return nil
		}

		c.Response().SetHeader("Content-Type", contentType)
		c.Response().SetHeader("Cache-Control", staticMaxAge)
		return c.Bytes(content)
	})
}
