package api

import (
	"encoding/json"
	"net/http"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"

	"schedulehub/prefs"
)

// PrefsOutput pairs the stored preferences with the choices a client offers
type PrefsOutput struct {
	prefs.Prefs
	Location  prefs.Location   `json:"location"`
	Locations []prefs.Location `json:"locations"`
}

func prefsOutput(p prefs.Prefs) PrefsOutput {
	return PrefsOutput{Prefs: p, Location: p.Location(), Locations: prefs.Locations}
}

// GetPrefs handles GET /api/v1/prefs
func (h *Handlers) GetPrefs(ctx rweb.Context) error {
	return writeSuccess(ctx, http.StatusOK, prefsOutput(h.prefs.Get()))
}

// UpdatePrefs handles PUT /api/v1/prefs
// Omitted fields are left unchanged; unknown location keys are rejected.
//
// Request body:
//
//	{ "location_key": "dc", "verse": "..." }
func (h *Handlers) UpdatePrefs(ctx rweb.Context) error {
	var req struct {
		LocationKey *string `json:"location_key"`
		Verse       *string `json:"verse"`
	}
	if err := json.Unmarshal(ctx.Request().Body(), &req); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}
	if req.LocationKey != nil {
		if _, ok := prefs.LookupLocation(*req.LocationKey); !ok {
			return writeError(ctx, http.StatusBadRequest, "unknown location")
		}
	}

	p, err := h.prefs.Update(func(p *prefs.Prefs) error {
		if req.LocationKey != nil {
			p.LocationKey = *req.LocationKey
		}
		if req.Verse != nil {
			p.Verse = *req.Verse
		}
		return nil
	})
	if err != nil {
		logger.LogErr(err, "failed to save preferences")
		return writeError(ctx, http.StatusInternalServerError, "failed to save preferences")
	}
	return writeSuccess(ctx, http.StatusOK, prefsOutput(p))
}
