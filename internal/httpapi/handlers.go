package httpapi

import (
	"fmt"
	"html"
	"net/http"
	"strconv"

	"github.com/banshee-data/visionfusion/internal/httputil"
	"github.com/banshee-data/visionfusion/internal/state"
)

// handleGet implements GET /api/get and /api/get_data.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("v")
	if path == "" {
		httputil.BadRequest(w, "missing 'v' query parameter")
		return
	}
	val, err := s.store.GetSanitizedSep(path, r.URL.Query().Get("sep"))
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, val)
}

// setResponse is the JSON body of a successful /api/set call.
type setResponse struct {
	Success bool        `json:"success"`
	Key     string      `json:"k"`
	Value   interface{} `json:"v"`
}

// handleSet implements GET /api/set and /api/set_data. The value query
// parameter is coerced: boolean literals, then integers, then floats,
// else left as a string.
func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("k")
	if key == "" {
		httputil.BadRequest(w, "missing 'k' query parameter")
		return
	}
	coerced := coerceValue(r.URL.Query().Get("v"))

	if err := s.store.SetSep(key, r.URL.Query().Get("sep"), coerced); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, setResponse{
		Success: true,
		Key:     key,
		Value:   state.Sanitize(coerced),
	})
}

func coerceValue(raw string) state.Value {
	switch raw {
	case "true":
		return state.NewBool(true)
	case "false":
		return state.NewBool(false)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return state.NewInt(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return state.NewFloat(f)
	}
	return state.NewString(raw)
}

// handleGetImage implements GET /api/get_image.
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	kind := r.URL.Query().Get("im")
	if id == "" || kind == "" {
		httputil.BadRequest(w, "missing 'id' or 'im' query parameter")
		return
	}

	var field string
	switch kind {
	case "latest_frame":
		field = "latest_frame_data"
	case "fused_result":
		field = "fused_result"
	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown im=%q, want latest_frame or fused_result", kind))
		return
	}

	val, err := s.store.Get(fmt.Sprintf("camera/%s/%s", id, field))
	if err != nil || val.Kind != state.KindImage || val.Image == nil {
		httputil.NotFound(w, fmt.Sprintf("no %s available for camera %q", kind, id))
		return
	}

	img, err := jpegBytes(*val.Image)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// handleDashboard implements GET /: an HTML page listing cameras with a
// capture-all control and per-camera preview links.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	rows := ""
	for _, id := range s.cameraIDs {
		safeID := html.EscapeString(id)
		fs, _ := s.store.FusionState(id)
		rows += fmt.Sprintf(dashboardRowHTML, safeID, html.EscapeString(fs), safeID, safeID, safeID)
	}

	fmt.Fprintf(w, dashboardHTML, rows)
}

const dashboardRowHTML = `
<tr>
  <td>%s</td>
  <td>%s</td>
  <td><a href="/api/get_image?id=%s&amp;im=latest_frame">latest</a></td>
  <td><a href="/api/get_image?id=%s&amp;im=fused_result">fused</a></td>
  <td><a href="/api/set?k=camera/%s/fusion_state&amp;v=REQUESTED">capture</a></td>
</tr>`

const dashboardHTML = `<!DOCTYPE html>
<html>
<head><title>visionfusion</title></head>
<body>
<h1>visionfusion</h1>
<table border="1" cellpadding="4">
<tr><th>camera</th><th>fusion_state</th><th>latest</th><th>fused</th><th>action</th></tr>
%s
</table>
</body>
</html>
`
