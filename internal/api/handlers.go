package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/orders-map/internal/orders"
	"github.com/ignite/orders-map/internal/pkg/httputil"
	"github.com/ignite/orders-map/internal/pkg/logger"
)

// SnapshotProvider is the slice of orders.Service the handlers need.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, force bool) (*orders.Snapshot, error)
	Columns() orders.ColumnMap
	Warnings() []string
}

// Handlers holds the HTTP handlers for the orders API.
type Handlers struct {
	svc            SnapshotProvider
	popups         *orders.PopupBuilder
	clusterMarkers bool
	startedAt      time.Time
}

// NewHandlers creates the API handlers.
func NewHandlers(svc SnapshotProvider, popups *orders.PopupBuilder, clusterMarkers bool) *Handlers {
	return &Handlers{
		svc:            svc,
		popups:         popups,
		clusterMarkers: clusterMarkers,
		startedAt:      time.Now(),
	}
}

// Marker is one mappable, filtered row prepared for the map client.
type Marker struct {
	ID    string       `json:"item_id"`
	Name  string       `json:"name"`
	Lat   float64      `json:"lat"`
	Lng   float64      `json:"lng"`
	Popup orders.Popup `json:"popup"`
}

// ordersResponse is the body of GET /api/orders.
type ordersResponse struct {
	SnapshotID string       `json:"snapshot_id"`
	FetchedAt  time.Time    `json:"fetched_at"`
	Stale      bool         `json:"stale"`
	FetchError string       `json:"fetch_error,omitempty"`
	State      string       `json:"state"`
	Total      int          `json:"total"`
	Mappable   int          `json:"mappable"`
	Valued     int          `json:"valued"`
	Matched    int          `json:"matched"`
	Rows       []orders.Row `json:"rows"`
	Markers    []Marker     `json:"markers"`
}

// snapshot fetches the current snapshot, tolerating a failed refresh
// when stale data exists. Returns nil after writing the error response
// when nothing can be served.
func (h *Handlers) snapshot(w http.ResponseWriter, r *http.Request, force bool) (*orders.Snapshot, string) {
	snap, err := h.svc.Snapshot(r.Context(), force)
	if err != nil {
		if snap == nil {
			logger.Error("fetch failed with no cached snapshot", "error", err.Error())
			httputil.BadGateway(w, "fetching board data failed: "+err.Error())
			return nil, ""
		}
		logger.Warn("fetch failed, serving stale snapshot",
			"snapshot_id", snap.ID, "error", err.Error())
		return snap, err.Error()
	}
	return snap, ""
}

// tableState labels why a response may be empty, keeping "board is
// empty", "nothing is mappable" and "filter matched nothing" apart.
func tableState(snap *orders.Snapshot, matched int) string {
	switch {
	case snap.Total == 0:
		return "empty_board"
	case snap.Mappable == 0:
		return "no_mappable_rows"
	case matched == 0:
		return "empty_filter"
	default:
		return "ok"
	}
}

// Orders handles GET /api/orders: the filtered table plus map markers.
func (h *Handlers) Orders(w http.ResponseWriter, r *http.Request) {
	filter, err := orders.FilterFromQuery(r.URL.Query())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	snap, fetchErr := h.snapshot(w, r, false)
	if snap == nil {
		return
	}

	matched := orders.Apply(snap.Rows, filter)

	markers := make([]Marker, 0, len(matched))
	for _, row := range matched {
		if !row.Mappable() {
			continue
		}
		popup, perr := h.popups.Build(row)
		if perr != nil {
			httputil.InternalError(w, perr)
			return
		}
		markers = append(markers, Marker{
			ID:    row.ID,
			Name:  row.Name,
			Lat:   *row.Lat,
			Lng:   *row.Lng,
			Popup: popup,
		})
	}

	httputil.OK(w, ordersResponse{
		SnapshotID: snap.ID,
		FetchedAt:  snap.FetchedAt,
		Stale:      snap.Stale,
		FetchError: fetchErr,
		State:      tableState(snap, len(matched)),
		Total:      snap.Total,
		Mappable:   snap.Mappable,
		Valued:     snap.Valued,
		Matched:    len(matched),
		Rows:       matched,
		Markers:    markers,
	})
}

// Select handles GET /api/orders/select: nearest-marker resolution for
// a clicked coordinate, within the currently filtered table.
func (h *Handlers) Select(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		httputil.BadRequest(w, "lat and lng must be valid numbers")
		return
	}

	filter, err := orders.FilterFromQuery(r.URL.Query())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	snap, _ := h.snapshot(w, r, false)
	if snap == nil {
		return
	}

	row := orders.Nearest(orders.Apply(snap.Rows, filter), lat, lng)
	if row == nil {
		httputil.NotFound(w, "no mappable order near that point")
		return
	}

	popup, perr := h.popups.Build(*row)
	if perr != nil {
		httputil.InternalError(w, perr)
		return
	}

	httputil.OK(w, map[string]any{
		"row":   row,
		"popup": popup,
	})
}

// Export handles GET /api/orders/export: the filtered table as CSV.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := orders.FilterFromQuery(r.URL.Query())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	snap, _ := h.snapshot(w, r, false)
	if snap == nil {
		return
	}

	matched := orders.Apply(snap.Rows, filter)
	data, err := orders.ExportCSV(matched, h.svc.Columns().Extras)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	filename := fmt.Sprintf("orders_%s.csv", snap.FetchedAt.Format("20060102_150405"))
	httputil.CSVAttachment(w, filename, data)
}

// summaryResponse mirrors the dashboard KPI row.
type summaryResponse struct {
	SnapshotID  string    `json:"snapshot_id"`
	FetchedAt   time.Time `json:"fetched_at"`
	Stale       bool      `json:"stale"`
	TotalOrders int       `json:"total_orders"`
	TotalValue  float64   `json:"total_value"`
	AvgValue    float64   `json:"avg_value"`
}

// Summary handles GET /api/summary: whole-table KPIs.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	snap, _ := h.snapshot(w, r, false)
	if snap == nil {
		return
	}

	var total float64
	for _, row := range snap.Rows {
		if row.OrderValueNum != nil {
			total += *row.OrderValueNum
		}
	}
	avg := 0.0
	if snap.Valued > 0 {
		avg = total / float64(snap.Valued)
	}

	httputil.OK(w, summaryResponse{
		SnapshotID:  snap.ID,
		FetchedAt:   snap.FetchedAt,
		Stale:       snap.Stale,
		TotalOrders: snap.Total,
		TotalValue:  total,
		AvgValue:    avg,
	})
}

// Refresh handles POST /api/refresh: force a refetch past the cache.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context(), true)
	if err != nil {
		httputil.BadGateway(w, "refresh failed: "+err.Error())
		return
	}
	httputil.OK(w, map[string]any{
		"snapshot_id": snap.ID,
		"fetched_at":  snap.FetchedAt,
		"total":       snap.Total,
	})
}

// Meta handles GET /api/meta: column resolution state and map options.
func (h *Handlers) Meta(w http.ResponseWriter, r *http.Request) {
	warnings := h.svc.Warnings()
	if warnings == nil {
		warnings = []string{}
	}
	httputil.OK(w, map[string]any{
		"columns":         h.svc.Columns(),
		"warnings":        warnings,
		"cluster_markers": h.clusterMarkers,
		"board_url":       h.popups.BoardURL(),
	})
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startedAt).String(),
	})
}
