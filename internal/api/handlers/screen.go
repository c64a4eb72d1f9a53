package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/internal/screenconfig"
	"github.com/wonny/borsa-screener/internal/selection"
	"github.com/wonny/borsa-screener/internal/snapshot"
	"github.com/wonny/borsa-screener/pkg/logger"
)

// SnapshotReader returns the latest normalized batch
type SnapshotReader interface {
	Latest(ctx context.Context) (snapshot.Snapshot, bool)
}

// ScreenHandler handles screening API endpoints
// ⭐ SSOT: 스크리닝 API 핸들러는 이 구조체에서만
type ScreenHandler struct {
	snapshots SnapshotReader
	engine    *selection.Engine
	presets   *screenconfig.Config
	logger    *logger.Logger
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(snapshots SnapshotReader, engine *selection.Engine, presets *screenconfig.Config, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		snapshots: snapshots,
		engine:    engine,
		presets:   presets,
		logger:    log,
	}
}

// ScreenRequest is the POST body. Filter and Sort override the preset when both are given.
type ScreenRequest struct {
	Preset string                 `json:"preset,omitempty"`
	Filter *contracts.FilterState `json:"filter,omitempty"`
	Sort   *contracts.SortState   `json:"sort,omitempty"`
}

// ScreenRow is one result row with its favorite flag
type ScreenRow struct {
	contracts.StockRecord
	Favorite bool `json:"favorite"`
}

// ScreenResponse is the screening result
type ScreenResponse struct {
	Rows              []ScreenRow           `json:"rows"`
	Total             int                   `json:"total"`
	Matched           int                   `json:"matched"`
	ActiveFilterCount int                   `json:"active_filter_count"`
	FavoriteCount     int                   `json:"favorite_count"`
	Filter            contracts.FilterState `json:"filter"`
	Sort              contracts.SortState   `json:"sort"`
	Source            string                `json:"source"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// Screen filters and sorts the latest snapshot
// POST /api/stocks/screen
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	filter, sortState, err := h.resolve(req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, screenconfig.ErrUnknownPreset) {
			status = http.StatusNotFound
		}
		respondError(w, status, err.Error())
		return
	}

	snap, ok := h.snapshots.Latest(r.Context())
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "stock snapshot not loaded yet")
		return
	}

	view, err := h.engine.Run(snap.Records, filter, sortState)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := make([]ScreenRow, len(view.Records))
	for i, rec := range view.Records {
		rows[i] = ScreenRow{StockRecord: rec, Favorite: view.Favorites.Contains(rec.Symbol)}
	}

	h.logger.WithFields(map[string]interface{}{
		"preset":  req.Preset,
		"total":   view.Input,
		"matched": len(rows),
		"sort":    string(view.Sort.Field) + ":" + string(view.Sort.Direction),
	}).Debug("Screen request served")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": ScreenResponse{
			Rows:              rows,
			Total:             view.Input,
			Matched:           len(rows),
			ActiveFilterCount: view.ActiveFilterCount,
			FavoriteCount:     view.FavoriteCount,
			Filter:            filter.Normalized(),
			Sort:              view.Sort,
			Source:            snap.Source,
			UpdatedAt:         snap.UpdatedAt,
		},
	})
}

// resolve merges preset defaults with explicit request states
func (h *ScreenHandler) resolve(req ScreenRequest) (contracts.FilterState, contracts.SortState, error) {
	filter := contracts.DefaultFilterState()
	sortState := contracts.DefaultSortState()

	if req.Preset != "" {
		if h.presets == nil {
			return filter, sortState, screenconfig.ErrUnknownPreset
		}
		p, err := h.presets.Get(req.Preset)
		if err != nil {
			return filter, sortState, err
		}
		filter, sortState = p.Filter, p.Sort
	}
	if req.Filter != nil {
		filter = *req.Filter
	}
	if req.Sort != nil {
		sortState = *req.Sort
	}
	return filter, sortState, nil
}

// PresetsHandler serves the named screening presets
type PresetsHandler struct {
	presets *screenconfig.Config
	hash    string
}

// NewPresetsHandler creates a presets handler; the hash is computed once
func NewPresetsHandler(presets *screenconfig.Config) (*PresetsHandler, error) {
	hash, err := screenconfig.Hash(presets)
	if err != nil {
		return nil, err
	}
	return &PresetsHandler{presets: presets, hash: hash}, nil
}

// List returns all presets
// GET /api/presets
func (h *PresetsHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", `"`+h.hash+`"`)
	if r.Header.Get("If-None-Match") == `"`+h.hash+`"` {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.presets.Presets,
		"hash":    h.hash,
	})
}
