package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/borsa-screener/internal/favorites"
	"github.com/wonny/borsa-screener/pkg/logger"
)

// FavoritesHandler handles favorites API endpoints
type FavoritesHandler struct {
	store  *favorites.Store
	logger *logger.Logger
}

// NewFavoritesHandler creates a new favorites handler
func NewFavoritesHandler(store *favorites.Store, log *logger.Logger) *FavoritesHandler {
	return &FavoritesHandler{
		store:  store,
		logger: log,
	}
}

// List returns the favorited symbols, sorted
// GET /api/favorites
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.store.All(),
	})
}

// Toggle flips one symbol
// POST /api/favorites/{symbol}/toggle
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	on, err := h.store.Toggle(r.Context(), symbol)
	if err != nil {
		h.fail(w, symbol, err)
		return
	}
	h.respondState(w, symbol, on)
}

// Add marks a symbol as favorite (idempotent)
// PUT /api/favorites/{symbol}
func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	if err := h.store.Add(r.Context(), symbol); err != nil {
		h.fail(w, symbol, err)
		return
	}
	h.respondState(w, symbol, true)
}

// Remove unmarks a symbol (idempotent)
// DELETE /api/favorites/{symbol}
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	if err := h.store.Remove(r.Context(), symbol); err != nil {
		h.fail(w, symbol, err)
		return
	}
	h.respondState(w, symbol, false)
}

func (h *FavoritesHandler) respondState(w http.ResponseWriter, symbol string, on bool) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"symbol":    symbol,
			"favorite":  on,
			"favorites": h.store.All(),
		},
	})
}

func (h *FavoritesHandler) fail(w http.ResponseWriter, symbol string, err error) {
	if errors.Is(err, favorites.ErrEmptySymbol) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to persist favorites")
	respondError(w, http.StatusInternalServerError, "Failed to persist favorites")
}
