package oracle

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type priceRequest struct {
	Price string `json:"price"`
}

type marketRequest struct {
	Open bool `json:"open"`
}

type splitRequest struct {
	PreSplitPrice string `json:"preSplitPrice"`
	RatioNum      uint64 `json:"ratioNum"`
	RatioDen      uint64 `json:"ratioDen"`
}

// Handler exposes the feed's push surface over HTTP for the attester
// process.
func (m *Manual) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/price", m.handlePrice)
	r.Post("/market", m.handleMarket)
	r.Post("/split", m.handleSplit)
	r.Delete("/split", func(w http.ResponseWriter, _ *http.Request) {
		m.ClearSplit()
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/price", m.handleGetPrice)
	return r
}

func (m *Manual) handlePrice(w http.ResponseWriter, r *http.Request) {
	var body priceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	price, ok := new(big.Int).SetString(strings.TrimSpace(body.Price), 10)
	if !ok {
		http.Error(w, "invalid price", http.StatusBadRequest)
		return
	}
	if err := m.SetPrice(price); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (m *Manual) handleMarket(w http.ResponseWriter, r *http.Request) {
	var body marketRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m.SetMarketOpen(body.Open)
	w.WriteHeader(http.StatusNoContent)
}

func (m *Manual) handleSplit(w http.ResponseWriter, r *http.Request) {
	var body splitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	price, ok := new(big.Int).SetString(strings.TrimSpace(body.PreSplitPrice), 10)
	if !ok {
		http.Error(w, "invalid pre-split price", http.StatusBadRequest)
		return
	}
	if err := m.FlagSplit(price, body.RatioNum, body.RatioDen); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (m *Manual) handleGetPrice(w http.ResponseWriter, _ *http.Request) {
	price, err := m.CurrentPrice()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"price":      price.String(),
		"marketOpen": m.IsMarketOpen(),
		"updatedAt":  m.LastUpdate().Unix(),
	})
}
