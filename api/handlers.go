package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/filter"
)

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	if err := s.trainer.TriggerTraining(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{
		"message": "Training started in background.",
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	k := queryInt(r, "k", s.recommendK)

	recs, err := s.engine.Recommend(r.Context(), userID, k)
	if err != nil {
		respondError(w, err)
		return
	}
	recs = s.applyFilters(r, &filter.Request{UserID: userID}, recs)

	// 只为前几条生成解释，控制延迟与 token 消耗
	if s.text != nil {
		for i := range recs {
			if i >= s.explainTop {
				break
			}
			ex, err := s.text.ExplainRecommendation(r.Context(),
				fmt.Sprintf("User History ID: %s", userID), recs[i].Description, recs[i].Score)
			if err == nil {
				recs[i].Explanation = ex
			}
		}
	}
	if s.collector != nil {
		_ = s.collector.RecordImpressions(r.Context(), userID, recs)
	}
	respondJSON(w, http.StatusOK, recs)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		respondError(w, core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable,
			"api: profile service not configured"))
		return
	}
	stats, err := s.stats.Stats(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Intent  *core.QueryIntent `json:"intent,omitempty"`
	Results []core.SearchHit  `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		respondError(w, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"api: search requires a non-empty query"))
		return
	}

	var intent *core.QueryIntent
	if s.text != nil {
		intent, _ = s.text.AnalyzeQuery(r.Context(), req.Query)
	}

	hits, err := s.engine.SearchText(r.Context(), req.Query, queryInt(r, "k", s.searchK))
	if err != nil {
		respondError(w, err)
		return
	}

	if s.filters != nil {
		freq := &filter.Request{Intent: intent}
		kept := make([]core.SearchHit, 0, len(hits))
		for _, h := range hits {
			meta, _ := s.engine.MetaOf(h.ItemID)
			if drop, _ := s.filters.ShouldFilter(r.Context(), freq, h.ItemID, meta); drop {
				continue
			}
			kept = append(kept, h)
		}
		hits = kept
	}
	if s.collector != nil {
		_ = s.collector.RecordSearch(r.Context(), req.Query, hits)
	}
	respondJSON(w, http.StatusOK, searchResponse{Intent: intent, Results: hits})
}

type purchaseRequest struct {
	UserID   string  `json:"user_id"`
	ItemID   string  `json:"stock_code"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.ItemID == "" {
		respondError(w, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"api: purchase requires user_id and stock_code"))
		return
	}
	if s.collector != nil {
		if err := s.collector.RecordPurchase(r.Context(), req.UserID, req.ItemID, req.Quantity, req.Price); err != nil {
			respondError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "recorded"})
}

type coldStartResponse struct {
	Questions       []string           `json:"questions"`
	PopularProducts []core.PopularItem `json:"popular_products"`
}

func (s *Server) handleColdStart(w http.ResponseWriter, r *http.Request) {
	questions := []string{
		"What type of products are you looking for today?",
		"Do you have a specific budget in mind?",
		"Are you shopping for yourself or for a gift?",
	}
	if s.text != nil {
		if qs, err := s.text.ColdStartQuestions(r.Context()); err == nil && len(qs) > 0 {
			questions = qs
		}
	}

	popular, err := s.engine.Popular(r.Context(), 5)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, coldStartResponse{
		Questions:       questions,
		PopularProducts: popular,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	version := ""
	if a := s.engine.Current(); a != nil {
		version = a.Version
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"state":            s.trainer.State().String(),
		"artifact_version": version,
	})
}

// applyFilters 对推荐结果应用过滤器链。
func (s *Server) applyFilters(r *http.Request, freq *filter.Request, recs []core.Recommendation) []core.Recommendation {
	if s.filters == nil {
		return recs
	}
	kept := make([]core.Recommendation, 0, len(recs))
	for _, rec := range recs {
		meta, _ := s.engine.MetaOf(rec.ItemID)
		if drop, _ := s.filters.ShouldFilter(r.Context(), freq, rec.ItemID, meta); drop {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
