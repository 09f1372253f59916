package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/engine"
	"github.com/rushteam/hybridrec/feedback"
	"github.com/rushteam/hybridrec/filter"
	"github.com/rushteam/hybridrec/profile"
)

// Server 是 HTTP API 层，把服务引擎、训练流水线与画像服务挂到路由上。
//
// 路由：
//   - POST /train                          触发后台训练（进行中返回 409）
//   - GET  /users/{userID}/recommendations 混合推荐（前 2 条带解释）
//   - GET  /users/{userID}/stats           用户统计与画像
//   - POST /search                         自然语言搜索（意图解析 + 语义检索）
//   - POST /cold-start                     新用户引导问题 + 热门物品
//   - GET  /status                         流水线状态与当前产物版本
type Server struct {
	engine    *engine.Engine
	trainer   *engine.Trainer
	text      core.TextService   // 可选：为空时无意图解析/解释
	stats     *profile.Service   // 可选：为空时 stats 返回 503
	filters   filter.Filter      // 可选：为空时不过滤
	collector feedback.Collector // 可选：为空时不采集反馈

	recommendK int
	searchK    int
	explainTop int
}

// ServerOption 配置 Server。
type ServerOption func(*Server)

// WithTextService 设置自然语言服务（意图解析、解释、引导问题）。
func WithTextService(t core.TextService) ServerOption {
	return func(s *Server) { s.text = t }
}

// WithProfileService 设置用户画像服务。
func WithProfileService(p *profile.Service) ServerOption {
	return func(s *Server) { s.stats = p }
}

// WithFilters 设置结果过滤器链。
func WithFilters(f filter.Filter) ServerOption {
	return func(s *Server) { s.filters = f }
}

// WithCollector 设置反馈收集器，自动采集曝光与搜索事件。
func WithCollector(c feedback.Collector) ServerOption {
	return func(s *Server) { s.collector = c }
}

// NewServer 创建 API 层。
func NewServer(eng *engine.Engine, trainer *engine.Trainer, opts ...ServerOption) *Server {
	s := &Server{
		engine:     eng,
		trainer:    trainer,
		recommendK: 5,
		searchK:    10,
		explainTop: 2,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router 构建 HTTP 路由。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/train", s.handleTrain)
	r.Get("/users/{userID}/recommendations", s.handleRecommendations)
	r.Get("/users/{userID}/stats", s.handleStats)
	r.Post("/search", s.handleSearch)
	r.Post("/cold-start", s.handleColdStart)
	r.Post("/feedback/purchase", s.handlePurchase)
	r.Get("/status", s.handleStatus)
	return r
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := core.ErrorCodeInternalError
	if de := core.GetDomainError(err); de != nil {
		code = de.Code
		switch de.Code {
		case core.ErrorCodeInvalidInput:
			status = http.StatusBadRequest
		case core.ErrorCodeNotFound:
			status = http.StatusNotFound
		case core.ErrorCodeBusy:
			status = http.StatusConflict
		case core.ErrorCodeUnavailable:
			status = http.StatusServiceUnavailable
		case core.ErrorCodeInsufficientData:
			status = http.StatusUnprocessableEntity
		}
	}
	respondJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  code,
	})
}
