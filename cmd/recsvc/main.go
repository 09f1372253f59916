package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rushteam/hybridrec/api"
	"github.com/rushteam/hybridrec/artifact"
	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/engine"
	"github.com/rushteam/hybridrec/feedback"
	"github.com/rushteam/hybridrec/filter"
	"github.com/rushteam/hybridrec/llm"
	"github.com/rushteam/hybridrec/profile"
	"github.com/rushteam/hybridrec/source"
	"github.com/rushteam/hybridrec/store"
)

func main() {
	configPath := flag.String("config", "", "YAML 配置文件路径，为空时使用默认配置")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("hybridrec: %v", err)
	}
}

func run(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFromYAML(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	// 存储后端
	backend, kv, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer backend.Close()
	bundles := artifact.NewBundleStore(backend, "")

	// 数据源
	var (
		interactions core.InteractionSource
		items        core.ItemSource
	)
	if cfg.Data.RetailCSV != "" {
		csv := &source.RetailCSV{Path: cfg.Data.RetailCSV}
		interactions, items = csv, csv
	} else {
		mem := source.NewMemorySource()
		interactions, items = mem, mem
	}

	// OpenAI 协作方
	client := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL,
		llm.WithChatModel(cfg.LLM.ChatModel),
		llm.WithEmbedModel(cfg.LLM.EmbedModel),
	)

	// 服务引擎与训练流水线
	engOpts := []engine.Option{engine.WithEmbedder(client)}
	if kv != nil {
		engOpts = append(engOpts, engine.WithPopularStore(kv, ""))
	}
	eng := engine.New(engOpts...)

	// 启动时恢复上次发布的产物；损坏时拒绝加载但不阻止启动
	ctx := context.Background()
	if err := eng.Restore(ctx, bundles); err != nil {
		log.Printf("hybridrec: restore artifact: %v", err)
	}

	trOpts := []engine.TrainerOption{
		engine.WithRank(cfg.Training.Rank),
		engine.WithSeed(cfg.Training.Seed),
		engine.WithEmbedBatch(cfg.Training.EmbedBatch),
		engine.WithEmbedWorkers(cfg.Training.EmbedWorkers),
		engine.WithBundleStore(bundles),
	}
	if kv != nil {
		trOpts = append(trOpts, engine.WithTrainerPopularStore(kv, ""))
	}
	trainer := engine.NewTrainer(eng, interactions, items, client, trOpts...)

	// 过滤器链
	filters, err := config.BuildFilters(cfg.Filters, filter.NewStoreAdapter(backend))
	if err != nil {
		return fmt.Errorf("build filters: %w", err)
	}

	stats := profile.NewService(interactions, client, eng.MetaOf)

	apiOpts := []api.ServerOption{
		api.WithTextService(client),
		api.WithProfileService(stats),
		api.WithFilters(filters),
	}
	if len(cfg.Feedback.Brokers) > 0 {
		collector, err := feedback.NewKafkaCollector(feedback.KafkaCollectorConfig{
			Brokers: cfg.Feedback.Brokers,
			Topic:   cfg.Feedback.Topic,
		})
		if err != nil {
			return fmt.Errorf("build feedback collector: %w", err)
		}
		defer collector.Close()
		apiOpts = append(apiOpts, api.WithCollector(collector))
	}

	srv := api.NewServer(eng, trainer, apiOpts...)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("hybridrec: listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("hybridrec: received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// buildStore 根据配置创建存储后端。
// 文件后端不支持有序集合，此时热门物品退回产物频次兜底。
func buildStore(cfg *config.Config) (core.Store, core.KeyValueStore, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		m := store.NewMemoryStore()
		return m, m, nil
	case "redis":
		r, err := store.NewRedisStore(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	case "file":
		f, err := store.NewFileStore(cfg.Store.File.Dir)
		if err != nil {
			return nil, nil, err
		}
		return f, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}
