package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/blockdeck/blockdeck/internal/blockstates"
	"github.com/blockdeck/blockdeck/internal/cache"
	"github.com/blockdeck/blockdeck/internal/clidata"
	"github.com/blockdeck/blockdeck/internal/config"
	"github.com/blockdeck/blockdeck/internal/download"
	"github.com/blockdeck/blockdeck/internal/generator"
	"github.com/blockdeck/blockdeck/internal/ingest"
	"github.com/blockdeck/blockdeck/internal/library"
	"github.com/blockdeck/blockdeck/internal/metadata"
	"github.com/blockdeck/blockdeck/internal/server"
)

// services 持有进程内共享的组件实例。
type services struct {
	cfg      *config.Config
	logger   *logrus.Logger
	states   *blockstates.Service
	cliData  *clidata.Service
	ingester *ingest.Ingester
}

func buildServices(cfg *config.Config, logger *logrus.Logger) (*services, error) {
	g := cfg.Global
	storeOpts := cache.Options{LockStripes: g.LockStripes, Logger: logger}

	libStore, err := cache.NewStore(g.LibraryStoragePath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("初始化 jar 存储失败: %w", err)
	}
	stateStore, err := cache.NewStore(g.BlockStateStoragePath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("初始化 block-state 存储失败: %w", err)
	}
	cliStore, err := cache.NewStore(g.CliDataStoragePath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("初始化 we-cli-data 存储失败: %w", err)
	}

	httpClient := server.NewUpstreamClient(cfg)
	downloader := download.NewDownloader(httpClient, libStore, logger)

	runner, err := generator.NewRunner(generator.Options{
		Permits: semaphore.NewWeighted(int64(g.GeneratorPermits)),
		Strategy: generator.SubprocessStrategy{
			Java:       g.JavaExecutable,
			MinHeap:    g.GeneratorMinHeap,
			MaxHeap:    g.GeneratorMaxHeap,
			EntryPoint: g.GeneratorEntryPoint,
		},
		ScratchRoot: g.ScratchPath,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	states := blockstates.NewService(stateStore, logger)
	ingester, err := ingest.New(ingest.Options{
		Metadata:     metadata.NewClient(httpClient),
		Libraries:    library.NewStorage(libStore, downloader, g.DownloadConcurrency, logger),
		Runner:       runner,
		States:       states,
		LoadingLimit: g.LoadingLimit,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return &services{
		cfg:      cfg,
		logger:   logger,
		states:   states,
		cliData:  clidata.NewService(cliStore, logger),
		ingester: ingester,
	}, nil
}

// ingestConfigured 导入配置中声明的全部版本，单个版本失败不影响其它版本。
func (s *services) ingestConfigured(ctx context.Context) error {
	if len(s.cfg.Versions) == 0 {
		return nil
	}
	versions := make([]ingest.Version, len(s.cfg.Versions))
	for i, v := range s.cfg.Versions {
		versions[i] = ingest.Version{ID: v.ID, MetadataURL: v.MetadataURL}
	}

	results, err := s.ingester.IngestAll(ctx, versions)
	counts := map[string]int{}
	for _, r := range results {
		counts[r.Status]++
	}
	entry := s.logger.WithFields(logrus.Fields{
		"action":  "ingest_all",
		"total":   len(results),
		"results": counts,
	})
	if err != nil {
		entry.WithError(err).Warn("ingest_all_finished_with_errors")
		return err
	}
	entry.Info("ingest_all_finished")
	return nil
}

// importCliData 从本地文件导入一份 WorldEdit CLI 数据，替换已有文档。
func (s *services) importCliData(ctx context.Context, path string, dataVersion, cliDataVersion int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.cliData.Import(ctx, dataVersion, cliDataVersion, f)
}
