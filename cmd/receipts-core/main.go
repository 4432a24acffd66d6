package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/spesti-app/receipts-core/internal/categorize"
	"github.com/spesti-app/receipts-core/internal/common"
	"github.com/spesti-app/receipts-core/internal/entity"
	"github.com/spesti-app/receipts-core/internal/export"
	"github.com/spesti-app/receipts-core/internal/llm"
	"github.com/spesti-app/receipts-core/internal/llm/gemini"
	"github.com/spesti-app/receipts-core/internal/llm/openai"
	"github.com/spesti-app/receipts-core/internal/ocr"
	"github.com/spesti-app/receipts-core/internal/pipeline"
	"github.com/spesti-app/receipts-core/internal/product"
	"github.com/spesti-app/receipts-core/internal/repository"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	app := &cli.App{
		Name:  "receipts-core",
		Usage: "Bulgarian grocery receipt extraction and categorization",
		Commands: []*cli.Command{
			scanCommand(logger),
			backfillCommand(logger),
			exportCommand(logger),
			dbhealthCommand(logger),
		},
	}
	if err := app.Run(os.Args); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func scanCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "run the extraction pipeline on a receipt photo",
		ArgsUsage: "<image-path>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: receipts-core scan <image-path>", 2)
			}
			cfg := common.LoadConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}

			path := c.Args().First()
			image, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			mimeType := mime.TypeByExtension(filepath.Ext(path))
			if !strings.HasPrefix(mimeType, "image/") {
				mimeType = "image/jpeg"
			}

			ctx := c.Context
			p, cleanup, err := buildPipeline(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := p.Process(ctx, image, mimeType)
			if res != nil {
				out, _ := json.MarshalIndent(res, "", "  ")
				fmt.Println(string(out))
			}
			return err
		},
	}
}

func backfillCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "backfill",
		Usage:     "categorize product names from a file, one per line",
		ArgsUsage: "<names-file>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: receipts-core backfill <names-file>", 2)
			}
			cfg := common.LoadConfig()

			raw, err := os.ReadFile(c.Args().First())
			if err != nil {
				return fmt.Errorf("read names: %w", err)
			}
			var names []string
			for _, line := range strings.Split(string(raw), "\n") {
				if line = strings.TrimSpace(line); line != "" {
					names = append(names, line)
				}
			}

			ctx := c.Context
			engine, cleanup, err := buildEngine(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			assignments := engine.CategorizeAll(ctx, names, categorize.BatchConfig{
				Size:  cfg.Pipeline.BatchSize,
				Delay: cfg.Pipeline.BatchDelay,
			})
			out, _ := json.MarshalIndent(assignments, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
}

func exportCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "write an XLSX workbook from accepted receipts JSON",
		ArgsUsage: "<receipts-json> <out-xlsx>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: receipts-core export <receipts-json> <out-xlsx>", 2)
			}
			raw, err := os.ReadFile(c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("read receipts: %w", err)
			}
			var receipts []*entity.ReceiptDraft
			if err := json.Unmarshal(raw, &receipts); err != nil {
				return fmt.Errorf("decode receipts: %w", err)
			}
			b, err := export.NewService(logger).ReceiptsXLSX(receipts)
			if err != nil {
				return err
			}
			return os.WriteFile(c.Args().Get(1), b, 0o644)
		},
	}
}

func dbhealthCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "dbhealth",
		Usage: "check database connectivity",
		Action: func(c *cli.Context) error {
			cfg := common.LoadConfig()
			if cfg.Database.DSN == "" {
				return cli.Exit("DB_URL is not set", 2)
			}
			pool, err := repository.Open(c.Context, repoConfig(cfg), logger)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := repository.HealthCheck(c.Context, pool, 5*time.Second, logger); err != nil {
				return err
			}
			logger.Info("database health OK")
			return nil
		},
	}
}

func buildPipeline(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	engine, cleanup, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var textExtractor ocr.TextExtractor = ocr.Unavailable{}
	if cfg.OCR.BaseURL != "" {
		textExtractor = ocr.NewClient(ocr.Config{
			BaseURL:  cfg.OCR.BaseURL,
			APIKey:   cfg.OCR.APIKey,
			Language: cfg.OCR.Language,
			Timeout:  cfg.OCR.Timeout,
		}, logger)
	}

	generator, genCleanup, err := buildGenerator(ctx, cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	parser, err := buildParser(cfg)
	if err != nil {
		cleanup()
		genCleanup()
		return nil, nil, err
	}

	p := pipeline.New(logger, pipeline.Config{
		ReviewThreshold: cfg.Pipeline.ReviewThreshold,
	}, textExtractor, generator, engine, parser)
	return p, func() { genCleanup(); cleanup() }, nil
}

func buildGenerator(ctx context.Context, cfg *common.Config, logger *slog.Logger) (llm.DraftGenerator, func(), error) {
	switch cfg.LLM.Provider {
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	default:
		client := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		return client, func() {}, nil
	}
}

func buildEngine(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*categorize.Engine, func(), error) {
	parser, err := buildParser(cfg)
	if err != nil {
		return nil, nil, err
	}

	var store repository.CorrectionStore
	var categories repository.CategoryRepository = repository.NewStaticCategoryRepository()
	cleanup := func() {}

	switch {
	case cfg.Database.DSN != "":
		pool, err := repository.Open(ctx, repoConfig(cfg), logger)
		if err != nil {
			return nil, nil, err
		}
		store = repository.NewPgCorrectionStore(pool, logger)
		categories = repository.NewPgCategoryRepository(pool, logger)
		cleanup = pool.Close
	case cfg.Database.SQLitePath != "":
		s, err := repository.NewSQLiteCorrectionStore(cfg.Database.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		store = s
		cleanup = func() { _ = s.Close() }
	}

	engine := categorize.NewEngine(logger, categorize.Config{}, store, categories, parser)
	return engine, cleanup, nil
}

func buildParser(cfg *common.Config) (*product.Parser, error) {
	if cfg.Pipeline.DictionaryPath == "" {
		return product.NewParser(nil), nil
	}
	dict, err := product.LoadDictionary(cfg.Pipeline.DictionaryPath)
	if err != nil {
		return nil, err
	}
	return product.NewParser(dict), nil
}

func repoConfig(cfg *common.Config) repository.Config {
	return repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}
}
