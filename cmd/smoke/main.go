// Command smoke drives a running apiprobe server with concurrent fetches and stored request
// replays, checks every response for contract violations and prints a summary table.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/sync/errgroup"

	cfg "github.com/apiprobe/apiprobe/common/config"
)

const (
	defaultTargets     = "https://httpbin.org/get,https://httpbin.org/status/404"
	defaultConcurrency = 4
	maxResponseBytes   = 4 << 20
)

type config struct {
	APIBase     string
	Token       string
	Targets     []string
	StoredIds   []string
	Concurrency int
}

func main() {
	logger, err := glog.NewConsoleWithName("apiprobe-smoke", glog.LevelInfo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %+v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("smoke run failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("all checks passed")
}

func run(ctx context.Context, logger glog.Logger) error {
	conf, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	logger.Info("starting smoke run",
		zap.String("base_url", conf.APIBase),
		zap.Strings("targets", conf.Targets),
		zap.Int("stored_requests", len(conf.StoredIds)))

	httpClient := &http.Client{Timeout: 60 * time.Second}
	checks := buildChecks(conf)

	var (
		mu      sync.Mutex
		results = make([]checkResult, 0, len(checks))
	)

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(conf.Concurrency)
	for _, c := range checks {
		grp.Go(func() error {
			res := performCheck(grpCtx, httpClient, conf, c)
			if res.Problem != "" {
				logger.Warn("check failed", zap.String("check", res.Label), zap.String("problem", res.Problem))
			} else {
				logger.Debug("check passed", zap.String("check", res.Label), zap.Duration("duration", res.Duration))
			}

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = grp.Wait()

	failed := renderReport(os.Stdout, results)
	if failed > 0 {
		return errors.Errorf("%d of %d checks failed", failed, len(results))
	}
	return nil
}

func loadConfig() (config, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.SmokeTestAPIBase), "/")
	if base == "" {
		return config{}, errors.New("API_BASE must be set")
	}

	targetsRaw := cfg.SmokeTestTargets
	if targetsRaw == "" {
		targetsRaw = defaultTargets
	}
	stored := splitList(cfg.SmokeTestStoredRequests)
	if len(stored) > 0 && cfg.SmokeTestToken == "" {
		return config{}, errors.New("API_TOKEN must be set to replay stored requests")
	}

	return config{
		APIBase:     base,
		Token:       cfg.SmokeTestToken,
		Targets:     splitList(targetsRaw),
		StoredIds:   stored,
		Concurrency: defaultConcurrency,
	}, nil
}

// splitList accepts comma, semicolon and whitespace separated values.
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
