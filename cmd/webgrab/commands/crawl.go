package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/webgrab/webgrab/internal/crawler"
	"github.com/webgrab/webgrab/internal/fetcher"
	"github.com/webgrab/webgrab/internal/logger"
	"github.com/webgrab/webgrab/internal/media"
	"github.com/webgrab/webgrab/internal/robots"
	"github.com/webgrab/webgrab/internal/storage"
	"github.com/webgrab/webgrab/internal/urlutil"
	"github.com/webgrab/webgrab/pkg/cleaner"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "Crawl a website starting from the given URL",
	Long: `Crawl fetches the seed URL, records its outbound links, and writes a
cleaned markdown copy of every visited page under the output directory.

With --deep, discovered links on the same host are followed breadth-first
up to --max-depth. With --download, images and linked files are saved to
a downloads directory alongside the page artifacts.

Examples:
  webgrab crawl https://example.com
  webgrab crawl https://example.com --deep --max-depth 2 --max-pages 50
  webgrab crawl https://example.com --deep --download --exclude-file excluded.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	flags := crawlCmd.Flags()

	// Traversal
	flags.Bool("deep", false, "follow discovered links breadth-first")
	flags.Int("max-depth", 3, "max link depth for deep crawls")
	flags.Int("max-pages", 0, "max pages to fetch (0 = unlimited)")
	flags.Bool("follow-external", false, "follow links off the seed's host")
	flags.String("exclude-file", "", "line-oriented list of hosts to exclude; grows when hosts are auto-excluded")
	flags.Int("fail-threshold", 5, "consecutive failures before a host is excluded (0 = disabled)")

	// Fetching
	flags.String("fetch-mode", "static", "fetch mode: static, dynamic, auto")
	flags.Duration("timeout", 30*time.Second, "per-request timeout")
	flags.Duration("delay", 200*time.Millisecond, "delay between requests")
	flags.IntP("concurrency", "c", 4, "concurrent fetch workers")
	flags.Int("retries", 3, "fetch attempts per URL for transient failures")
	flags.String("max-body-size", "6MB", "max page/asset size (e.g. 512KB, 10MB, 0 = unlimited)")
	flags.Bool("ignore-robots", false, "skip robots.txt checks")

	// Output
	flags.Bool("download", false, "download discovered images and files")
	flags.StringP("output-dir", "o", "./results", "root directory for crawl results")
	flags.String("manifest-format", "json", "manifest format: json, yaml")
	flags.Bool("no-clean", false, "persist raw HTML instead of markdown")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	seedURL := args[0]

	// Fail fast on an unusable seed, before any setup.
	seed, err := urlutil.Normalize(seedURL, nil)
	if err != nil {
		return fmt.Errorf("invalid seed URL: %w", err)
	}

	maxBodyStr, _ := cmd.Flags().GetString("max-body-size")
	var maxBody int64
	if maxBodyStr != "" && maxBodyStr != "0" {
		parsed, err := humanize.ParseBytes(maxBodyStr)
		if err != nil {
			return fmt.Errorf("invalid max-body-size %q: %w", maxBodyStr, err)
		}
		maxBody = int64(parsed)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")

	fetchOpts := fetcher.DefaultOptions()
	fetchOpts.Timeout = timeout
	fetchOpts.MaxBodyBytes = maxBody

	fetchModeStr, _ := cmd.Flags().GetString("fetch-mode")
	f, err := fetcher.New(fetcher.Mode(fetchModeStr), fetchOpts)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	logger.Debug("fetcher created", "type", f.Type())

	filter := crawler.NewDomainFilter()
	if excludePath, _ := cmd.Flags().GetString("exclude-file"); excludePath != "" {
		if err := filter.Load(excludePath); err != nil {
			return err
		}
		logger.Debug("exclusion list loaded", "path", excludePath, "hosts", len(filter.Hosts()))
	}

	var robotsAgent crawler.RobotsPolicy
	if ignore, _ := cmd.Flags().GetBool("ignore-robots"); !ignore {
		robotsAgent = robots.NewAgent(robots.Config{
			UserAgent: fetchOpts.UserAgent,
			Respect:   true,
		}, &http.Client{Timeout: timeout})
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	store, err := storage.New(outputDir, seed)
	if err != nil {
		return err
	}
	logger.Info("results directory", "path", store.Dir())

	var downloader crawler.Downloader
	if download, _ := cmd.Flags().GetBool("download"); download {
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		dl, err := media.NewDownloader(media.DownloaderConfig{
			Dir:         store.DownloadsDir(),
			Timeout:     timeout,
			MaxBytes:    maxBody,
			Concurrency: concurrency,
		})
		if err != nil {
			return err
		}
		downloader = dl
	}

	cfg := crawler.DefaultConfig()
	cfg.Deep, _ = cmd.Flags().GetBool("deep")
	cfg.MaxDepth, _ = cmd.Flags().GetInt("max-depth")
	cfg.MaxPages, _ = cmd.Flags().GetInt("max-pages")
	cfg.FollowExternal, _ = cmd.Flags().GetBool("follow-external")
	cfg.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	cfg.RetryAttempts, _ = cmd.Flags().GetInt("retries")
	cfg.Delay, _ = cmd.Flags().GetDuration("delay")
	cfg.Timeout = timeout
	cfg.FailThreshold, _ = cmd.Flags().GetInt("fail-threshold")

	engine, err := crawler.New(f, robotsAgent, filter, downloader, cfg, fetchOpts)
	if err != nil {
		return err
	}

	var cl cleaner.Cleaner
	if noClean, _ := cmd.Flags().GetBool("no-clean"); noClean {
		cl = cleaner.NewNoop()
	} else {
		cl = cleaner.NewMarkdown(urlutil.Hostname(seed))
	}
	logger.Debug("cleaner selected", "cleaner", cl.Name())

	results, err := engine.Crawl(ctx, seed)
	if err != nil {
		return err
	}

	for result := range results {
		if result.Status != crawler.StatusSuccess {
			logger.Warn("page failed",
				"url", result.URL,
				"kind", string(result.ErrorKind),
				"attempts", result.Attempts)
			continue
		}

		images := 0
		for _, ref := range result.Media {
			if ref.Kind == media.KindImage {
				images++
			}
		}
		logger.Info("page",
			"url", result.URL,
			"depth", result.Depth,
			"links", len(result.Links),
			"images", images)

		text, err := cl.Clean(result.HTML)
		if err != nil {
			logger.Warn("content cleaning failed", "url", result.URL, "error", err)
			continue
		}
		if _, err := store.WritePage(result.URL, text); err != nil {
			logger.Error("failed to persist page", "url", result.URL, "error", err)
		}
	}

	manifest := engine.Manifest()
	formatStr, _ := cmd.Flags().GetString("manifest-format")
	path, err := store.WriteManifest(manifest, storage.Format(formatStr))
	if err != nil {
		return err
	}

	logger.Info("manifest written",
		"path", path,
		"visited", manifest.VisitedCount,
		"succeeded", manifest.SuccessCount,
		"failed", manifest.FailedCount)

	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, "Crawled %d pages (%d ok, %d failed), manifest at %s\n",
			manifest.VisitedCount, manifest.SuccessCount, manifest.FailedCount, path)
	}
	return nil
}
