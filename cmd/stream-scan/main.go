// Command stream-scan: discover, verify and persist live stream URLs for TV
// channels into a single M3U playlist.
//
//	discover  Find and verify streams for one channel, merge into the playlist
//	batch     Run discover for every channel listed in the channels file
//	refresh   Re-verify and re-discover every channel already in the playlist
//	remove    Delete a channel and all its streams from the playlist
//	stats     Print playlist totals
//	probe     Verify a single URL and print the verdict
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/streamscan/stream-scan/internal/catalog"
	"github.com/streamscan/stream-scan/internal/config"
	"github.com/streamscan/stream-scan/internal/iptvorg"
	"github.com/streamscan/stream-scan/internal/scanner"
	"github.com/streamscan/stream-scan/internal/verify"
)

func main() {
	_ = config.LoadEnvFile(".env")

	discoverCmd := flag.NewFlagSet("discover", flag.ExitOnError)
	batchCmd := flag.NewFlagSet("batch", flag.ExitOnError)
	batchMetrics := batchCmd.String("metrics", "", "Serve Prometheus metrics on this address while running (e.g. :9090)")
	refreshCmd := flag.NewFlagSet("refresh", flag.ExitOnError)
	refreshMetrics := refreshCmd.String("metrics", "", "Serve Prometheus metrics on this address while running")
	removeCmd := flag.NewFlagSet("remove", flag.ExitOnError)
	statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)
	probeCmd := flag.NewFlagSet("probe", flag.ExitOnError)
	probeTimeout := probeCmd.Duration("timeout", 30*time.Second, "Overall probe deadline")
	harvestCmd := flag.NewFlagSet("harvest", flag.ExitOnError)
	harvestURL := harvestCmd.String("url", "", "channels.json URL (default: the iptv-org API)")

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <discover|batch|refresh|remove|stats|probe|harvest> [flags]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  discover <name>  Find and verify streams for one channel\n")
		fmt.Fprintf(os.Stderr, "  batch            Discover every channel from the channels file\n")
		fmt.Fprintf(os.Stderr, "  refresh          Re-run discovery for every saved channel\n")
		fmt.Fprintf(os.Stderr, "  remove <name>    Delete a channel from the playlist\n")
		fmt.Fprintf(os.Stderr, "  stats            Print playlist totals\n")
		fmt.Fprintf(os.Stderr, "  probe <url>      Verify one URL and print the verdict\n")
		fmt.Fprintf(os.Stderr, "  harvest          Download the iptv-org channel DB used for tvg enrichment\n")
		os.Exit(1)
	}

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "discover":
		_ = discoverCmd.Parse(os.Args[2:])
		name := discoverCmd.Arg(0)
		if name == "" {
			log.Fatal("discover: channel name required")
		}
		s := mustScanner(cfg)
		res, err := s.DiscoverAndUpdate(ctx, name)
		if err != nil {
			log.WithError(err).Fatal("discovery failed")
		}
		printRun(res)

	case "batch":
		_ = batchCmd.Parse(os.Args[2:])
		serveMetrics(*batchMetrics)
		names, err := cfg.LoadChannels()
		if err != nil {
			log.WithError(err).Fatal("channels file unreadable")
		}
		if len(names) == 0 {
			log.Fatalf("batch: no channels listed in %s", cfg.ChannelsFile)
		}
		s := mustScanner(cfg)
		failed := 0
		for _, name := range names {
			if ctx.Err() != nil {
				break
			}
			res, err := s.DiscoverAndUpdate(ctx, name)
			if err != nil {
				failed++
				log.WithError(err).WithField("channel", name).Error("channel failed")
				continue
			}
			printRun(res)
		}
		log.WithField("channels", len(names)).WithField("failed", failed).Info("batch finished")
		if failed == len(names) {
			os.Exit(1)
		}

	case "refresh":
		_ = refreshCmd.Parse(os.Args[2:])
		serveMetrics(*refreshMetrics)
		s := mustScanner(cfg)
		results, err := s.RefreshAll(ctx)
		if err != nil {
			log.WithError(err).Fatal("refresh failed")
		}
		for i := range results {
			printRun(&results[i])
		}

	case "remove":
		_ = removeCmd.Parse(os.Args[2:])
		name := removeCmd.Arg(0)
		if name == "" {
			log.Fatal("remove: channel name required")
		}
		s := mustScanner(cfg)
		if err := s.RemoveChannel(name); err != nil {
			log.WithError(err).Fatal("removal failed")
		}
		log.WithField("channel", name).Info("channel removed")

	case "stats":
		_ = statsCmd.Parse(os.Args[2:])
		s := mustScanner(cfg)
		totals, err := s.Stats()
		if err != nil {
			log.WithError(err).Fatal("stats failed")
		}
		fmt.Printf("channels: %d\nstreams: %d\nstable: %d\n", totals.Channels, totals.Streams, totals.Stable)
		groups := make([]string, 0, len(totals.Groups))
		for g := range totals.Groups {
			groups = append(groups, g)
		}
		sort.Strings(groups)
		for _, g := range groups {
			fmt.Printf("  %s: %d\n", g, totals.Groups[g])
		}

	case "probe":
		_ = probeCmd.Parse(os.Args[2:])
		rawURL := probeCmd.Arg(0)
		if rawURL == "" {
			log.Fatal("probe: url required")
		}
		probeCtx, cancel := context.WithTimeout(ctx, *probeTimeout)
		defer cancel()
		v := verify.New()
		v.DeepProbe = cfg.DeepProbe
		v.DeepProbeTimeout = cfg.DeepProbeTimeout
		results, _ := v.VerifyAll(probeCtx, []catalog.Candidate{{URL: rawURL}})
		if len(results) == 0 {
			log.Fatal("probe produced no verdict")
		}
		r := results[0]
		fmt.Printf("working: %t\nstatus: %s\nquality: %s\n", r.Working, r.Status, r.Quality)
		if r.Probe != nil {
			fmt.Printf("video: %dx%d %s %.2ffps %dbps\n", r.Probe.Width, r.Probe.Height, r.Probe.VideoCodec, r.Probe.FPS, r.Probe.BitRate)
		}
		if !r.Working {
			os.Exit(1)
		}

	case "harvest":
		_ = harvestCmd.Parse(os.Args[2:])
		db := &iptvorg.DB{}
		n, err := db.Fetch(ctx, nil, *harvestURL)
		if err != nil {
			log.WithError(err).Fatal("harvest failed")
		}
		if err := db.Save(cfg.IPTVOrgDBFile); err != nil {
			log.WithError(err).Fatal("channel db not saved")
		}
		log.WithField("channels", n).WithField("path", cfg.IPTVOrgDBFile).Info("channel db saved")

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		os.Exit(1)
	}
}

func mustScanner(cfg *config.Config) *scanner.Scanner {
	s, err := scanner.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("scanner setup failed")
	}
	return s
}

func printRun(res *scanner.RunResult) {
	entry := log.WithField("channel", res.Channel).
		WithField("candidates", res.Candidates).
		WithField("working", res.Working).
		WithField("kept", res.Kept)
	if res.Stats.Requests > 0 {
		entry = entry.WithField("requests", res.Stats.Requests).
			WithField("avg_latency", res.Stats.AvgLatency().Round(time.Millisecond).String())
	}
	if res.Preserved {
		entry.Info("nothing new found, existing streams preserved")
		return
	}
	entry.Info("channel updated")
}

func setupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// serveMetrics exposes /metrics in the background for the lifetime of the
// process. Long batch and refresh runs are the only modes worth scraping.
func serveMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.WithError(err).Warn("metrics listener stopped")
		}
	}()
}
