package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/internal/pipeline"
)

func collectCMD(cfgPath *string) *cobra.Command {
	var q, sources, domains, from, to, out string
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch articles from NewsAPI, scrape their bodies and write the document file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(*cfgPath)
			if out == "" {
				out = cfg.General.DocumentPath
			}
			collector, closeFetcher, err := newCollector(cfg)
			if err != nil {
				return err
			}
			defer closeFetcher()
			n, err := collector.CollectToFile(cmd.Context(), queryFromFlags(cfg, q, sources, domains, from, to), out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d articles to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&q, "q", "", "search terms (default from config)")
	cmd.Flags().StringVar(&sources, "sources", "", "comma separated NewsAPI source ids")
	cmd.Flags().StringVar(&domains, "domains", "", "comma separated domains")
	cmd.Flags().StringVar(&from, "from", "", "oldest article date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "newest article date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "document file (default general.document_path)")
	return cmd
}

func prepareCMD(cfgPath *string) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Validate the document file, extract features and persist everything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(*cfgPath)
			if in == "" {
				in = cfg.General.DocumentPath
			}
			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			report, err := newDriver(st, prometheus.DefaultRegisterer).PrepareFile(ctx, in)
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "document file (default general.document_path)")
	return cmd
}

func printReport(cmd *cobra.Command, r pipeline.Report) {
	fmt.Fprintf(cmd.OutOrStdout(), "stage=%s records=%d articles=%d feature_sets=%d duplicates=%d uninformative=%d failures=%d\n",
		r.Stage, r.Records, r.Articles, r.FeatureSets, r.Duplicates, r.Uninformative, len(r.Failures))
	for _, f := range r.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "  record %d %s: %v\n", f.Index, f.URL, f.Err)
	}
}

func indexCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Add every stored article with a body to the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(*cfgPath)
			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			idx, closeIdx, err := openIndex(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeIdx()
			n, err := indexAll(ctx, st, idx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents (%s)\n", n, cfg.Vector.Backend)
			return nil
		},
	}
}

func runCMD(cfgPath *string) *cobra.Command {
	var cronSpec string
	var now bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run collect, prepare and index on a cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(*cfgPath)
			if cronSpec == "" {
				cronSpec = cfg.Schedule.Cron
			}
			if cronSpec == "" {
				cronSpec = "@daily"
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			collector, closeFetcher, err := newCollector(cfg)
			if err != nil {
				return err
			}
			defer closeFetcher()
			idx, closeIdx, err := openIndex(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeIdx()

			reg := prometheus.NewRegistry()
			driver := newDriver(st, reg)
			if port := cfg.Telemetry.MetricsPort; port > 0 {
				go serveMetrics(port, reg)
			}

			logger := log.New(log.Writer(), "[RUN] ", log.LstdFlags)
			job := func(ctx context.Context) error {
				path := cfg.General.DocumentPath
				if _, err := collector.CollectToFile(ctx, queryFromFlags(cfg, "", "", "", "", ""), path); err != nil {
					return fmt.Errorf("collect: %w", err)
				}
				report, err := driver.PrepareFile(ctx, path)
				if err != nil {
					return fmt.Errorf("prepare: %w", err)
				}
				printReport(cmd, report)
				n, err := indexAll(ctx, st, idx)
				if err != nil {
					return fmt.Errorf("index: %w", err)
				}
				logger.Printf("indexed %d documents", n)
				return nil
			}
			err = pipeline.RunScheduled(ctx, cronSpec, now, job, logger)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cronSpec, "cron", "", "cron expression or @hourly/@daily (default schedule.cron)")
	cmd.Flags().BoolVar(&now, "now", true, "run one batch immediately")
	return cmd
}

func serveMetrics(port int, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", port)
	log.Printf("metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("metrics server: %v", err)
	}
}
