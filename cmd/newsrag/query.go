package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/internal/server"
	"github.com/mohammad-safakhou/newsrag/internal/store"
)

func askCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Answer a question from the indexed articles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(*cfgPath)
			ctx := cmd.Context()
			idx, closeIdx, err := openIndex(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeIdx()
			ans, err := newAnswerer(cfg, idx).Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\nSources:\n", ans.Text)
			for i, s := range ans.Sources {
				fmt.Fprintf(out, "%d. %s\n", i+1, s)
			}
			return nil
		},
	}
}

func searchCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "search TEXT",
		Short: "Find stored articles by body text or person name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(*cfgPath)
			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			results, err := st.SearchArticles(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}
}

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP read API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(*cfgPath)
			if addr == "" {
				addr = cfg.Server.Address
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if migrate {
				dsn, err := cfg.Storage.Postgres.DSN()
				if err != nil {
					return err
				}
				if err := store.Migrate("file://migrations", dsn, "up", 0); err != nil {
					return err
				}
			}
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			deps := server.Deps{Articles: st, Gatherer: prometheus.DefaultGatherer}
			idx, closeIdx, err := openIndex(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeIdx()
			if cfg.LLM.APIKey != "" {
				deps.Asker = newAnswerer(cfg, idx)
			}
			return server.Run(ctx, server.New(deps), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.address)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply migrations from ./migrations before serving")
	return cmd
}

func migrateCMD(cfgPath *string) *cobra.Command {
	var migDir, direction string
	var steps int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(*cfgPath)
			dsn, err := cfg.Storage.Postgres.DSN()
			if err != nil {
				return err
			}
			return store.Migrate(migDir, dsn, direction, steps)
		},
	}
	cmd.Flags().StringVar(&migDir, "dir", "file://migrations", "migrations source (file://migrations)")
	cmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return cmd
}
