package main

import (
	"testing"

	"github.com/mohammad-safakhou/newsrag/config"
)

func TestQueryFromFlags(t *testing.T) {
	cfg := &config.Config{}
	cfg.Sources.NewsAPI = config.NewsAPIConfig{Query: "Israel economy", Language: "en", SortBy: "relevancy", PageSize: 20}

	q := queryFromFlags(cfg, "", "", "", "2025-06-01", "")
	if q.Q != "Israel economy" || q.Language != "en" || q.PageSize != 20 || q.From != "2025-06-01" {
		t.Fatalf("config defaults not applied: %+v", q)
	}
	q = queryFromFlags(cfg, "Apple", "bbc-news", "theverge.com", "", "")
	if q.Q != "Apple" || q.Sources != "bbc-news" || q.Domains != "theverge.com" {
		t.Fatalf("flags should override config: %+v", q)
	}
}

func TestCommandsRegistered(t *testing.T) {
	var path string
	for _, cmd := range []interface{ Name() string }{
		collectCMD(&path), prepareCMD(&path), indexCMD(&path), askCMD(&path),
		searchCMD(&path), serveCMD(&path), migrateCMD(&path), runCMD(&path),
	} {
		if cmd.Name() == "" {
			t.Fatalf("command without a name")
		}
	}
	run := runCMD(&path)
	if f := run.Flags().Lookup("cron"); f == nil || f.DefValue != "" {
		t.Fatalf("run --cron flag missing")
	}
}
