// Package main provides a CLI tool for inspecting the action journal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rts/internal/config"
	"github.com/cory-johannsen/rts/internal/journal/backend"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	matchFlag := flag.String("match", "", "match ID whose actions to print; empty lists matches")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := backend.Open(ctx, cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("opening action journal: %v", err)
	}
	defer store.Close()

	if *matchFlag == "" {
		ids, err := store.Matches(ctx)
		if err != nil {
			log.Fatalf("listing matches: %v", err)
		}
		for _, id := range ids {
			fmt.Fprintln(os.Stdout, id)
		}
		fmt.Fprintf(os.Stdout, "%d matches [%s]\n", len(ids), time.Since(start))
		return
	}

	matchID, err := uuid.Parse(*matchFlag)
	if err != nil {
		log.Fatalf("invalid match id %q: %v", *matchFlag, err)
	}
	entries, err := store.Entries(ctx, matchID)
	if err != nil {
		log.Fatalf("reading match %s: %v", matchID, err)
	}
	for _, e := range entries {
		status := "ok"
		if !e.Accepted {
			status = "rejected"
		}
		fmt.Fprintf(os.Stdout, "%6d  frame %-6d player %-3d /%s %s  [%s]\n",
			e.Seq, e.Frame, e.PlayerID, e.Command, e.Args, status)
	}
	fmt.Fprintf(os.Stdout, "%d actions [%s]\n", len(entries), time.Since(start))
}
