package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/tomz197/chainbreaker/internal/config"
	"github.com/tomz197/chainbreaker/internal/draw"
	"github.com/tomz197/chainbreaker/internal/loop/client"
	"github.com/tomz197/chainbreaker/internal/loop/server"
	"github.com/tomz197/chainbreaker/internal/stats"
	"golang.org/x/term"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The terminal belongs to the game, so logs go to LOG_FILE or nowhere.
	logOut, closeLog, err := cfg.OpenLogFile(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()
	logger, err := cfg.NewLogger(logOut)
	if err != nil {
		return err
	}

	table, err := cfg.Table()
	if err != nil {
		return err
	}
	kv, closeKV, err := stats.OpenKV(cfg.StatsBackend, cfg.StatsPath)
	if err != nil {
		return err
	}
	defer closeKV()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	hub := server.NewServer(kv, table, server.WithLogger(logger))
	c := client.NewClient(hub, bufio.NewReader(os.Stdin), os.Stdout, client.ClientOptions{
		Profile: draw.ProfileFor(os.Getenv("TERM"), os.Getenv("COLORTERM")),
	})
	logger.Info("local game started", "backend", cfg.StatsBackend, "path", cfg.StatsPath)
	return c.Run()
}
