// Command mvccd runs the in-memory MVCC key-value server over the line
// protocol implemented by internal/server and internal/protocol.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mvccd/internal/config"
	"mvccd/internal/server"
	"mvccd/pkg/clock"
	"mvccd/pkg/mvcc"
)

var (
	addrFlag   string
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:   "mvccd",
	Short: "In-memory MVCC key-value server",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&addrFlag, "addr", "", "address to listen on, e.g. :7777 (overrides config)")
	rootCmd.Flags().StringVar(&configFlag, "config", "", "path to a config file (optional)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if addrFlag != "" {
		cfg.ListenAddr = addrFlag
	}

	engine := mvcc.New(clock.NewReal())
	if err := engine.Put("intro", []byte("Hello, World!"), nil); err != nil {
		return fmt.Errorf("seeding initial record: %w", err)
	}

	srv := server.New(cfg.ListenAddr, engine)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig
	log.Printf("[mvccd] received %s, shutting down", received)

	return srv.Stop()
}
