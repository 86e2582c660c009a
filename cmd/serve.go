package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/faceproctor/faceproctor/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the exam web server",
	Long: `Start the FaceProctor web server.
The server exposes registration, face verification and the timed exam
flow over HTTP, plus a token-gated admin API for logs, time limits,
attempt resets and question sets.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.pool != nil {
		fmt.Println("Using PostgreSQL embedding cache")
	} else {
		fmt.Println("Using file embedding cache")
	}

	// Build the identification index up front so the first 1:N request
	// does not pay for it.
	if err := a.rebuildIndex(ctx); err != nil {
		fmt.Printf("Warning: failed to build identification index: %v\n", err)
	}

	port, host := resolveServeHostPort(cmd)

	server := web.NewServer(a.cfg, port, host, web.Deps{
		Registry:   a.registry,
		Controller: a.controller,
		AuthLog:    a.authLog,
		ResultLog:  a.resultLog,
		TimeLimits: a.timeLimits,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting FaceProctor on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
