package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/flare/pkg/api"
	grpcapi "github.com/lemonberrylabs/flare/pkg/api/grpc"
	"github.com/lemonberrylabs/flare/pkg/store"
	"github.com/lemonberrylabs/flare/web"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sessions over HTTP and gRPC",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "HTTP server port (default 8790, env PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8791, env GRPC_PORT)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		cfg.HTTP.Port = v
	}
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		cfg.GRPC.Port = v
	}
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		cfg.HTTP.Host = v
	}

	s := store.New(cfg.Preload...)

	// Sessions created from saved state start with its bindings.
	if cfg.StatePath != "" {
		env, done, err := prepareEnv(cfg)
		if err != nil {
			return err
		}
		sess, err := s.CreateSessionWithEnv(env.Clone())
		done()
		if err != nil {
			return err
		}
		log.Printf("Restored state into session %s", sess.Name)
	}

	server := api.New(s)

	// Register the web UI (non-fatal if template parsing fails)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Warning: web UI disabled due to template error: %v", r)
			}
		}()
		web.New(s).Register(server.App())
	}()

	grpcServer := grpcapi.New(s)
	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr())
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			log.Fatalf("gRPC server error: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down flare...")
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("Flare listening on %s (dashboard at /ui)", cfg.HTTPAddr())
	return server.Listen(cfg.HTTPAddr())
}
