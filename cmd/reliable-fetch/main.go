package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	reliablefetch "go-reliable-fetch"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "reliable-fetch",
		Short:        "Cached, coalesced and fault tolerant HTTP fetching",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default $CACHE_CONFIG_FILE)")

	root.AddCommand(newServeCmd(&configPath), newGetCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	var addr, socket string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cache API, health and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := NewCompositionRoot(*configPath, nil)
			if err != nil {
				return err
			}
			defer func() {
				if err := root.Cleanup(); err != nil {
					root.Logger.Error("Failed to cleanup resources", zap.Error(err))
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				if addr != "" {
					errCh <- root.HTTPServer.Start(addr)
					return
				}
				if socket == "" {
					socket = root.GetSocketPath()
				}
				errCh <- root.HTTPServer.StartUnixSocket(socket)
			}()

			// Wait for interrupt signal to gracefully shutdown
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				if err != nil {
					root.Logger.Error("Server failed", zap.Error(err))
				}
				return err
			case <-quit:
			}

			root.Logger.Info("Shutting down server...")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := root.HTTPServer.Stop(ctx); err != nil {
				root.Logger.Error("HTTP server forced to shutdown", zap.Error(err))
				return err
			}
			root.Logger.Info("Server exited")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "TCP address to listen on instead of a Unix socket")
	cmd.Flags().StringVar(&socket, "socket", "", "Unix socket path (default $CACHE_SOCKET_PATH)")
	return cmd
}

// getOutput is what `get` prints
type getOutput struct {
	StatusCode int                 `json:"statusCode,omitempty"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Content    string              `json:"content,omitempty"`
	Timing     int64               `json:"timing"`
	RealTiming int64               `json:"realTiming"`
	Cached     bool                `json:"cached"`
	Deduped    bool                `json:"deduped"`
	Stale      bool                `json:"stale"`
	Error      string              `json:"error,omitempty"`
}

func newGetCmd(configPath *string) *cobra.Command {
	var (
		req     reliablefetch.Request
		headers []string
		ttl     time.Duration
		bodyOut bool
	)

	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Fetch a url once through the pipeline and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := NewCompositionRoot(*configPath, zap.NewNop())
			if err != nil {
				return err
			}
			defer root.Cleanup()

			req.URL = args[0]
			req.Headers = parseHeaders(headers)
			if cmd.Flags().Changed("ttl") {
				req.CacheTTL = reliablefetch.TTL(ttl)
			}

			result, fetchErr := root.Client.Get(cmd.Context(), &req)
			if result == nil && fetchErr != nil {
				return fetchErr
			}

			out := cmd.OutOrStdout()
			if bodyOut {
				_, err := out.Write(result.Content)
				return err
			}
			return writeResult(out, result, fetchErr)
		},
	}

	cmd.Flags().StringVar(&req.CacheKey, "cache-key", "", "explicit cache key")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "cache validity when the response sets none; 0 disables caching")
	cmd.Flags().BoolVar(&req.ExplicitNoCache, "no-cache", false, "bypass the cache")
	cmd.Flags().IntVar(&req.TimeoutMillis, "timeout", 0, "timeout in milliseconds")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "request header as 'Name: value'")
	cmd.Flags().StringSliceVar(&req.Tags, "tag", nil, "cache tags")
	cmd.Flags().BoolVar(&bodyOut, "body", false, "print only the content")
	return cmd
}

func writeResult(w io.Writer, result *reliablefetch.Result, fetchErr error) error {
	out := getOutput{
		StatusCode: result.StatusCode,
		Headers:    result.Headers,
		Content:    string(result.Content),
		Timing:     result.Timing.Milliseconds(),
		RealTiming: result.RealTiming.Milliseconds(),
		Cached:     result.Cached,
		Deduped:    result.Deduped,
		Stale:      result.Stale,
	}
	if fetchErr != nil {
		out.Error = fetchErr.Error()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
