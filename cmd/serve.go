/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/bhasha/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI",
	Long: `Start the browser UI and the JSON API.

Routes:
  GET  /                 translation page (?example=N prefills an example)
  POST /                 form actions: translate, clear
  POST /api/translate    {"text", "source", "target"}
  GET  /api/languages    source and target catalogs
  GET  /api/examples     canned examples
  GET  /audio/{id}       generated speech (audio/mpeg)
  GET  /healthz`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		go a.audio.Run(ctx, func(removed int, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("audio sweep failed")
				return
			}
			if removed == 0 {
				return
			}
			ev := logger.Debug().Int("removed", removed).Int("live", a.audio.Len())
			if stats, err := a.store.Stats(ctx); err == nil {
				ev = ev.Int("memory_entries", stats.TotalEntries).Int64("audio_bytes", stats.ArtifactSize)
			}
			ev.Msg("expired audio removed")
		})

		srv := web.NewServer(a.handler, a.audio, logger, web.Config{RateLimit: cfg.RateLimit, Memory: a.store})
		httpSrv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info().Str("addr", cfg.Addr).Msg("listening")
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":7860", "Listen address")
	serveCmd.Flags().Int("rate-limit", 60, "Translate requests per minute per IP (0 disables)")
	serveCmd.Flags().Duration("audio-ttl", time.Hour, "How long generated audio stays available")

	bindFlags(serveCmd.Flags(), map[string]string{
		"addr":       "addr",
		"rate_limit": "rate-limit",
		"audio_ttl":  "audio-ttl",
	})
}
