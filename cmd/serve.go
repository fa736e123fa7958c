package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/pagetrail/pagetrail/config"
	"github.com/pagetrail/pagetrail/internal/capture"
	"github.com/pagetrail/pagetrail/internal/pipeline"
	"github.com/pagetrail/pagetrail/internal/server"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the capture and search HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			captureStore, err := newCaptureStore(cfg)
			if err != nil {
				return err
			}
			blacklist := capture.NewBlacklist(capture.ParseRules(cfg.Capture.Blacklist))
			recorder := capture.NewRecorder(captureStore, blacklist, cfg.Capture.IdleGapMillis, cfg.Capture.SnippetMaxChars, nil)

			vs, err := openVectorStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer vs.Close()

			embedClient := newEmbedClient(cfg, nil)
			query := pipeline.NewQueryService(vs, embedClient, nil)

			srv := server.New(recorder, query, nil)
			go func() {
				<-cmd.Context().Done()
				_ = srv.Shutdown(context.Background())
			}()
			if err := srv.Start(cfg.Server.Address); err != nil {
				log.Printf("server stopped: %v", err)
			}
			return nil
		},
	}
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.json)")
	return serve
}
