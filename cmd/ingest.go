package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagetrail/pagetrail/config"
	"github.com/pagetrail/pagetrail/internal/capture"
	"github.com/pagetrail/pagetrail/internal/pipeline"
)

func ingestCMD() *cobra.Command {
	var cfgPath string
	var input string

	ingest := &cobra.Command{
		Use:   "ingest",
		Short: "Embed an exported session file into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("open export file: %w", err)
			}
			defer f.Close()
			sessions, err := capture.ReadJSON(f)
			if err != nil {
				return err
			}

			vs, err := openVectorStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer vs.Close()

			ing := pipeline.NewIngestor(vs, newEmbedClient(cfg, nil), cfg.Pipeline.Workers, nil)
			report, err := ing.Ingest(cmd.Context(), sessions)
			fmt.Printf("sessions: %d, embedded: %d, skipped: %d\n",
				report.SessionsProcessed, report.PagesEmbedded, report.PagesSkipped)
			return err
		},
	}
	ingest.Flags().StringVarP(&input, "input", "i", "sessions.json", "exported session JSON file")
	ingest.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.json)")
	_ = ingest.MarkFlagRequired("input")
	return ingest
}
