package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagetrail/pagetrail/config"
	"github.com/pagetrail/pagetrail/internal/pipeline"
)

func queryCMD() *cobra.Command {
	var cfgPath string
	var topK int
	var minSimilarity float64

	query := &cobra.Command{
		Use:   "query [text]",
		Short: "Semantic search over the browsing timeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if topK <= 0 {
				topK = cfg.Search.TopK
			}
			if minSimilarity <= 0 {
				minSimilarity = cfg.Search.MinSimilarity
			}

			vs, err := openVectorStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer vs.Close()

			svc := pipeline.NewQueryService(vs, newEmbedClient(cfg, nil), nil)
			results, err := svc.Query(cmd.Context(), strings.Join(args, " "), topK, minSimilarity)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("no matches above the similarity threshold")
				return nil
			}
			for i, r := range results {
				when := time.UnixMilli(r.Timestamp).Format("2006-01-02 15:04")
				title := r.Title
				if title == "" {
					title = r.URL
				}
				fmt.Printf("%2d. [%.3f] %s (%s)\n    %s\n", i+1, r.Similarity, title, when, r.URL)
				if r.Snippet != "" {
					fmt.Printf("    %s\n", r.Snippet)
				}
			}
			return nil
		},
	}
	query.Flags().IntVar(&topK, "top-k", 0, "maximum results (default from config)")
	query.Flags().Float64Var(&minSimilarity, "min-similarity", 0, "similarity floor (default from config)")
	query.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.json)")
	return query
}
