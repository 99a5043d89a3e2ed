package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/docent/indexer"
)

func newIngestCmd() *cobra.Command {
	var (
		docsDir string
		force   bool
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Chunk and index the documentation corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if docsDir == "" {
				docsDir = a.cfg.DocsDir
			}

			ingestor := indexer.NewIngestor(a.index, func(o *indexer.IngestorOptions) {
				o.Logger = a.logger
			})

			indexed, err := ingestor.Ingest(ctx, docsDir, force)
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d chunks from %s\n", indexed, docsDir)

			if watch {
				fmt.Println("watching for changes; Ctrl-C to stop")
				return ingestor.Watch(ctx, docsDir)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&docsDir, "docs", "", "documentation directory (defaults to DOCENT_DOCS_DIR)")
	cmd.Flags().BoolVar(&force, "force", false, "reindex even when the index is already populated")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and reindex files as they change")

	return cmd
}
