package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-guidescan/internal/bam"
)

func newIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index <guides.bam>",
		Short: "Build a .bai index for a coordinate-sorted guide BAM",
		Long: `Write <guides.bam>.bai. Indexed databases answer region queries by
seeking to the region instead of scanning the whole file.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := bam.BuildIndex(args[0])
			if err != nil {
				return err
			}
			a.logger.Info("wrote index", zap.String("path", out))
			return nil
		},
	}
}
