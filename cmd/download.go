package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/cvflow/cvflow-cli/internal/cvflow"
	"github.com/cvflow/cvflow-cli/internal/gate"
	"github.com/cvflow/cvflow-cli/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var downloadCmd = &cobra.Command{
	Use:   "download <cv-id>",
	Short: "Download the rendered PDF for a CV",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}

		client, _, _, err := newClient(ctx, logger)
		if err != nil {
			logger.Fatal("preparing the cvflow client", zap.Error(err))
		}

		output := cmd.Flag("output").Value.String()
		if output == "" {
			output = args[0] + ".pdf"
		}

		g := gate.New(logger, client)

		ran := g.Do(ctx, cvflow.ActionCVDownload, "CV download", func() {
			if err := downloadCV(ctx, client, args[0], output); err != nil {
				// Export is best-effort; the draft itself is unaffected.
				logger.Warn("download failed", zap.Error(err))
				return
			}
			fmt.Printf("Saved %s\n", output)
		})

		if !ran {
			if err := showPaywall(ctx, client, g, logger); err != nil {
				logger.Fatal("paywall", zap.Error(err))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringP("output", "o", "", "output file (default <cv-id>.pdf)")
}

func downloadCV(ctx context.Context, client *cvflow.Client, id, output string) error {
	data, err := client.DownloadPreview(ctx, id)
	if err != nil {
		return err
	}

	return os.WriteFile(output, data, 0o644)
}
