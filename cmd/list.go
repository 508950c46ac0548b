package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/cvflow/cvflow-cli/internal/cvflow"
	"github.com/cvflow/cvflow-cli/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your CVs",
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()

		logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}

		client, _, _, err := newClient(ctx, logger)
		if err != nil {
			logger.Fatal("preparing the cvflow client", zap.Error(err))
		}

		if err := listCVs(ctx, client); err != nil {
			logger.Fatal("listing cvs", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listCVs(ctx context.Context, client *cvflow.Client) error {
	cvs, err := client.ListCVs(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	if len(cvs) == 0 {
		fmt.Println("No CVs yet. Start one with: cvflow edit new")
		return nil
	}

	for _, cv := range cvs {
		score := "-"
		if cv.ATSScore != nil {
			score = fmt.Sprintf("%.0f", *cv.ATSScore)
		}
		fmt.Printf("%s  %-30s  template=%s  ats=%s  %s\n", cv.ID, cv.Title, cv.TemplateID, score, cv.Status)
	}

	return nil
}
