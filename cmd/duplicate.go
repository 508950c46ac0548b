package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/cvflow/cvflow-cli/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var duplicateCmd = &cobra.Command{
	Use:   "duplicate <cv-id>",
	Short: "Create a copy of an existing CV",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()

		logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}

		client, _, _, err := newClient(ctx, logger)
		if err != nil {
			logger.Fatal("preparing the cvflow client", zap.Error(err))
		}

		cv, err := client.DuplicateCV(ctx, args[0])
		if err != nil {
			logger.Fatal("duplicating cv", zap.Error(err))
		}

		fmt.Printf("Created %s (%s)\n", cv.ID, cv.Title)
	},
}

func init() {
	rootCmd.AddCommand(duplicateCmd)
}
