package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/cvflow/cvflow-cli/internal/logger"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <cv-id>",
	Short: "Delete a CV permanently",
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

		confirm := promptui.Select{
			Label: fmt.Sprintf("Delete %s? This cannot be undone", args[0]),
			Items: []string{"No", "Yes"},
		}

		_, choice, err := confirm.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if choice != "Yes" {
			return
		}

		if err := client.DeleteCV(ctx, args[0]); err != nil {
			logger.Fatal("deleting cv", zap.Error(err))
		}

		fmt.Printf("Deleted %s\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
