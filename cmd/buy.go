package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/cvflow/cvflow-cli/internal/cvflow"
	"github.com/cvflow/cvflow-cli/internal/logger"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var buyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Buy credits or subscribe to Pro",
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

		if balance, err := client.CreditStatus(ctx); err == nil {
			fmt.Printf("Current balance: %d credit(s), plan: %s\n", balance.Balance, balance.Plan)
		}

		items := []string{promptSubscribe}
		for _, pack := range cvflow.Packs() {
			items = append(items, fmt.Sprintf("Buy %d credits for %s", pack.Credits, pack.Price))
		}

		prompt := promptui.Select{
			Label: "What would you like?",
			Items: items,
		}

		idx, choice, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		var checkout *cvflow.Checkout
		if choice == promptSubscribe {
			checkout, err = client.CreateSubscriptionCheckout(ctx, dashboardURL+"/settings?subscription=success", dashboardURL)
		} else {
			checkout, err = client.PurchaseCredits(ctx, cvflow.Packs()[idx-1].ID, dashboardURL+"/settings?credits=success", dashboardURL)
		}
		if err != nil {
			logger.Fatal("creating checkout", zap.Error(err))
		}

		fmt.Printf("Open this link in your browser to finish the purchase:\n%s\n", checkout.CheckoutURL)
	},
}

func init() {
	rootCmd.AddCommand(buyCmd)
}
