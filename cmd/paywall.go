package cmd

import (
	"context"
	"fmt"

	"github.com/cvflow/cvflow-cli/internal/cvflow"
	"github.com/cvflow/cvflow-cli/internal/gate"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"
)

const (
	promptSubscribe = "Upgrade to Pro (unlimited)"
	promptNotNow    = "Not now"
)

// showPaywall renders the denial as a terminal menu: a subscription upsell
// when the plan would cover the action, the one-time credit packs always,
// and a way out. A selected option ends with a checkout URL for the browser.
func showPaywall(ctx context.Context, client *cvflow.Client, g *gate.Gate, logger *zap.Logger) error {
	denial := g.Denial()
	if denial == nil {
		return nil
	}
	defer g.ClearDenial()

	fmt.Printf("\n%q needs %d credit(s); you have %d.\n",
		denial.ActionLabel, denial.CreditsRequired, denial.CreditsRemaining)

	items := make([]string, 0, len(cvflow.Packs())+2)
	if denial.CoveredByPro {
		items = append(items, promptSubscribe)
	}
	for _, pack := range cvflow.Packs() {
		items = append(items, fmt.Sprintf("Buy %d credits for %s", pack.Credits, pack.Price))
	}
	items = append(items, promptNotNow)

	prompt := promptui.Select{
		Label: "Get more credits?",
		Items: items,
	}

	idx, choice, err := prompt.Run()
	if err != nil {
		return err
	}

	if choice == promptNotNow {
		logger.Debug("paywall dismissed")
		return nil
	}

	successURL := dashboardURL + "/settings?credits=success"
	cancelURL := dashboardURL

	var checkout *cvflow.Checkout
	if choice == promptSubscribe {
		checkout, err = client.CreateSubscriptionCheckout(ctx, dashboardURL+"/settings?subscription=success", cancelURL)
	} else {
		packs := cvflow.Packs()
		if denial.CoveredByPro {
			idx--
		}
		checkout, err = client.PurchaseCredits(ctx, packs[idx].ID, successURL, cancelURL)
	}
	if err != nil {
		return fmt.Errorf("creating checkout: %w", err)
	}

	fmt.Printf("Open this link in your browser to finish the purchase:\n%s\n", checkout.CheckoutURL)

	return nil
}
