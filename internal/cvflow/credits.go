package cvflow

import (
	"context"
	"fmt"
)

const (
	apiCreditsPath      = "/credits"
	apiSubscriptionPath = "/subscription"
)

// Action is a metered action kind. The set mirrors the backend's billable
// and free actions.
type Action string

const (
	ActionATSAnalysis    Action = "ats_cv_analysis"
	ActionCVOptimization Action = "cv_optimization"
	ActionCVDownload     Action = "cv_download"
	ActionCVRegeneration Action = "cv_regeneration"
	ActionCoverLetter    Action = "cover_letter"
	ActionAIHeadshot     Action = "ai_headshot"
	ActionSendCVEmail    Action = "send_cv_email"
	ActionEmailTracking  Action = "email_tracking"
)

// PackID identifies a purchasable credit pack.
type PackID string

const (
	Pack5  PackID = "pack_5"
	Pack15 PackID = "pack_15"
	Pack40 PackID = "pack_40"
)

// Pack describes a credit pack as priced by the backend.
type Pack struct {
	ID      PackID
	Credits int
	Price   string
}

// Packs lists the purchasable credit packs, smallest first.
func Packs() []Pack {
	return []Pack{
		{ID: Pack5, Credits: 5, Price: "$4.99"},
		{ID: Pack15, Credits: 15, Price: "$12.99"},
		{ID: Pack40, Credits: 40, Price: "$29.99"},
	}
}

// ActionCheck is the backend's verdict on whether a metered action may
// proceed. The check never deducts credits.
type ActionCheck struct {
	Allowed          bool   `json:"allowed"`
	Reason           string `json:"reason"`
	CreditsRequired  int    `json:"credits_required"`
	CreditsRemaining int    `json:"credits_remaining"`
	CoveredByPro     bool   `json:"covered_by_pro"`
}

// CreditBalance is the current balance and plan for the signed-in user.
type CreditBalance struct {
	Balance   int    `json:"balance"`
	Plan      string `json:"plan"`
	IsPremium bool   `json:"is_premium"`
}

// Checkout carries the Stripe checkout URL the browser must be sent to.
type Checkout struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

func (c *Client) CheckAction(ctx context.Context, action Action) (*ActionCheck, error) {
	payload := map[string]string{"action": string(action)}

	var check ActionCheck
	if err := c.postJSON(ctx, fmt.Sprintf("%s%s/check-action", c.APIURL, apiCreditsPath), payload, &check); err != nil {
		return nil, err
	}

	return &check, nil
}

func (c *Client) CreditStatus(ctx context.Context) (*CreditBalance, error) {
	var balance CreditBalance
	if err := c.getJSON(ctx, fmt.Sprintf("%s%s/balance", c.APIURL, apiCreditsPath), &balance); err != nil {
		return nil, err
	}

	return &balance, nil
}

func (c *Client) PurchaseCredits(ctx context.Context, pack PackID, successURL, cancelURL string) (*Checkout, error) {
	payload := map[string]string{
		"pack_id":     string(pack),
		"success_url": successURL,
		"cancel_url":  cancelURL,
	}

	var checkout Checkout
	if err := c.postJSON(ctx, fmt.Sprintf("%s%s/purchase", c.APIURL, apiCreditsPath), payload, &checkout); err != nil {
		return nil, err
	}

	return &checkout, nil
}

func (c *Client) CreateSubscriptionCheckout(ctx context.Context, successURL, cancelURL string) (*Checkout, error) {
	payload := map[string]string{
		"success_url": successURL,
		"cancel_url":  cancelURL,
	}

	var checkout Checkout
	if err := c.postJSON(ctx, fmt.Sprintf("%s%s/checkout", c.APIURL, apiSubscriptionPath), payload, &checkout); err != nil {
		return nil, err
	}

	return &checkout, nil
}
