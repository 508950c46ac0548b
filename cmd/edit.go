package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cvflow/cvflow-cli/internal/cvflow"
	"github.com/cvflow/cvflow-cli/internal/editor"
	"github.com/cvflow/cvflow-cli/internal/gate"
	"github.com/cvflow/cvflow-cli/internal/logger"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptEditSummary = "Edit summary"
	PromptImproveAI   = "Improve summary with AI"
	PromptGenerateAI  = "Generate summary with AI"
	PromptRename      = "Rename"
	PromptSaveNow     = "Save now"
	PromptShow        = "Show CV"
	PromptDownload    = "Download PDF"
	PromptQuit        = "Quit"

	// aiLogLimit caps AI output echoed into debug logs.
	aiLogLimit = 200
)

var errQuit = errors.New("quit requested")

var editCmd = &cobra.Command{
	Use:   "edit [cv-id|new]",
	Short: "Edit a CV interactively, with debounced autosave",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		edit(args[0])
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func edit(id string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	client, sess, config, err := newClient(ctx, logger)
	if err != nil {
		logger.Fatal("preparing the cvflow client", zap.Error(err))
	}

	logger.Debug("starting an editor session", zap.String("session_id", sess.ID), zap.String("cv_id", id))

	template := ""
	if config.Defaults != nil {
		template = config.Defaults.Template
	}

	ctrl, err := editor.Open(ctx, client, logger, id, template)
	if err != nil {
		// Never present a broken editor: fall back to the listing.
		logger.Warn("could not open the editor, falling back to your CV list", zap.Error(err))
		if err := listCVs(ctx, client); err != nil {
			logger.Fatal("listing cvs", zap.Error(err))
		}
		return
	}
	defer ctrl.Close()

	if ctrl.Created() {
		fmt.Printf("Created a new CV: %s\n", ctrl.ID())
	}

	ctrl.OnStatusChange = func(status editor.SaveStatus) {
		logger.Debug("save status changed", zap.String("status", status.String()))
	}

	g := gate.New(logger, client)

	language := "en"
	if config.Defaults != nil && config.Defaults.Language != "" {
		language = config.Defaults.Language
	}

	for {
		prompt := promptui.Select{
			Label: fmt.Sprintf("%s [%s]", ctrl.Title(), ctrl.Status()),
			Items: []string{PromptEditSummary, PromptImproveAI, PromptGenerateAI, PromptRename, PromptSaveNow, PromptShow, PromptDownload, PromptQuit},
		}

		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleEditAction(ctx, action, ctrl, client, g, logger, language); err != nil {
			if errors.Is(err, errQuit) {
				return
			}
			logger.Warn("action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

func handleEditAction(ctx context.Context, action string, ctrl *editor.Controller, client *cvflow.Client, g *gate.Gate, log *zap.Logger, language string) error {
	switch action {
	case PromptEditSummary:
		return editSummary(ctrl)
	case PromptImproveAI:
		return improveSummary(ctx, ctrl, client, g, log, language)
	case PromptGenerateAI:
		return generateSummary(ctx, ctrl, client, g, log, language)
	case PromptRename:
		return rename(ctx, ctrl)
	case PromptSaveNow:
		return ctrl.Save(ctx)
	case PromptShow:
		return showCV(ctrl)
	case PromptDownload:
		return downloadFromEditor(ctx, ctrl, client, g, log)
	case PromptQuit:
		return quit(ctx, ctrl)
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func editSummary(ctrl *editor.Controller) error {
	prompt := promptui.Prompt{
		Label:   "Summary",
		Default: ctrl.Content().Summary(),
	}

	text, err := prompt.Run()
	if err != nil {
		return err
	}

	content := ctrl.Content().Clone()
	content.SetSummary(text)
	ctrl.SetContent(content)

	return nil
}

func improveSummary(ctx context.Context, ctrl *editor.Controller, client *cvflow.Client, g *gate.Gate, log *zap.Logger, language string) error {
	summary := ctrl.Content().Summary()
	if summary == "" {
		fmt.Println("Nothing to improve yet: the summary is empty.")
		return nil
	}

	var actionErr error
	ran := g.Do(ctx, cvflow.ActionCVOptimization, "AI text improvement", func() {
		improved, err := client.ImproveText(ctx, summary, "professional summary", language)
		if err != nil {
			actionErr = err
			return
		}

		log.Debug("ai rewrite", zap.String("improved", logger.TruncateForLog(improved, aiLogLimit)))

		content := ctrl.Content().Clone()
		content.SetSummary(improved)
		ctrl.SetContent(content)

		fmt.Printf("Improved summary:\n%s\n", improved)
	})

	if !ran {
		return showPaywall(ctx, client, g, log)
	}

	return actionErr
}

func generateSummary(ctx context.Context, ctrl *editor.Controller, client *cvflow.Client, g *gate.Gate, log *zap.Logger, language string) error {
	prompt := promptui.Prompt{
		Label: "Target role",
	}

	role, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return nil
		}
		return err
	}

	var actionErr error
	ran := g.Do(ctx, cvflow.ActionCVOptimization, "AI summary generation", func() {
		summary, err := client.GenerateSummary(ctx, ctrl.ID(), role, language)
		if err != nil {
			actionErr = err
			return
		}

		log.Debug("ai summary", zap.String("summary", logger.TruncateForLog(summary, aiLogLimit)))

		content := ctrl.Content().Clone()
		content.SetSummary(summary)
		ctrl.SetContent(content)

		fmt.Printf("Generated summary:\n%s\n", summary)
	})

	if !ran {
		return showPaywall(ctx, client, g, log)
	}

	return actionErr
}

func rename(ctx context.Context, ctrl *editor.Controller) error {
	prompt := promptui.Prompt{
		Label:   "New title",
		Default: ctrl.Title(),
	}

	title, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			// Escape cancels the rename; the old title stays.
			return nil
		}
		return err
	}

	committed, err := ctrl.CommitTitle(ctx, title)
	if err != nil {
		return err
	}
	if !committed {
		fmt.Printf("Keeping %q.\n", ctrl.Title())
	}

	return nil
}

func showCV(ctrl *editor.Controller) error {
	content := ctrl.Content()

	info, err := content.ContactInfo()
	if err != nil {
		return fmt.Errorf("decoding contact info: %w", err)
	}

	fmt.Printf("%s\n", ctrl.Title())
	if info.Name != "" {
		fmt.Printf("%s · %s · %s\n", info.Name, info.Email, info.Location)
	}
	if summary := content.Summary(); summary != "" {
		fmt.Printf("\n%s\n", summary)
	}

	experiences, err := content.Experiences()
	if err != nil {
		return fmt.Errorf("decoding experience: %w", err)
	}
	for _, exp := range experiences {
		fmt.Printf("\n%s at %s (%s - %s)\n", exp.JobTitle, exp.Company, exp.StartDate, exp.EndDate)
		for _, bullet := range exp.Bullets {
			fmt.Printf("  - %s\n", bullet)
		}
	}

	return nil
}

func downloadFromEditor(ctx context.Context, ctrl *editor.Controller, client *cvflow.Client, g *gate.Gate, log *zap.Logger) error {
	ran := g.Do(ctx, cvflow.ActionCVDownload, "CV download", func() {
		output := ctrl.ID() + ".pdf"
		if err := downloadCV(ctx, client, ctrl.ID(), output); err != nil {
			// Best-effort export; the draft and its save status are unaffected.
			log.Warn("download failed", zap.Error(err))
			return
		}
		fmt.Printf("Saved %s\n", output)
	})

	if !ran {
		return showPaywall(ctx, client, g, log)
	}

	return nil
}

func quit(ctx context.Context, ctrl *editor.Controller) error {
	if ctrl.Status() == editor.StatusUnsaved {
		confirm := promptui.Select{
			Label: "You have unsaved changes. Save before quitting?",
			Items: []string{"Yes", "No"},
		}

		_, choice, err := confirm.Run()
		if err != nil {
			return err
		}

		if choice == "Yes" {
			if err := ctrl.Save(ctx); err != nil {
				return err
			}
		}
	}

	return errQuit
}
