package review

import (
	"context"
	"io"
	"os"

	"github.com/thomas-vilte/matereview/internal/config"
	"github.com/thomas-vilte/matereview/internal/di"
	"github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/services"
	"github.com/thomas-vilte/matereview/internal/ui"
	"github.com/urfave/cli/v3"
)

const (
	flagConfig   = "config"
	flagRepo     = "repo"
	flagDebug    = "debug"
	flagVerbose  = "verbose"
	flagLang     = "lang"
	flagNoNotify = "no-notify"
	flagCache    = "cache"
)

type ReviewCommandFactory struct{}

func NewReviewCommandFactory() *ReviewCommandFactory {
	return &ReviewCommandFactory{}
}

func (f *ReviewCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "review",
		Aliases: []string{"r"},
		Usage:   t.GetMessage("review_usage", 0, nil),
		Flags:   Flags(t),
		Action:  Action(t, cfg),
	}
}

// Flags are shared by the review command and the root command, which reviews by default.
func Flags(t *i18n.Translations) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: flagConfig, Aliases: []string{"c"}, Usage: t.GetMessage("flag_config", 0, nil)},
		&cli.StringFlag{Name: flagRepo, Usage: t.GetMessage("flag_repo", 0, nil)},
		&cli.BoolFlag{Name: flagDebug, Usage: t.GetMessage("flag_debug", 0, nil)},
		&cli.BoolFlag{Name: flagVerbose, Usage: t.GetMessage("flag_verbose", 0, nil)},
		&cli.StringFlag{Name: flagLang, Usage: t.GetMessage("flag_lang", 0, nil)},
		&cli.BoolFlag{Name: flagNoNotify, Usage: t.GetMessage("flag_no_notify", 0, nil)},
		&cli.BoolFlag{Name: flagCache, Usage: t.GetMessage("flag_cache", 0, nil)},
	}
}

func Action(t *i18n.Translations, base *config.Config) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		logger.Initialize(cmd.Bool(flagDebug), cmd.Bool(flagVerbose))

		cfg, err := resolveConfig(cmd, base)
		if err != nil {
			return err
		}
		if err := t.SetLanguage(config.GetLocaleConfig(cfg.Language)); err != nil {
			logger.Warn(ctx, "unsupported console language", "lang", cfg.Language)
		}

		w := writer(cmd)
		notifyEnabled := !cmd.Bool(flagNoNotify)
		progress := newProgress(w, t, ui.IsInteractive(w), cmd.Bool(flagVerbose) || cmd.Bool(flagDebug))

		pipeline, err := di.NewContainer(cfg).GetReviewPipeline(ctx, notifyEnabled,
			services.WithStageObserver(progress.observe))
		if err != nil {
			return err
		}

		outcome, err := pipeline.Execute(ctx)
		if errors.KindOf(err) == errors.CodeInsufficientHistory {
			ui.PrintWarning(w, t.GetMessage("no_history", 0, nil))
			return err
		}
		if err != nil {
			if !progress.reported {
				ui.PrintError(w, t.GetMessage("review_failed", 0, nil))
			}
			return err
		}

		if !notifyEnabled {
			ui.PrintInfo(w, t.GetMessage("notifications_skipped", 0, nil))
		}
		progress.printSummary(outcome)
		return nil
	}
}

// resolveConfig reloads the configuration when --config or --repo point elsewhere, then applies
// the remaining flags and validates the result.
func resolveConfig(cmd *cli.Command, base *config.Config) (*config.Config, error) {
	path := cmd.String(flagConfig)
	repo := cmd.String(flagRepo)

	loaded := base
	if loaded == nil || path != "" || repo != "" {
		dir := repo
		if dir == "" {
			dir = "."
		}
		var err error
		if loaded, err = config.LoadConfig(path, dir); err != nil {
			return nil, err
		}
	}

	cfg := *loaded
	if repo != "" {
		cfg.RepoPath = repo
	}
	if lang := cmd.String(flagLang); lang != "" {
		cfg.Language = lang
	}
	if cmd.Bool(flagCache) {
		cfg.Cache.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func writer(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}
