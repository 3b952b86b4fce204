package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thomas-vilte/matereview/internal/cli/registry"
	"github.com/thomas-vilte/matereview/internal/commands/cache"
	configcmd "github.com/thomas-vilte/matereview/internal/commands/config"
	"github.com/thomas-vilte/matereview/internal/commands/review"
	cfg "github.com/thomas-vilte/matereview/internal/config"
	"github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/thomas-vilte/matereview/internal/ui"
	"github.com/thomas-vilte/matereview/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	cfgApp, err := cfg.LoadConfig("", ".")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(errors.ExitCode(errors.ErrConfigInvalid.WithError(err)))
	}

	translations, err := i18n.NewTranslations(cfg.GetLocaleConfig(cfgApp.Language), "")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error loading translations: %v\n", err)
		os.Exit(1)
	}

	app, err := initializeApp(cfgApp, translations)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error initializing the cli: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = app.Run(ctx, os.Args)
	stop()

	code := errors.ExitCode(err)
	if code != 0 {
		ui.HandleAppError(os.Stderr, err, translations)
	}
	os.Exit(code)
}

func initializeApp(cfgApp *cfg.Config, translations *i18n.Translations) (*cli.Command, error) {
	registerCommand := registry.NewRegistry(cfgApp, translations)

	if err := registerCommand.Register("review", review.NewReviewCommandFactory()); err != nil {
		return nil, err
	}
	if err := registerCommand.Register("config", configcmd.NewConfigCommandFactory()); err != nil {
		return nil, err
	}
	if err := registerCommand.Register("cache", cache.NewCacheCommand()); err != nil {
		return nil, err
	}

	return &cli.Command{
		Name:                  "matereview",
		Usage:                 translations.GetMessage("app_usage", 0, nil),
		Version:               version.FullVersion(),
		Flags:                 review.Flags(translations),
		Action:                review.Action(translations, cfgApp),
		Commands:              registerCommand.CreateCommands(),
		EnableShellCompletion: true,
	}, nil
}
