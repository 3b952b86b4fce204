package cache

import (
	"context"
	"fmt"

	"github.com/thomas-vilte/matereview/internal/cache"
	"github.com/thomas-vilte/matereview/internal/config"
	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/thomas-vilte/matereview/internal/ui"
	"github.com/urfave/cli/v3"
)

const flagExpired = "expired"

type CacheCommand struct{}

func NewCacheCommand() *CacheCommand {
	return &CacheCommand{}
}

func (c *CacheCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: t.GetMessage("cache_usage", 0, nil),
		Commands: []*cli.Command{
			{
				Name:  "clean",
				Usage: t.GetMessage("cache_clean_usage", 0, nil),
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: flagExpired, Usage: t.GetMessage("flag_expired", 0, nil)},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cfg == nil {
						cfg = config.Default()
					}

					store, err := cache.NewCache(cfg.Cache.Dir, cfg.Cache.TTL)
					if err != nil {
						return fmt.Errorf(t.GetMessage("cache_error_init", 0, nil)+": %w", err)
					}

					clean := store.Clean
					if cmd.Bool(flagExpired) {
						clean = store.CleanExpired
					}
					msg := t.GetMessage("cache_cleaned", 0, map[string]interface{}{"Dir": store.Dir()})
					if err := ui.WithSpinner(cmd.Root().Writer, msg, clean); err != nil {
						return fmt.Errorf(t.GetMessage("cache_error_clean", 0, nil)+": %w", err)
					}
					return nil
				},
			},
		},
	}
}
