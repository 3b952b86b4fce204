package config

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/thomas-vilte/matereview/internal/config"
	"github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/thomas-vilte/matereview/internal/ui"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	flagConfig = "config"
	flagForce  = "force"
	flagFormat = "format"

	formatTOML = "toml"
	formatYAML = "yaml"
)

type ConfigCommandFactory struct{}

func NewConfigCommandFactory() *ConfigCommandFactory {
	return &ConfigCommandFactory{}
}

func (f *ConfigCommandFactory) CreateCommand(t *i18n.Translations, _ *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: t.GetMessage("config_usage", 0, nil),
		Commands: []*cli.Command{
			f.newShowCommand(t),
			f.newInitCommand(t),
		},
	}
}

func (f *ConfigCommandFactory) newShowCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: t.GetMessage("config_show_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagConfig, Aliases: []string{"c"}, Usage: t.GetMessage("flag_config", 0, nil)},
			&cli.StringFlag{Name: flagFormat, Value: formatTOML, Usage: t.GetMessage("flag_format", 0, nil)},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.LoadConfig(cmd.String(flagConfig), ".")
			if err != nil {
				return err
			}

			w := writer(cmd)
			source := cfg.PathFile
			if source == "" {
				source = t.GetMessage("config_defaults_only", 0, nil)
			}
			ui.PrintKeyValue(w, t.GetMessage("config_source", 0, nil), source)
			_, _ = fmt.Fprintln(w)

			return encode(w, cfg.Masked(), cmd.String(flagFormat))
		},
	}
}

func (f *ConfigCommandFactory) newInitCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     t.GetMessage("config_init_usage", 0, nil),
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: flagForce, Aliases: []string{"f"}, Usage: t.GetMessage("flag_force", 0, nil)},
			&cli.StringFlag{Name: flagFormat, Value: formatTOML, Usage: t.GetMessage("flag_format", 0, nil)},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := initPath(cmd.Args().First(), cmd.String(flagFormat))
			if err != nil {
				return err
			}

			w := writer(cmd)
			data := map[string]interface{}{"Path": path}
			if _, err := os.Stat(path); err == nil && !cmd.Bool(flagForce) {
				ui.PrintWarning(w, t.GetMessage("config_exists", 0, data))
				return nil
			}

			if err := config.SaveConfig(config.Default(), path); err != nil {
				return err
			}
			ui.PrintSuccess(w, t.GetMessage("config_written", 0, data))
			return nil
		},
	}
}

// initPath picks the file to write. An explicit path wins over --format.
func initPath(arg, format string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	switch format {
	case formatTOML:
		return config.FileNames[0], nil
	case formatYAML:
		return config.FileNames[1], nil
	default:
		return "", errors.ErrConfigInvalid.WithMessage(fmt.Sprintf("unsupported config format: %s", format))
	}
}

func encode(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case formatTOML:
		return toml.NewEncoder(w).Encode(cfg)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(cfg)
	default:
		return errors.ErrConfigInvalid.WithMessage(fmt.Sprintf("unsupported config format: %s", format))
	}
}

func writer(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}
