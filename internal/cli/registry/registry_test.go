package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/matereview/internal/config"
	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/urfave/cli/v3"
)

type mockCommandFactory struct {
	name string
}

func (m *mockCommandFactory) CreateCommand(_ *i18n.Translations, _ *config.Config) *cli.Command {
	return &cli.Command{Name: m.name}
}

func newTestRegistry(t *testing.T) *Registry {
	translations, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)
	return NewRegistry(config.Default(), translations)
}

func TestRegistry_Register(t *testing.T) {
	t.Run("should register new factory successfully", func(t *testing.T) {
		registry := newTestRegistry(t)

		err := registry.Register("review", &mockCommandFactory{name: "review"})

		assert.NoError(t, err)
		assert.Len(t, registry.factories, 1)
		assert.Contains(t, registry.factories, "review")
	})

	t.Run("should return error when registering duplicate factory", func(t *testing.T) {
		registry := newTestRegistry(t)

		_ = registry.Register("review", &mockCommandFactory{})
		err := registry.Register("review", &mockCommandFactory{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "review")
		assert.Len(t, registry.factories, 1)
	})
}

func TestRegistry_CreateCommands(t *testing.T) {
	t.Run("should create commands in name order", func(t *testing.T) {
		registry := newTestRegistry(t)
		_ = registry.Register("review", &mockCommandFactory{name: "review"})
		_ = registry.Register("config", &mockCommandFactory{name: "config"})

		commands := registry.CreateCommands()

		require.Len(t, commands, 2)
		assert.Equal(t, "config", commands[0].Name)
		assert.Equal(t, "review", commands[1].Name)
	})

	t.Run("should return empty slice when no factories registered", func(t *testing.T) {
		assert.Empty(t, newTestRegistry(t).CreateCommands())
	})
}
