package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/retrievit/ai"
)

func TestSetupLogger(t *testing.T) {
	newApp := func(action cli.ActionFunc) *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: action,
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				app := newApp(func(c *cli.Context) error { return nil })
				require.NoError(t, app.Run([]string{"test", "--log-level", level}))
			})
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		app := newApp(func(c *cli.Context) error { return nil })
		require.NoError(t, app.Run([]string{"test", "--log-level", "WaRn"}))
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := newApp(func(c *cli.Context) error { return nil })
		err := app.Run([]string{"test", "--log-level", "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("alias -l works", func(t *testing.T) {
		app := newApp(func(c *cli.Context) error {
			assert.Equal(t, "debug", c.String("log-level"))
			return nil
		})
		require.NoError(t, app.Run([]string{"test", "-l", "debug"}))
	})
}

func TestAIConfigFromFlags(t *testing.T) {
	var got *ai.Config
	app := &cli.App{
		Name: "test",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host"},
			&cli.StringFlag{Name: "embedding-model"},
			&cli.StringFlag{Name: "scoring-model"},
		},
		Action: func(c *cli.Context) error {
			got = aiConfig(c)
			return nil
		},
	}

	t.Run("defaults when flags unset", func(t *testing.T) {
		require.NoError(t, app.Run([]string{"test"}))
		defaults := ai.DefaultConfig()
		assert.Equal(t, defaults.Host, got.Host)
		assert.Equal(t, defaults.EmbeddingModel, got.EmbeddingModel)
		assert.Equal(t, defaults.ScoringModel, got.ScoringModel)
	})

	t.Run("flags override defaults", func(t *testing.T) {
		require.NoError(t, app.Run([]string{
			"test",
			"--host", "http://embed.local/v1",
			"--embedding-model", "test-embedder",
			"--scoring-model", "test-judge",
		}))
		assert.Equal(t, "http://embed.local/v1", got.Host)
		assert.Equal(t, "test-embedder", got.EmbeddingModel)
		assert.Equal(t, "test-judge", got.ScoringModel)
	})
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "single", firstLine("single"))
	assert.Equal(t, "first", firstLine("first\nsecond"))
	assert.Equal(t, "", firstLine("\nbody"))
}
