package cmd

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ferrule.dev/pkg/ferrule/internal/domain"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "ferrule", configBaseName)
	assert.Equal(t, "ferrule.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "output", outputFlagName)
	assert.Equal(t, "exclude", excludeFlagName)
	assert.Equal(t, "parallel", parallelFlagName)
	assert.Equal(t, "analyze.parallel", parallelConfigKey)
	assert.Equal(t, "paths.exclude", excludeConfigKey)
	assert.Equal(t, ".ferrule/last-run.msgpack", defaultReportsPath)
	assert.Equal(t, 4, defaultParallel)
	assert.Equal(t, 30*time.Second, defaultTimeout)
	assert.Equal(t, "FERRULE", envPrefix)
}

func TestConfigVersionConstants(t *testing.T) {
	assert.Equal(t, "version", configVersionKey)
	assert.Equal(t, 1, currentConfigVersion)
}

func TestEngineDefaultsAreRegistered(t *testing.T) {
	assert.True(t, viper.GetBool("rules.naming.enabled"))
	assert.Equal(t, domain.DefaultConfig().Rules.Complexity.MaxNesting, viper.GetInt("rules.complexity.max_nesting"))
	assert.Equal(t, domain.DefaultConfig().Suppression.Markers, viper.GetStringSlice("suppression.markers"))

	defaults := domain.DefaultConfig()

	cfg, err := loadEngineConfig()
	require.NoError(t, err)
	assert.Equal(t, defaults.Rules.Complexity, cfg.Rules.Complexity)
	assert.Equal(t, defaults.Rules.Naming.Styles, cfg.Rules.Naming.Styles)
	assert.Equal(t, defaults.Rules.MagicNumber.Allowed, cfg.Rules.MagicNumber.Allowed)
	assert.Empty(t, cfg.Select)
}

func TestLoadEngineConfig_EnvOverride(t *testing.T) {
	t.Setenv("FERRULE_RULES_COMPLEXITY_MAX_PARAMS", "9")
	t.Setenv("FERRULE_RULES_TODO_COMMENT_ENABLED", "false")

	cfg, err := loadEngineConfig()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Rules.Complexity.MaxParams)
	assert.False(t, cfg.Rules.TodoComment.Enabled)
	assert.Equal(t, domain.DefaultConfig().Rules.Complexity.MaxNesting, cfg.Rules.Complexity.MaxNesting)
}

func TestLoadEngineConfig_Invalid(t *testing.T) {
	t.Setenv("FERRULE_RULES_NAMING_SEVERITY", "fatal")

	_, err := loadEngineConfig()
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestFlatten(t *testing.T) {
	got := flatten("", map[string]interface{}{
		"a": 1,
		"b": map[string]interface{}{
			"c": "x",
			"d": map[string]interface{}{"e": true},
		},
		"empty": map[string]interface{}{},
	})

	assert.Equal(t, map[string]interface{}{
		"a":     1,
		"b.c":   "x",
		"b.d.e": true,
		"empty": map[string]interface{}{},
	}, got)
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", "INFO"},
		{"debug", "DEBUG"},
		{"WARNING", "WARN"},
		{"error", "ERROR"},
		{"-4", "DEBUG"},
		{"nonsense", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, 0).String())
		})
	}
}
