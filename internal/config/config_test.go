package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, "redis", cfg.Session.Backend)
	require.Equal(t, 24*time.Hour, cfg.Session.IdleTTL)
	require.Equal(t, "gemini", cfg.AI.Provider)
	require.Equal(t, 60, cfg.AI.DailyCalls)
	require.Equal(t, "INR", cfg.Pricing.Currency)
	require.False(t, cfg.IsProduction())
	require.Equal(t, "https://test.api.amadeus.com", cfg.Flights.BaseURL)
	require.Equal(t, 10*time.Minute, cfg.Flights.CacheTTL)
	require.False(t, cfg.Flights.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TRIPBOT_HTTP_ADDR", ":9090")
	t.Setenv("TRIPBOT_SESSION_BACKEND", "Memory")
	t.Setenv("TRIPBOT_SESSION_IDLE_TTL", "30m")
	t.Setenv("TRIPBOT_AI_PROVIDER", "openai")
	t.Setenv("TRIPBOT_PAYMENT_MOCK_LIMIT", "25000")
	t.Setenv("TRIPBOT_ENV", "production")
	t.Setenv("TRIPBOT_FLIGHTS_CLIENT_ID", "amadeus-id")
	t.Setenv("TRIPBOT_FLIGHTS_CLIENT_SECRET", "amadeus-secret")

	cfg, err := load(viper.New())
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Addr)
	require.Equal(t, "memory", cfg.Session.Backend)
	require.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	require.Equal(t, "openai", cfg.AI.Provider)
	require.Equal(t, 25000.0, cfg.Payment.MockLimit)
	require.True(t, cfg.IsProduction())
	require.True(t, cfg.Flights.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"TRIPBOT_SESSION_BACKEND":    "memcached",
		"TRIPBOT_AI_PROVIDER":        "clippy",
		"TRIPBOT_PAYMENT_MOCK_LIMIT": "0",
		"TRIPBOT_FLIGHTS_RETRIES":    "-1",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := load(viper.New())
			require.Error(t, err)
		})
	}
}

type fakeSecrets struct {
	values map[string]string
	asked  []string
}

func (f *fakeSecrets) GetParameter(_ context.Context, name string) (string, error) {
	f.asked = append(f.asked, name)
	v, ok := f.values[name]
	if !ok {
		return "", errors.New("parameter not found")
	}
	return v, nil
}

func TestApplySecrets(t *testing.T) {
	secrets := &fakeSecrets{values: map[string]string{"/tripbot/gemini_api_key": " g-key\n"}}
	cfg := Config{AI: AIConfig{Provider: "gemini", SSMPrefix: "/tripbot/"}}
	require.NoError(t, cfg.ApplySecrets(context.Background(), secrets))
	require.Equal(t, "g-key", cfg.AI.GeminiKey)
	require.Equal(t, []string{"/tripbot/gemini_api_key"}, secrets.asked)

	// Keys set through env are left alone.
	secrets.asked = nil
	cfg = Config{AI: AIConfig{Provider: "gemini", SSMPrefix: "/tripbot", GeminiKey: "env-key"}}
	require.NoError(t, cfg.ApplySecrets(context.Background(), secrets))
	require.Equal(t, "env-key", cfg.AI.GeminiKey)
	require.Empty(t, secrets.asked)

	cfg = Config{AI: AIConfig{Provider: "openai", SSMPrefix: "/tripbot"}}
	require.Error(t, cfg.ApplySecrets(context.Background(), secrets))

	cfg = Config{AI: AIConfig{Provider: "gemini"}}
	require.NoError(t, cfg.ApplySecrets(context.Background(), nil))

	secrets = &fakeSecrets{values: map[string]string{"/tripbot/amadeus_client_secret": "a-secret"}}
	cfg = Config{
		AI:      AIConfig{Provider: "gemini", SSMPrefix: "/tripbot", GeminiKey: "env-key"},
		Flights: FlightsConfig{ClientID: "amadeus-id"},
	}
	require.NoError(t, cfg.ApplySecrets(context.Background(), secrets))
	require.Equal(t, "a-secret", cfg.Flights.ClientSecret)
	require.True(t, cfg.Flights.Enabled())
}
