package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempFile(t, "config.yaml", `
server:
  port: 4000
app:
  timezone: "Europe/Bratislava"
calendar:
  provider: "teamup"
  calendar_key: "abc"
booking:
  slot_granularity_minutes: 15
  min_advance_minutes: 30
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "teamup", cfg.Calendar.Provider)
	assert.Equal(t, 15*time.Minute, cfg.SlotGranularity())
	assert.Equal(t, 30*time.Minute, cfg.MinAdvance())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Bratislava", loc.String())
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("TEST_CALENDAR_KEY", "secret-key")
	path := writeTempFile(t, "config.yaml", `
calendar:
  calendar_key: "${TEST_CALENDAR_KEY}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.Calendar.CalendarKey)
}

func TestLoadDefaults(t *testing.T) {
	path := writeTempFile(t, "config.yaml", "server: {}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "teamup", cfg.Calendar.Provider)
	assert.Equal(t, 30*time.Minute, cfg.SlotGranularity())
	assert.Equal(t, 15*time.Minute, cfg.MinAdvance())
	assert.Equal(t, 14, cfg.SearchHorizonDays())
	assert.Equal(t, 30, cfg.ExistingLookaheadDays())
	assert.Equal(t, 5*time.Second, cfg.NextAvailableTimeout())
}

func TestLoadSalonFromFile(t *testing.T) {
	path := writeTempFile(t, "salon.yaml", `
shifts:
  - { code: 1, start: "09:00", end: "15:00" }
staff:
  - name: "Janka"
    capability: "hairdresser"
    subcalendar_id: 100
    schedule:
      monday: [1]
services:
  - { name: "Strih", duration_minutes: 60, category: "hair", capability: "hairdresser" }
`)

	salon, err := LoadSalon(path)
	require.NoError(t, err)
	assert.Len(t, salon.Staff, 1)
	assert.Equal(t, int64(100), salon.SubcalendarMap()["Janka"])
	assert.NotEmpty(t, salon.BlackoutKeywords, "defaults fill in when omitted")
}

func TestSalonValidate(t *testing.T) {
	base := func() *SalonConfig {
		return &SalonConfig{
			Shifts:   []ShiftConfig{{Code: 1, Start: "09:00", End: "15:00"}},
			Staff:    []StaffConfig{{Name: "Janka", Capability: "hairdresser", SubcalendarID: 100}},
			Services: []ServiceConfig{{Name: "Strih", DurationMinutes: 60}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*SalonConfig)
		wantErr string
	}{
		{"valid", func(*SalonConfig) {}, ""},
		{"no staff", func(c *SalonConfig) { c.Staff = nil }, "no staff"},
		{"no services", func(c *SalonConfig) { c.Services = nil }, "no services"},
		{"duplicate staff", func(c *SalonConfig) { c.Staff = append(c.Staff, c.Staff[0]) }, "duplicate"},
		{"missing subcalendar", func(c *SalonConfig) { c.Staff[0].SubcalendarID = 0 }, "subcalendar_id"},
		{"zero duration", func(c *SalonConfig) { c.Services[0].DurationMinutes = 0 }, "duration"},
		{"orphan override", func(c *SalonConfig) {
			c.Overrides = []OverrideConfig{{Staff: "Livia", Weekday: "tuesday"}}
		}, "unknown staff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDefaultSalonIsValid(t *testing.T) {
	require.NoError(t, DefaultSalon().Validate())
}
