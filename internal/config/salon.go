package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StaffConfig describes one staff member and their weekly shift codes.
// Schedule maps lowercase weekday names to shift codes: 0 = no shift
// (or custom, covered by an override), 1 = morning, 2 = afternoon.
type StaffConfig struct {
	Name          string           `yaml:"name"`
	Capability    string           `yaml:"capability"` // "hairdresser" or "cosmetician"
	SubcalendarID int64            `yaml:"subcalendar_id"`
	Schedule      map[string][]int `yaml:"schedule"`
}

// ServiceConfig describes one bookable service.
type ServiceConfig struct {
	Name            string `yaml:"name"`
	DurationMinutes int    `yaml:"duration_minutes"`
	Category        string `yaml:"category"`
	Capability      string `yaml:"capability"`
}

// ShiftConfig resolves a shift code to a wall-clock interval.
type ShiftConfig struct {
	Code  int    `yaml:"code"`
	Start string `yaml:"start"` // "09:00"
	End   string `yaml:"end"`   // "15:00"
}

// OverrideConfig replaces the shift-code lookup for one staff member on
// one weekday with an explicit interval.
type OverrideConfig struct {
	Staff   string `yaml:"staff"`
	Weekday string `yaml:"weekday"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
}

// SalonConfig is the root configuration for salon.yaml: the staff roster,
// the service catalog and the shift tables.
type SalonConfig struct {
	Staff            []StaffConfig    `yaml:"staff"`
	Services         []ServiceConfig  `yaml:"services"`
	Shifts           []ShiftConfig    `yaml:"shifts"`
	Overrides        []OverrideConfig `yaml:"overrides"`
	BlackoutKeywords []string         `yaml:"blackout_keywords"`
}

// LoadSalon loads and validates the salon configuration from a YAML file.
// An empty path falls back to configs/salon.yaml.
func LoadSalon(path string) (*SalonConfig, error) {
	if path == "" {
		path = "configs/salon.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read salon config: %w", err)
	}

	var cfg SalonConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse salon config: %w", err)
	}

	if len(cfg.BlackoutKeywords) == 0 {
		cfg.BlackoutKeywords = DefaultBlackoutKeywords()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate salon config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *SalonConfig) Validate() error {
	if len(c.Staff) == 0 {
		return fmt.Errorf("no staff configured")
	}
	if len(c.Services) == 0 {
		return fmt.Errorf("no services configured")
	}
	if len(c.Shifts) == 0 {
		return fmt.Errorf("no shift table configured")
	}

	seen := make(map[string]bool, len(c.Staff))
	for _, s := range c.Staff {
		if s.Name == "" {
			return fmt.Errorf("staff member with empty name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate staff name %q", s.Name)
		}
		seen[s.Name] = true
		if s.SubcalendarID == 0 {
			return fmt.Errorf("staff %q has no subcalendar_id", s.Name)
		}
	}

	for _, svc := range c.Services {
		if svc.DurationMinutes <= 0 {
			return fmt.Errorf("service %q has non-positive duration", svc.Name)
		}
	}

	for _, o := range c.Overrides {
		if !seen[o.Staff] {
			return fmt.Errorf("override references unknown staff %q", o.Staff)
		}
	}

	return nil
}

// SubcalendarMap returns the staff name to subcalendar ID mapping.
func (c *SalonConfig) SubcalendarMap() map[string]int64 {
	m := make(map[string]int64, len(c.Staff))
	for _, s := range c.Staff {
		m[s.Name] = s.SubcalendarID
	}
	return m
}

// DefaultBlackoutKeywords is the keyword set that marks a calendar event
// as whole-day blocking (vacation, training and similar).
func DefaultBlackoutKeywords() []string {
	return []string{
		"dovolenka",
		"dovoľenka",
		"vacation",
		"holiday",
		"školenie",
		"training",
		"workshop",
	}
}

// DefaultSalon returns the production salon tables used when no salon.yaml
// is provided.
func DefaultSalon() *SalonConfig {
	return &SalonConfig{
		Shifts: []ShiftConfig{
			{Code: 1, Start: "09:00", End: "15:00"},
			{Code: 2, Start: "12:00", End: "18:00"},
		},
		Staff: []StaffConfig{
			{
				Name:          "Janka",
				Capability:    "hairdresser",
				SubcalendarID: 11754111,
				Schedule: map[string][]int{
					"monday": {2}, "tuesday": {2}, "wednesday": {1}, "thursday": {1}, "friday": {1},
				},
			},
			{
				Name:          "Nika",
				Capability:    "hairdresser",
				SubcalendarID: 11754110,
				Schedule: map[string][]int{
					"monday": {1}, "tuesday": {1}, "wednesday": {2}, "thursday": {2}, "friday": {1},
				},
			},
			{
				Name:          "Livia",
				Capability:    "hairdresser",
				SubcalendarID: 12448216,
				Schedule: map[string][]int{
					"monday": {2}, "tuesday": {0}, "wednesday": {1}, "thursday": {1}, "friday": {1},
				},
			},
			{
				Name:          "Dominika",
				Capability:    "cosmetician",
				SubcalendarID: 11754238,
				Schedule: map[string][]int{
					"monday": {1}, "tuesday": {1}, "wednesday": {2}, "thursday": {2}, "friday": {1},
				},
			},
		},
		Overrides: []OverrideConfig{
			{Staff: "Livia", Weekday: "tuesday", Start: "10:00", End: "18:00"},
		},
		Services: []ServiceConfig{
			{Name: "Farbenie korienkov", DurationMinutes: 90, Category: "hair", Capability: "hairdresser"},
			{Name: "Strihanie, umytie, fukanie, cesanie", DurationMinutes: 60, Category: "hair", Capability: "hairdresser"},
			{Name: "Zlozitejsi uces", DurationMinutes: 90, Category: "hair", Capability: "hairdresser"},
			{Name: "Svadobny uces", DurationMinutes: 120, Category: "hair", Capability: "hairdresser"},
			{Name: "Zosvetlenie/odfarbovanie", DurationMinutes: 180, Category: "hair", Capability: "hairdresser"},
			{Name: "Melir extra dlhe vlasy", DurationMinutes: 240, Category: "hair", Capability: "hairdresser"},
			{Name: "Mikro melir", DurationMinutes: 300, Category: "hair", Capability: "hairdresser"},
			{Name: "Airtouch", DurationMinutes: 330, Category: "hair", Capability: "hairdresser"},
			{Name: "Balayage", DurationMinutes: 210, Category: "hair", Capability: "hairdresser"},
			{Name: "Balayage dlhe vlasy", DurationMinutes: 240, Category: "hair", Capability: "hairdresser"},
			{Name: "Uplne odfarbenie", DurationMinutes: 360, Category: "hair", Capability: "hairdresser"},
			{Name: "Vyrovnavacia vlasova kura", DurationMinutes: 420, Category: "hair", Capability: "hairdresser"},
			{Name: "Predlzovanie vlasov - odpajanie", DurationMinutes: 150, Category: "hair", Capability: "hairdresser"},
			{Name: "Predlzovanie vlasov - napajanie", DurationMinutes: 210, Category: "hair", Capability: "hairdresser"},
			{Name: "Strih + kura", DurationMinutes: 90, Category: "hair", Capability: "hairdresser"},
			{Name: "Klasicke kozmeticke osetrenie", DurationMinutes: 75, Category: "cosmetics", Capability: "cosmetician"},
			{Name: "Farbenie, uprava a osetrenie oboci", DurationMinutes: 90, Category: "cosmetics", Capability: "cosmetician"},
			{Name: "Samostatne farbenie a uprava oboci", DurationMinutes: 30, Category: "cosmetics", Capability: "cosmetician"},
			{Name: "Uprava a farbenie mihalnic", DurationMinutes: 30, Category: "cosmetics", Capability: "cosmetician"},
			{Name: "Farbenie a uprava mihalnic + oboci", DurationMinutes: 60, Category: "cosmetics", Capability: "cosmetician"},
			{Name: "Laminacia oboci s farbenim", DurationMinutes: 45, Category: "cosmetics", Capability: "cosmetician"},
			{Name: "Laminacia oboci + lash lift", DurationMinutes: 75, Category: "cosmetics", Capability: "cosmetician"},
			{Name: "Samostatny lash lift", DurationMinutes: 45, Category: "cosmetics", Capability: "cosmetician"},
			{Name: "Permanentny make-up oboci", DurationMinutes: 180, Category: "cosmetics", Capability: "cosmetician"},
			{Name: "Permanentny make-up pier", DurationMinutes: 240, Category: "cosmetics", Capability: "cosmetician"},
			{Name: "Permanentny make-up ocnych liniek", DurationMinutes: 180, Category: "cosmetics", Capability: "cosmetician"},
			{Name: "Licenie standard", DurationMinutes: 60, Category: "cosmetics", Capability: "cosmetician"},
			{Name: "Narocne licenie", DurationMinutes: 90, Category: "cosmetics", Capability: "cosmetician"},
			{Name: "Svadobne licenie", DurationMinutes: 90, Category: "cosmetics", Capability: "cosmetician"},
		},
		BlackoutKeywords: DefaultBlackoutKeywords(),
	}
}
