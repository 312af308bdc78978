// Package config provides Viper-based configuration loading for the RTS game server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings for the action journal.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// TeamConfig describes one team at match start.
type TeamConfig struct {
	AllyTeam int     `mapstructure:"ally_team"`
	Metal    float64 `mapstructure:"metal"`
	Energy   float64 `mapstructure:"energy"`
}

// PlayerConfig describes one participant at match start.
type PlayerConfig struct {
	Name      string `mapstructure:"name"`
	Team      int    `mapstructure:"team"`
	Spectator bool   `mapstructure:"spectator"`
}

// SimulationConfig holds the match and frame loop settings.
type SimulationConfig struct {
	// FrameInterval is the wall-clock duration of one simulation frame.
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	// MaxUnits caps the number of live units across all teams.
	MaxUnits int `mapstructure:"max_units"`
	// AllowTake registers the Take command.
	AllowTake bool `mapstructure:"allow_take"`
	// Debug registers debug-only commands such as Desync.
	Debug bool `mapstructure:"debug"`
	// UseLuaGaia enables the LuaGaia subsystem.
	UseLuaGaia bool `mapstructure:"use_lua_gaia"`
	// LocalPlayer is the player number of this participant.
	LocalPlayer int `mapstructure:"local_player"`
	// RandomSeed seeds the synced Lua random generators; it must be equal on
	// every participant.
	RandomSeed uint64 `mapstructure:"random_seed"`
	// Teams and Players define the match roster.
	Teams   []TeamConfig   `mapstructure:"teams"`
	Players []PlayerConfig `mapstructure:"players"`
}

// ContentConfig holds paths to game content.
type ContentConfig struct {
	UnitDefsDir    string `mapstructure:"unit_defs_dir"`
	UnitScriptsDir string `mapstructure:"unit_scripts_dir"`
	CEGsFile       string `mapstructure:"cegs_file"`
}

// ScriptingConfig holds Lua subsystem settings.
type ScriptingConfig struct {
	// LuaRulesDir is the LuaRules script root; empty disables LuaRules.
	LuaRulesDir string `mapstructure:"lua_rules_dir"`
	// LuaGaiaDir is the LuaGaia script root; empty disables LuaGaia.
	LuaGaiaDir string `mapstructure:"lua_gaia_dir"`
	// InstructionLimit caps opcodes per Lua call; 0 uses the scripting default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// JournalConfig selects where dispatched synced actions are recorded.
type JournalConfig struct {
	// Backend is one of "none", "postgres", "bolt".
	Backend string `mapstructure:"backend"`
	// BoltPath is the database file for the bolt backend.
	BoltPath string `mapstructure:"bolt_path"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Content    ContentConfig    `mapstructure:"content"`
	Scripting  ScriptingConfig  `mapstructure:"scripting"`
	Journal    JournalConfig    `mapstructure:"journal"`
	Database   DatabaseConfig   `mapstructure:"database"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripting(c.Scripting); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateJournal(c.Journal); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Journal.Backend == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.FrameInterval <= 0 {
		errs = append(errs, "simulation.frame_interval must be > 0")
	}
	if s.MaxUnits < 1 {
		errs = append(errs, fmt.Sprintf("simulation.max_units must be >= 1, got %d", s.MaxUnits))
	}
	if len(s.Teams) == 0 {
		errs = append(errs, "simulation.teams must not be empty")
	}
	for i, t := range s.Teams {
		if t.AllyTeam < 0 {
			errs = append(errs, fmt.Sprintf("simulation.teams[%d].ally_team must be >= 0", i))
		}
		if t.Metal < 0 || t.Energy < 0 {
			errs = append(errs, fmt.Sprintf("simulation.teams[%d] resources must not be negative", i))
		}
	}
	for i, p := range s.Players {
		if p.Name == "" {
			errs = append(errs, fmt.Sprintf("simulation.players[%d].name must not be empty", i))
		}
		if p.Team < 0 || p.Team >= len(s.Teams) {
			errs = append(errs, fmt.Sprintf("simulation.players[%d].team %d out of range", i, p.Team))
		}
	}
	if s.LocalPlayer < 0 || (len(s.Players) > 0 && s.LocalPlayer >= len(s.Players)) {
		errs = append(errs, fmt.Sprintf("simulation.local_player %d out of range", s.LocalPlayer))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

func validateJournal(j JournalConfig) error {
	switch j.Backend {
	case "none", "postgres":
		return nil
	case "bolt":
		if j.BoltPath == "" {
			return errors.New("journal.bolt_path must not be empty for the bolt backend")
		}
		return nil
	default:
		return fmt.Errorf("journal.backend must be one of [none, postgres, bolt], got %q", j.Backend)
	}
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with RTS_ prefix
	v.SetEnvPrefix("RTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults installs the default values used by Load.
func SetDefaults(v *viper.Viper) {
	setDefaults(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.frame_interval", "33ms")
	v.SetDefault("simulation.max_units", 5000)
	v.SetDefault("simulation.allow_take", true)
	v.SetDefault("simulation.debug", false)
	v.SetDefault("simulation.use_lua_gaia", true)
	v.SetDefault("simulation.local_player", 0)
	v.SetDefault("simulation.random_seed", 0)

	v.SetDefault("content.unit_defs_dir", "content/units")
	v.SetDefault("content.unit_scripts_dir", "content/scripts/units")
	v.SetDefault("content.cegs_file", "content/cegs.yaml")

	v.SetDefault("scripting.lua_rules_dir", "content/LuaRules")
	v.SetDefault("scripting.lua_gaia_dir", "content/LuaGaia")
	v.SetDefault("scripting.instruction_limit", 0)

	v.SetDefault("journal.backend", "none")
	v.SetDefault("journal.bolt_path", "data/journal.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "rts")
	v.SetDefault("database.password", "rts")
	v.SetDefault("database.name", "rts")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
}
