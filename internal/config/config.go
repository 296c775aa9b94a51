// Package config loads service settings from configs/config.yml and
// ELEVATOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"elevator_control/internal/elevator"
	"elevator_control/internal/models"

	"github.com/spf13/viper"
)

const envPrefix = "ELEVATOR"

// Storage drivers for the operation log.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	Port     string         `mapstructure:"port"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Sim      SimConfig      `mapstructure:"sim"`
	Door     DoorConfig     `mapstructure:"door"`
	Cab      CabConfig      `mapstructure:"cab"`
	Building BuildingConfig `mapstructure:"building"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type LogConfig struct {
	Level        string        `mapstructure:"level"`
	FallbackPath string        `mapstructure:"fallback_path"`
	FlushTimeout time.Duration `mapstructure:"flush_timeout"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type SimConfig struct {
	Tick time.Duration `mapstructure:"tick"`
}

type DoorConfig struct {
	MaxStep  int `mapstructure:"max_step"`
	StepSize int `mapstructure:"step_size"`
}

type CabConfig struct {
	Speed       int `mapstructure:"speed"`
	FloorHeight int `mapstructure:"floor_height"`
}

type BuildingConfig struct {
	Floors []models.Floor `mapstructure:"floors"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.fallback_path", "error.log")
	v.SetDefault("log.flush_timeout", 2*time.Second)
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "elevator.db")
	v.SetDefault("sim.tick", 20*time.Millisecond)
	v.SetDefault("door.max_step", elevator.DefaultDoorMaxStep)
	v.SetDefault("door.step_size", elevator.DefaultDoorStepSize)
	v.SetDefault("cab.speed", elevator.DefaultCabSpeed)
	v.SetDefault("cab.floor_height", elevator.DefaultFloorHeight)
	v.SetDefault("auth.token_ttl", time.Hour)
}

// Load reads config.yml from the given directories. A missing file is not an
// error; defaults and environment variables still apply.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Sim.Tick <= 0:
		return fmt.Errorf("sim.tick must be positive, got %s", c.Sim.Tick)
	case c.Log.FlushTimeout <= 0:
		return fmt.Errorf("log.flush_timeout must be positive, got %s", c.Log.FlushTimeout)
	case c.DB.Driver != DriverSQLite && c.DB.Driver != DriverMemory:
		return fmt.Errorf("db.driver must be %q or %q, got %q", DriverSQLite, DriverMemory, c.DB.Driver)
	}
	if _, err := c.BuildingModel(); err != nil {
		return err
	}
	return nil
}

// BuildingModel returns the configured floors, or the two-floor default.
func (c *Config) BuildingModel() (*models.Building, error) {
	if len(c.Building.Floors) == 0 {
		return models.DefaultBuilding(), nil
	}
	return models.NewBuilding(c.Building.Floors)
}

// Elevator derives the state machine settings.
func (c *Config) Elevator(b *models.Building) elevator.Config {
	return elevator.Config{
		MinFloor:     b.Min(),
		MaxFloor:     b.Max(),
		DoorMaxStep:  c.Door.MaxStep,
		DoorStepSize: c.Door.StepSize,
		CabSpeed:     c.Cab.Speed,
		FloorHeight:  c.Cab.FloorHeight,
	}
}
