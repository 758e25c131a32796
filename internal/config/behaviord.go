package config

import (
	"errors"
	"fmt"
	"time"
)

// Behaviord holds all configuration for the behavior daemon.
type Behaviord struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	LogLevel     string        `yaml:"log_level"` // debug, info, warn, error

	// Persistence
	Store        string         `yaml:"store"` // none, postgres, redis
	SaveInterval time.Duration  `yaml:"save_interval"`
	Database     DatabaseConfig `yaml:"database"`
	Redis        RedisConfig    `yaml:"redis"`

	NPC      NPCConfig      `yaml:"npc"`
	Police   PoliceConfig   `yaml:"police"`
	Rappel   RappelConfig   `yaml:"rappel"`
	Follow   FollowConfig   `yaml:"follow"`
	Speech   SpeechConfig   `yaml:"speech"`
	Interest InterestConfig `yaml:"interest"`
	Scene    SceneConfig    `yaml:"scene"`

	// Sentences maps a sentence group to its lines.
	Sentences map[string][]string `yaml:"sentences"`
}

// NPCConfig tunes every NPC.
type NPCConfig struct {
	Health        int           `yaml:"health"`
	SightRange    float64       `yaml:"sight_range"`
	MeleeRange    float64       `yaml:"melee_range"`
	MeleeDamage   int           `yaml:"melee_damage"`
	HeavyDamage   int           `yaml:"heavy_damage"`
	AlertDuration time.Duration `yaml:"alert_duration"`
	SoundGap      time.Duration `yaml:"sound_gap"`
	WalkSpeed     float64       `yaml:"walk_speed"`
	MaxRoute      float64       `yaml:"max_route"` // 0 = unlimited
}

// PoliceConfig tunes the harass behavior and the demo post.
type PoliceConfig struct {
	MaxWarnings      int           `yaml:"max_warnings"`
	AggressionWindow time.Duration `yaml:"aggression_window"`
	RearmMin         time.Duration `yaml:"rearm_min"`
	RearmMax         time.Duration `yaml:"rearm_max"`
	WarningLines     []string      `yaml:"warning_lines"`
	HostileLine      string        `yaml:"hostile_line"`

	PostRadius     float64 `yaml:"post_radius"`
	WarnRadius     float64 `yaml:"warn_radius"`
	SuppressRadius float64 `yaml:"suppress_radius"`
	RemainAtPost   bool    `yaml:"remain_at_post"`
}

// RappelConfig tunes the descent.
type RappelConfig struct {
	MinSpeed      float64 `yaml:"min_speed"`
	MaxSpeed      float64 `yaml:"max_speed"`
	MaxDrop       float64 `yaml:"max_drop"`
	DecelDistance float64 `yaml:"decel_distance"`
	ClearDistance float64 `yaml:"clear_distance"`
}

// FollowConfig tunes following.
type FollowConfig struct {
	Distance      float64       `yaml:"distance"`
	StartDistance float64       `yaml:"start_distance"`
	WaitTime      time.Duration `yaml:"wait_time"`
}

// SpeechConfig tunes the speech queue.
type SpeechConfig struct {
	PerMemberTimeout time.Duration `yaml:"per_member_timeout"`
}

// InterestConfig tunes the interest queue.
type InterestConfig struct {
	HalfLife float64 `yaml:"half_life"` // ease-in half-life as a fraction of the ramp zone
}

// SceneConfig describes the demo scene.
type SceneConfig struct {
	Citizens     int     `yaml:"citizens"`
	Soldiers     int     `yaml:"soldiers"`
	RoofHeight   float64 `yaml:"roof_height"`
	CitizenSpeed float64 `yaml:"citizen_speed"`
}

// Default returns Behaviord config with sensible defaults.
func Default() Behaviord {
	return Behaviord{
		TickInterval: 100 * time.Millisecond,
		LogLevel:     "info",
		Store:        StoreNone,
		SaveInterval: 30 * time.Second,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "npcmind",
			Password: "npcmind",
			DBName:   "npcmind",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			KeyPrefix: "npcmind:snapshot:",
		},
		NPC: NPCConfig{
			Health:        50,
			SightRange:    2048,
			MeleeRange:    64,
			MeleeDamage:   10,
			HeavyDamage:   20,
			AlertDuration: 10 * time.Second,
			SoundGap:      500 * time.Millisecond,
			WalkSpeed:     200,
		},
		Police: PoliceConfig{
			MaxWarnings:      4,
			AggressionWindow: 4 * time.Second,
			RearmMin:         4 * time.Second,
			RearmMax:         6 * time.Second,
			WarningLines:     []string{"move_along_a", "move_along_b", "move_along_c"},
			HostileLine:      "cop_hostile",
			PostRadius:       256,
			WarnRadius:       200,
			SuppressRadius:   64,
		},
		Rappel: RappelConfig{
			MinSpeed:      60,
			MaxSpeed:      600,
			MaxDrop:       1000,
			DecelDistance: 200,
			ClearDistance: 128,
		},
		Follow: FollowConfig{
			Distance:      96,
			StartDistance: 192,
			WaitTime:      time.Second,
		},
		Speech: SpeechConfig{
			PerMemberTimeout: 2 * time.Second,
		},
		Interest: InterestConfig{
			HalfLife: 0.2,
		},
		Scene: SceneConfig{
			Citizens:     1,
			Soldiers:     2,
			RoofHeight:   400,
			CitizenSpeed: 40,
		},
		Sentences: map[string][]string{
			"move_along_a": {"Move along.", "Keep moving."},
			"move_along_b": {"I said move along.", "Do not make me tell you again."},
			"move_along_c": {"Last warning, citizen.", "This is your final warning."},
			"cop_hostile":  {"That's it, you're going down!"},
		},
	}
}

// Validate checks values the daemon cannot run with.
func (c Behaviord) Validate() error {
	var errs []error
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %v", c.TickInterval))
	}
	switch c.Store {
	case StoreNone, StorePostgres, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	if c.Police.MaxWarnings < 1 {
		errs = append(errs, fmt.Errorf("police.max_warnings must be at least 1, got %d", c.Police.MaxWarnings))
	}
	if len(c.Police.WarningLines) == 0 {
		errs = append(errs, errors.New("police.warning_lines is empty"))
	}
	if c.Police.RearmMax < c.Police.RearmMin {
		errs = append(errs, fmt.Errorf("police.rearm_max %v below rearm_min %v", c.Police.RearmMax, c.Police.RearmMin))
	}
	if c.Rappel.MinSpeed <= 0 || c.Rappel.MaxSpeed < c.Rappel.MinSpeed {
		errs = append(errs, fmt.Errorf("rappel speeds invalid: min %v max %v", c.Rappel.MinSpeed, c.Rappel.MaxSpeed))
	}
	return errors.Join(errs...)
}
