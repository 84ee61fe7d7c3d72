package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomz197/handsoff/internal/config"
	"github.com/tomz197/handsoff/internal/leaderboard"
	"github.com/tomz197/handsoff/internal/object"
	"github.com/tomz197/handsoff/internal/physics"
)

// TargetControl selects how the pointer moves the target.
type TargetControl string

const (
	ControlClick  TargetControl = "click"  // Pointer-down moves the target
	ControlFollow TargetControl = "follow" // The target also follows pointer motion
)

// Tuning holds every gameplay constant. Durations decode from strings such as
// "1.5s" when loaded from YAML.
type Tuning struct {
	GameID string `yaml:"game_id"`

	// Field
	WorldWidth  float64 `yaml:"world_width"`
	WorldHeight float64 `yaml:"world_height"`
	TargetSize  float64 `yaml:"target_size"`

	// Spawning
	InitialHands    int           `yaml:"initial_hands"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MinInterval     time.Duration `yaml:"min_interval"`
	ShrinkFactor    float64       `yaml:"shrink_factor"`
	BaseCap         int           `yaml:"base_cap"`
	MaxCap          int           `yaml:"max_cap"`
	CapStep         time.Duration `yaml:"cap_step"`
	MinSafeDistance float64       `yaml:"min_safe_distance"`
	AttemptLimit    int           `yaml:"attempt_limit"`

	// Hand motion, in logical units per second
	InitialSpeed float64 `yaml:"initial_speed"`
	BaseSpeed    float64 `yaml:"base_speed"`
	MaxSpeed     float64 `yaml:"max_speed"`

	// Difficulty
	LevelPeriod      time.Duration `yaml:"level_period"`
	RedirectBase     float64       `yaml:"redirect_base"`      // Redirects per second at level 1
	RedirectPerLevel float64       `yaml:"redirect_per_level"` // Added per level above 1
	RedirectMax      float64       `yaml:"redirect_max"`

	CollisionLeniency float64 `yaml:"collision_leniency"`

	// Flow
	Control         TargetControl `yaml:"control"`
	NudgeStep       float64       `yaml:"nudge_step"`
	GameOverDelay   time.Duration `yaml:"game_over_delay"`
	MessageDuration time.Duration `yaml:"message_duration"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	BoardSize       int           `yaml:"board_size"`
}

// DefaultTuning returns the stock game balance.
func DefaultTuning() Tuning {
	return Tuning{
		GameID: "default",

		WorldWidth:  800,
		WorldHeight: 600,
		TargetSize:  object.DefaultTargetSize,

		InitialHands:    3,
		InitialInterval: 5 * time.Second,
		MinInterval:     2 * time.Second,
		ShrinkFactor:    0.95,
		BaseCap:         3,
		MaxCap:          5,
		CapStep:         10 * time.Second,
		MinSafeDistance: object.DefaultMinSafeDistance,
		AttemptLimit:    object.DefaultAttemptLimit,

		InitialSpeed: object.DefaultInitialSpeed,
		BaseSpeed:    object.DefaultBaseSpeed,
		MaxSpeed:     object.DefaultMaxSpeed,

		LevelPeriod:      15 * time.Second,
		RedirectBase:     0.3,
		RedirectPerLevel: 0.12,
		RedirectMax:      3.0,

		CollisionLeniency: physics.CollisionLeniency,

		Control:         ControlClick,
		NudgeStep:       20,
		GameOverDelay:   1500 * time.Millisecond,
		MessageDuration: 2 * time.Second,
		RequestTimeout:  5 * time.Second,
		BoardSize:       leaderboard.DefaultBoardSize,
	}
}

// LoadTuning reads overrides from a YAML file on top of DefaultTuning.
// An empty path returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if err := config.LoadYAML(path, &t); err != nil {
		return t, err
	}
	return t, t.Validate()
}

// Validate rejects settings the game cannot run with.
func (t Tuning) Validate() error {
	var errs []error
	if t.WorldWidth <= 0 || t.WorldHeight <= 0 {
		errs = append(errs, errors.New("world size must be positive"))
	}
	if !leaderboard.ValidGameID(t.GameID) {
		errs = append(errs, fmt.Errorf("invalid game id %q", t.GameID))
	}
	if t.MinInterval <= 0 || t.InitialInterval < t.MinInterval {
		errs = append(errs, errors.New("initial_interval must be at least min_interval, which must be positive"))
	}
	if t.ShrinkFactor <= 0 || t.ShrinkFactor > 1 {
		errs = append(errs, errors.New("shrink_factor must be in (0, 1]"))
	}
	if t.BaseCap < 0 || t.MaxCap < t.BaseCap {
		errs = append(errs, errors.New("max_cap must be at least base_cap"))
	}
	if t.CapStep <= 0 || t.LevelPeriod <= 0 {
		errs = append(errs, errors.New("cap_step and level_period must be positive"))
	}
	if t.AttemptLimit < 1 {
		errs = append(errs, errors.New("attempt_limit must be at least 1"))
	}
	if t.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if t.BoardSize < 1 {
		errs = append(errs, errors.New("board_size must be at least 1"))
	}
	switch t.Control {
	case ControlClick, ControlFollow:
	default:
		errs = append(errs, fmt.Errorf("unknown control %q", t.Control))
	}
	return errors.Join(errs...)
}

func (t Tuning) spawnOptions() object.SpawnOptions {
	return object.SpawnOptions{
		MinSafeDistance: t.MinSafeDistance,
		AttemptLimit:    t.AttemptLimit,
		InitialSpeed:    t.InitialSpeed,
		BaseSpeed:       t.BaseSpeed,
		MaxSpeed:        t.MaxSpeed,
	}
}
