package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical scoring defaults file.
const DefaultConfigPath = "config/scoring.defaults.json"

// SitWeights weights the sitting-phase metric averages in the sit score.
type SitWeights struct {
	KneeFlexion     float64
	HipControl      float64
	SpinalAlignment float64
}

// RiseWeights weights the rising-phase metric averages in the rise score.
type RiseWeights struct {
	KneeExtension float64
	HipDrive      float64
	Stability     float64
}

// CompositeMultipliers are the fixed multipliers applied to phase averages
// before they are averaged into the composite indices.
type CompositeMultipliers struct {
	PosturalSpinal    float64
	PosturalStability float64
	BalanceHip        float64
	BalanceStability  float64
	CoordKneeFlexion  float64
	CoordKneeExtend   float64
	CoordHipDrive     float64
}

// Filters are the image filters requested from the frame extractor.
type Filters struct {
	Scale      float64 // multiplier on the source resolution
	Brightness float64 // eq brightness offset, -1..1
	Contrast   float64 // eq contrast multiplier
	Denoise    float64 // hqdn3d luma spatial strength
}

// Params holds every threshold, weight, bound and budget used by the
// analysis pipeline. It is passed by value so components never share a
// mutable copy.
type Params struct {
	// Frame sampling
	MinFrames int
	MaxFrames int
	BaseFPS   float64
	MaxFPS    float64
	Filters   Filters

	// Pose usability
	ConfidenceThreshold float64

	// Phase segmentation
	MinFramesPerPhase int
	TransitionWindow  int

	// Support detection
	HandSupportRatio float64
	KneeSupportRatio float64
	HandPenalty      float64
	KneePenalty      float64

	// Aggregation
	MinValidSamples int
	MissingDefault  float64
	PenaltyFactor   float64
	MinPhaseScore   float64
	MaxPhaseScore   float64
	MinTotalScore   float64
	MaxTotalScore   float64
	Sit             SitWeights
	Rise            RiseWeights
	Composite       CompositeMultipliers

	// Feedback thresholds
	Excellent   float64
	Good        float64
	Improvement float64

	// Budgets and fan-out
	FrameBudget time.Duration
	RunBudget   time.Duration
	RunTimeout  time.Duration // hard ceiling; the budgets above only warn
	Workers     int           // 0 selects runtime.NumCPU()
}

// DefaultParams returns the reference scoring parameters.
func DefaultParams() Params {
	return Params{
		MinFrames: 20,
		MaxFrames: 40,
		BaseFPS:   5,
		MaxFPS:    10,
		Filters: Filters{
			Scale:      1.0,
			Brightness: 0.05,
			Contrast:   1.1,
			Denoise:    1.5,
		},

		ConfidenceThreshold: 0.3,

		MinFramesPerPhase: 10,
		TransitionWindow:  5,

		HandSupportRatio: 0.3,
		KneeSupportRatio: 0.2,
		HandPenalty:      1.0,
		KneePenalty:      0.5,

		MinValidSamples: 3,
		MissingDefault:  0.3,
		PenaltyFactor:   0.6,
		MinPhaseScore:   1.5,
		MaxPhaseScore:   5,
		MinTotalScore:   2,
		MaxTotalScore:   10,
		Sit:             SitWeights{KneeFlexion: 0.35, HipControl: 0.35, SpinalAlignment: 0.30},
		Rise:            RiseWeights{KneeExtension: 0.30, HipDrive: 0.40, Stability: 0.30},
		Composite: CompositeMultipliers{
			PosturalSpinal:    1.3,
			PosturalStability: 1.2,
			BalanceHip:        1.4,
			BalanceStability:  1.3,
			CoordKneeFlexion:  1.1,
			CoordKneeExtend:   1.1,
			CoordHipDrive:     1.2,
		},

		Excellent:   0.8,
		Good:        0.6,
		Improvement: 0.4,

		FrameBudget: 500 * time.Millisecond,
		RunBudget:   10 * time.Second,
		RunTimeout:  2 * time.Minute,
	}
}

// ScoringConfig is the on-disk schema for operational overrides. Fields
// omitted from the JSON keep their defaults. Scoring weights are not part of
// the file: the grading scale is fixed.
type ScoringConfig struct {
	MinFrames *int     `json:"min_frames,omitempty"`
	MaxFrames *int     `json:"max_frames,omitempty"`
	BaseFPS   *float64 `json:"base_fps,omitempty"`
	MaxFPS    *float64 `json:"max_fps,omitempty"`

	FilterScale      *float64 `json:"filter_scale,omitempty"`
	FilterBrightness *float64 `json:"filter_brightness,omitempty"`
	FilterContrast   *float64 `json:"filter_contrast,omitempty"`
	FilterDenoise    *float64 `json:"filter_denoise,omitempty"`

	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	MinFramesPerPhase   *int     `json:"min_frames_per_phase,omitempty"`
	TransitionWindow    *int     `json:"transition_window,omitempty"`

	FrameBudget *string `json:"frame_budget,omitempty"` // duration string like "500ms"
	RunBudget   *string `json:"run_budget,omitempty"`   // duration string like "10s"
	RunTimeout  *string `json:"run_timeout,omitempty"`  // duration string like "2m"
	Workers     *int    `json:"workers,omitempty"`
}

// EmptyScoringConfig returns a ScoringConfig with all fields unset.
func EmptyScoringConfig() *ScoringConfig {
	return &ScoringConfig{}
}

// LoadScoringConfig loads a ScoringConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadScoringConfig(path string) (*ScoringConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyScoringConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot
// be loaded; intended for test setup.
func MustLoadDefaultConfig() *ScoringConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/srt/<pkg>/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadScoringConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *ScoringConfig) Validate() error {
	if c.MinFrames != nil && *c.MinFrames < 1 {
		return fmt.Errorf("min_frames must be positive, got %d", *c.MinFrames)
	}
	if c.MaxFrames != nil && *c.MaxFrames < 2 {
		return fmt.Errorf("max_frames must be at least 2, got %d", *c.MaxFrames)
	}
	if c.GetMinFrames() > c.GetMaxFrames() {
		return fmt.Errorf("min_frames (%d) exceeds max_frames (%d)", c.GetMinFrames(), c.GetMaxFrames())
	}
	if c.BaseFPS != nil && *c.BaseFPS <= 0 {
		return fmt.Errorf("base_fps must be positive, got %f", *c.BaseFPS)
	}
	if c.GetBaseFPS() > c.GetMaxFPS() {
		return fmt.Errorf("base_fps (%f) exceeds max_fps (%f)", c.GetBaseFPS(), c.GetMaxFPS())
	}
	if c.ConfidenceThreshold != nil {
		if *c.ConfidenceThreshold < 0 || *c.ConfidenceThreshold > 1 {
			return fmt.Errorf("confidence_threshold must be between 0 and 1, got %f", *c.ConfidenceThreshold)
		}
	}
	if c.MinFramesPerPhase != nil && *c.MinFramesPerPhase < 1 {
		return fmt.Errorf("min_frames_per_phase must be positive, got %d", *c.MinFramesPerPhase)
	}
	if c.TransitionWindow != nil && *c.TransitionWindow < 0 {
		return fmt.Errorf("transition_window must be non-negative, got %d", *c.TransitionWindow)
	}
	if c.FrameBudget != nil && *c.FrameBudget != "" {
		if _, err := time.ParseDuration(*c.FrameBudget); err != nil {
			return fmt.Errorf("invalid frame_budget '%s': %w", *c.FrameBudget, err)
		}
	}
	if c.RunBudget != nil && *c.RunBudget != "" {
		if _, err := time.ParseDuration(*c.RunBudget); err != nil {
			return fmt.Errorf("invalid run_budget '%s': %w", *c.RunBudget, err)
		}
	}
	if c.RunTimeout != nil && *c.RunTimeout != "" {
		d, err := time.ParseDuration(*c.RunTimeout)
		if err != nil {
			return fmt.Errorf("invalid run_timeout '%s': %w", *c.RunTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("run_timeout must be positive, got %s", d)
		}
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	return nil
}

// GetMinFrames returns min_frames or the default.
func (c *ScoringConfig) GetMinFrames() int {
	if c.MinFrames == nil {
		return DefaultParams().MinFrames
	}
	return *c.MinFrames
}

// GetMaxFrames returns max_frames or the default.
func (c *ScoringConfig) GetMaxFrames() int {
	if c.MaxFrames == nil {
		return DefaultParams().MaxFrames
	}
	return *c.MaxFrames
}

// GetBaseFPS returns base_fps or the default.
func (c *ScoringConfig) GetBaseFPS() float64 {
	if c.BaseFPS == nil {
		return DefaultParams().BaseFPS
	}
	return *c.BaseFPS
}

// GetMaxFPS returns max_fps or the default.
func (c *ScoringConfig) GetMaxFPS() float64 {
	if c.MaxFPS == nil {
		return DefaultParams().MaxFPS
	}
	return *c.MaxFPS
}

// GetConfidenceThreshold returns confidence_threshold or the default.
func (c *ScoringConfig) GetConfidenceThreshold() float64 {
	if c.ConfidenceThreshold == nil {
		return DefaultParams().ConfidenceThreshold
	}
	return *c.ConfidenceThreshold
}

// GetMinFramesPerPhase returns min_frames_per_phase or the default.
func (c *ScoringConfig) GetMinFramesPerPhase() int {
	if c.MinFramesPerPhase == nil {
		return DefaultParams().MinFramesPerPhase
	}
	return *c.MinFramesPerPhase
}

// GetTransitionWindow returns transition_window or the default.
func (c *ScoringConfig) GetTransitionWindow() int {
	if c.TransitionWindow == nil {
		return DefaultParams().TransitionWindow
	}
	return *c.TransitionWindow
}

// GetFrameBudget parses frame_budget, falling back to the default.
func (c *ScoringConfig) GetFrameBudget() time.Duration {
	return parseDurationOr(c.FrameBudget, DefaultParams().FrameBudget)
}

// GetRunBudget parses run_budget, falling back to the default.
func (c *ScoringConfig) GetRunBudget() time.Duration {
	return parseDurationOr(c.RunBudget, DefaultParams().RunBudget)
}

// GetRunTimeout parses run_timeout, falling back to the default.
func (c *ScoringConfig) GetRunTimeout() time.Duration {
	return parseDurationOr(c.RunTimeout, DefaultParams().RunTimeout)
}

// GetWorkers returns workers or 0 (one per CPU).
func (c *ScoringConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// Params resolves the file overrides on top of DefaultParams.
func (c *ScoringConfig) Params() Params {
	p := DefaultParams()
	p.MinFrames = c.GetMinFrames()
	p.MaxFrames = c.GetMaxFrames()
	p.BaseFPS = c.GetBaseFPS()
	p.MaxFPS = c.GetMaxFPS()
	if c.FilterScale != nil {
		p.Filters.Scale = *c.FilterScale
	}
	if c.FilterBrightness != nil {
		p.Filters.Brightness = *c.FilterBrightness
	}
	if c.FilterContrast != nil {
		p.Filters.Contrast = *c.FilterContrast
	}
	if c.FilterDenoise != nil {
		p.Filters.Denoise = *c.FilterDenoise
	}
	p.ConfidenceThreshold = c.GetConfidenceThreshold()
	p.MinFramesPerPhase = c.GetMinFramesPerPhase()
	p.TransitionWindow = c.GetTransitionWindow()
	p.FrameBudget = c.GetFrameBudget()
	p.RunBudget = c.GetRunBudget()
	p.RunTimeout = c.GetRunTimeout()
	p.Workers = c.GetWorkers()
	return p
}

func parseDurationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def
	}
	return d
}
