package game

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Tier names a difficulty level.
type Tier string

const (
	TierMortal   Tier = "mortal"
	TierDemon    Tier = "demon"
	TierInfernal Tier = "infernal"
)

// Tiers lists every tier in menu order.
var Tiers = []Tier{TierMortal, TierDemon, TierInfernal}

// Difficulty holds the tunables for one tier.
type Difficulty struct {
	Name            string        `yaml:"name" validate:"required"`
	Description     string        `yaml:"description"`
	StartingSymbols int           `yaml:"starting_symbols" validate:"gte=1"`
	MaxSymbols      int           `yaml:"max_symbols" validate:"gtefield=StartingSymbols"`
	SymbolsPerLevel float64       `yaml:"symbols_per_level" validate:"gte=0"`
	MemorizeTime    time.Duration `yaml:"memorize_time" validate:"gt=0"`
	PlayTime        time.Duration `yaml:"play_time" validate:"gt=0"`
	Lives           int           `yaml:"lives" validate:"gte=1"`
	ScoreMultiplier float64       `yaml:"score_multiplier" validate:"gt=0"`
}

// Table maps each tier to its difficulty record.
type Table map[Tier]Difficulty

// DefaultTable returns the built-in tier settings.
func DefaultTable() Table {
	return Table{
		TierMortal: {
			Name:            "Mortal",
			Description:     "For those who still fear the dark",
			StartingSymbols: 3,
			MaxSymbols:      6,
			SymbolsPerLevel: 1,
			MemorizeTime:    3000 * time.Millisecond,
			PlayTime:        10000 * time.Millisecond,
			Lives:           5,
			ScoreMultiplier: 1,
		},
		TierDemon: {
			Name:            "Demon",
			Description:     "Embrace the hellfire within",
			StartingSymbols: 4,
			MaxSymbols:      9,
			SymbolsPerLevel: 1,
			MemorizeTime:    2500 * time.Millisecond,
			PlayTime:        8000 * time.Millisecond,
			Lives:           3,
			ScoreMultiplier: 2,
		},
		TierInfernal: {
			Name:            "Infernal",
			Description:     "True darkness awaits",
			StartingSymbols: 5,
			MaxSymbols:      12,
			SymbolsPerLevel: 1,
			MemorizeTime:    2000 * time.Millisecond,
			PlayTime:        6000 * time.Millisecond,
			Lives:           2,
			ScoreMultiplier: 3,
		},
	}
}

// Get returns the record for tier.
func (t Table) Get(tier Tier) (Difficulty, bool) {
	d, ok := t[tier]
	return d, ok
}

// ErrUnknownTier is returned when a tier file names a tier that does not exist.
var ErrUnknownTier = errors.New("unknown difficulty tier")

// LoadTable reads YAML tier overrides on top of DefaultTable. Only the fields
// present in the document change; durations use Go syntax ("2500ms").
//
//	demon:
//	  lives: 4
//	  play_time: 9s
func LoadTable(r io.Reader) (Table, error) {
	var raw map[Tier]yaml.Node
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode tier file: %w", err)
	}

	table := DefaultTable()
	for tier, node := range raw {
		d, ok := table[tier]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
		}
		if err := node.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode tier %s: %w", tier, err)
		}
		table[tier] = d
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every record against its field constraints.
func (t Table) Validate() error {
	for _, tier := range Tiers {
		d, ok := t[tier]
		if !ok {
			return fmt.Errorf("tier %s: missing", tier)
		}
		if err := validate.Struct(d); err != nil {
			return fmt.Errorf("tier %s: %w", tier, err)
		}
	}
	return nil
}
