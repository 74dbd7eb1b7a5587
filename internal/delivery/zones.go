package delivery

import (
	"errors"
	"fmt"
	"os"

	"mercadinho-be/internal/catalog"

	"gopkg.in/yaml.v3"
)

// ErrUnservedZone means the neighborhood is outside the delivery area. It is
// a distinct terminal outcome the caller must communicate, never a zero fee.
var ErrUnservedZone = errors.New("neighborhood not served by delivery")

// Zones maps neighborhoods to flat delivery fees. Static reference data kept
// in YAML; adding a zone is a data edit.
type Zones struct {
	fees map[string]float64 // normalized neighborhood -> fee (BRL)
}

type zonesFile struct {
	Zones map[string]float64 `yaml:"zones"`
}

func LoadZones(path string) (*Zones, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zone table: %w", err)
	}

	var file zonesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing zone table: %w", err)
	}

	return NewZones(file.Zones), nil
}

func NewZones(fees map[string]float64) *Zones {
	normalized := make(map[string]float64, len(fees))
	for name, fee := range fees {
		normalized[catalog.Normalize(name)] = fee
	}
	return &Zones{fees: normalized}
}

// FeeFor resolves the delivery fee for a neighborhood as the customer typed
// it (accents and casing do not matter).
func (z *Zones) FeeFor(neighborhood string) (float64, error) {
	fee, ok := z.fees[catalog.Normalize(neighborhood)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnservedZone, neighborhood)
	}
	return fee, nil
}
