package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ayusman/giftwrap/internal/morph"
)

// Setting keys persisted in the store.
const (
	KeyGiftRate   = "morph.gift_rate"
	KeyBaubleRate = "morph.bauble_rate"
	KeyTopperRate = "morph.topper_rate"
	KeyThreshold  = "gesture.threshold"
)

// Tunables are the values that can be changed while running, through the
// settings API or a config reload.
type Tunables struct {
	Rates     morph.Rates `json:"rates"`
	Threshold int         `json:"threshold"`
}

// Tunables returns the live-adjustable part of c.
func (c Config) Tunables() Tunables {
	return Tunables{Rates: c.Morph, Threshold: c.Gesture.Threshold}
}

// WithTunables returns c with t applied.
func (c Config) WithTunables(t Tunables) Config {
	c.Morph = t.Rates
	c.Gesture.Threshold = t.Threshold
	return c
}

// Validate checks ranges.
func (t Tunables) Validate() error {
	var errs []error
	if err := t.Rates.Validate(); err != nil {
		errs = append(errs, err)
	}
	if t.Threshold < 1 {
		errs = append(errs, fmt.Errorf("threshold %d must be at least 1", t.Threshold))
	}
	return errors.Join(errs...)
}

// Settings encodes t as store key-value pairs.
func (t Tunables) Settings() map[string]string {
	return map[string]string{
		KeyGiftRate:   strconv.FormatFloat(t.Rates.Gifts, 'g', -1, 64),
		KeyBaubleRate: strconv.FormatFloat(t.Rates.Baubles, 'g', -1, 64),
		KeyTopperRate: strconv.FormatFloat(t.Rates.Topper, 'g', -1, 64),
		KeyThreshold:  strconv.Itoa(t.Threshold),
	}
}

// ApplySettings overlays stored key-value pairs on t. Unknown keys are
// ignored so that old databases keep loading.
func (t Tunables) ApplySettings(values map[string]string) (Tunables, error) {
	out := t
	floats := map[string]*float64{
		KeyGiftRate:   &out.Rates.Gifts,
		KeyBaubleRate: &out.Rates.Baubles,
		KeyTopperRate: &out.Rates.Topper,
	}
	for key, dst := range floats {
		v, ok := values[key]
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return t, fmt.Errorf("setting %s: %w", key, err)
		}
		*dst = f
	}
	if v, ok := values[KeyThreshold]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return t, fmt.Errorf("setting %s: %w", KeyThreshold, err)
		}
		out.Threshold = n
	}
	if err := out.Validate(); err != nil {
		return t, err
	}
	return out, nil
}
