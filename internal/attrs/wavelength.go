package attrs

import (
	"fmt"
	"strconv"

	"github.com/helio-search/helio/internal/query"
)

// Unit is a spectral unit. Wavelength units convert linearly; frequency
// converts through c, so a 17 GHz criterion and its equivalent wavelength
// in angstroms select the same data.
type Unit int

const (
	Angstrom Unit = iota
	Nanometer
	GHz
)

func (u Unit) String() string {
	switch u {
	case Nanometer:
		return "nm"
	case GHz:
		return "GHz"
	default:
		return "A"
	}
}

// speedOfLight in angstrom-gigahertz units: c = 2.99792458e8 m/s, so
// lambda[A] * f[GHz] = c * 1e10 / 1e9.
const speedOfLight = 2.99792458e9

// Quantity is a spectral value with its unit.
type Quantity struct {
	Value float64
	Unit  Unit
}

// Angstroms builds an angstrom quantity.
func Angstroms(v float64) Quantity { return Quantity{Value: v, Unit: Angstrom} }

// Nanometers builds a nanometer quantity.
func Nanometers(v float64) Quantity { return Quantity{Value: v, Unit: Nanometer} }

// Gigahertz builds a frequency quantity.
func Gigahertz(v float64) Quantity { return Quantity{Value: v, Unit: GHz} }

// InAngstroms converts the quantity to a wavelength in angstroms.
func (q Quantity) InAngstroms() float64 {
	switch q.Unit {
	case Nanometer:
		return q.Value * 10
	case GHz:
		return speedOfLight / q.Value
	default:
		return q.Value
	}
}

// InGHz converts the quantity to a frequency in gigahertz.
func (q Quantity) InGHz() float64 {
	if q.Unit == GHz {
		return q.Value
	}
	return speedOfLight / q.InAngstroms()
}

func (q Quantity) String() string {
	return strconv.FormatFloat(q.Value, 'f', -1, 64) + q.Unit.String()
}

// Wavelength restricts results to a spectral range. Bounds given in the
// same unit are ordered by value; mixed-unit bounds are ordered by their
// wavelength in angstroms.
type Wavelength struct {
	query.Leaf
	min, max Quantity
}

// NewWavelength builds a spectral range criterion. Pass the same quantity
// twice for a single spectral point.
func NewWavelength(min, max Quantity) Wavelength {
	swap := min.Value > max.Value
	if min.Unit != max.Unit {
		swap = min.InAngstroms() > max.InAngstroms()
	}
	if swap {
		min, max = max, min
	}
	return Wavelength{min: min, max: max}
}

// Min returns the lower bound.
func (w Wavelength) Min() Quantity { return w.min }

// Max returns the upper bound.
func (w Wavelength) Max() Quantity { return w.max }

// IsPoint reports whether the criterion is a single spectral point.
func (w Wavelength) IsPoint() bool { return w.min == w.max }

func (w Wavelength) String() string {
	if w.IsPoint() {
		return "wavelength:" + w.min.String()
	}
	return fmt.Sprintf("wavelength:%s..%s", w.min, w.max)
}
