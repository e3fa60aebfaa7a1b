package hisrgb

import "fmt"

// UndefinedHue marks a pixel without a defined hue (gray input).
const UndefinedHue = -1.0

// Converter transforms HIS rows to RGB rows for a fixed maximum color value.
type Converter struct {
	// MaxColor is the upper bound of every output channel, 2^bits - 1.
	MaxColor float64

	// AchromaticAnyHue treats every zero-saturation pixel as gray.
	// When false, gray output requires hue == UndefinedHue and other
	// zero-saturation pixels come out black.
	AchromaticAnyHue bool
}

// NewConverter returns a converter for the given bit depth.
func NewConverter(bits BitDepth) (*Converter, error) {
	if err := bits.Validate(); err != nil {
		return nil, err
	}
	return &Converter{MaxColor: bits.MaxColorValue()}, nil
}

// ConvertRow converts columns cells of the three rows in place: the hue row
// receives red, the intensity row green and the saturation row blue.
// If any input cell of a column is null, all three outputs are null.
func (c *Converter) ConvertRow(hue, intensity, saturation Row, columns int) {
	if columns > len(hue) || columns > len(intensity) || columns > len(saturation) {
		panic(fmt.Sprintf("hisrgb: %d columns exceed row lengths %d/%d/%d",
			columns, len(hue), len(intensity), len(saturation)))
	}

	for col := 0; col < columns; col++ {
		h, i, s := hue[col], intensity[col], saturation[col]
		if h.Null || i.Null || s.Null {
			hue[col] = NullCell()
			intensity[col] = NullCell()
			saturation[col] = NullCell()
			continue
		}

		r, g, b := c.convert(h.Value, i.Value, s.Value)
		hue[col] = CellOf(r)
		intensity[col] = CellOf(g)
		saturation[col] = CellOf(b)
	}
}

// ConvertRow converts rows in place with the reference achromatic rule.
func ConvertRow(hue, intensity, saturation Row, columns int, maxColor float64) {
	c := Converter{MaxColor: maxColor}
	c.ConvertRow(hue, intensity, saturation, columns)
}

// ConvertPixel converts a single non-null HIS triple. Hue is in degrees,
// intensity and saturation in [0,1]. Results lie in [0, maxColor].
func ConvertPixel(hue, intensity, saturation, maxColor float64) (r, g, b float64) {
	c := Converter{MaxColor: maxColor}
	return c.convert(hue, intensity, saturation)
}

func (c *Converter) convert(hue, intensity, saturation float64) (r, g, b float64) {
	var m2 float64
	if intensity <= 0.5 {
		m2 = intensity * (1.0 + saturation)
	} else {
		m2 = intensity + saturation - intensity*saturation
	}
	m1 := 2.0*intensity - m2

	if saturation == 0.0 {
		if hue == UndefinedHue || c.AchromaticAnyHue {
			r, g, b = intensity, intensity, intensity
		}
	} else {
		r = sectorValue(hue+120.0, m1, m2)
		g = sectorValue(hue, m1, m2)
		b = sectorValue(hue-120.0, m1, m2)
	}

	return c.scale(r), c.scale(g), c.scale(b)
}

// sectorValue evaluates the piecewise blend for one channel. The hue is
// folded back into [0,360) with a single correction, not a modulo.
func sectorValue(h, m1, m2 float64) float64 {
	if h > 360.0 {
		h -= 360.0
	}
	if h < 0.0 {
		h += 360.0
	}

	switch {
	case h < 60.0:
		return m1 + (m2-m1)*h/60.0
	case h < 180.0:
		return m2
	case h < 240.0:
		return m1 + (m2-m1)*(240.0-h)/60.0
	default:
		return m1
	}
}

// scale maps a [0,1] channel onto [0, MaxColor] and clamps.
func (c *Converter) scale(v float64) float64 {
	v *= c.MaxColor
	if v > c.MaxColor {
		v = c.MaxColor
	}
	if v < 0.0 {
		v = 0.0
	}
	return v
}
