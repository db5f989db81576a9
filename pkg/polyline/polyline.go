// Package polyline encodes and decodes route geometry in Google's encoded
// polyline format, as returned by OSRM with geometries=polyline (precision 5)
// or geometries=polyline6 (precision 6).
// https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"fmt"
	"math"
)

// Precisions understood by OSRM.
const (
	Precision5 = 5
	Precision6 = 6
)

// ErrMalformed indicates an encoded string that ends mid-value or holds an
// odd number of values.
var ErrMalformed = errors.New("malformed polyline")

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Pair returns the point as [lat, lon].
func (c Coordinate) Pair() [2]float64 {
	return [2]float64{c.Lat, c.Lon}
}

func factor(precision int) float64 {
	return math.Pow10(precision)
}

// Decode decodes a polyline at the given precision.
func Decode(encoded string, precision int) ([]Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}

	f := factor(precision)
	var coords []Coordinate
	index, lat, lon := 0, 0, 0

	for index < len(encoded) {
		latDelta, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		if next >= len(encoded) {
			return nil, fmt.Errorf("%w: latitude without longitude at offset %d", ErrMalformed, index)
		}
		lonDelta, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next

		lat += latDelta
		lon += lonDelta
		coords = append(coords, Coordinate{
			Lat: float64(lat) / f,
			Lon: float64(lon) / f,
		})
	}

	return coords, nil
}

// decodeValue decodes one zigzag varint starting at index.
func decodeValue(encoded string, index int) (value, next int, err error) {
	shift, result := 0, 0
	for {
		if index >= len(encoded) {
			return 0, 0, fmt.Errorf("%w: truncated value", ErrMalformed)
		}
		b := int(encoded[index]) - 63
		if b < 0 || b > 63 {
			return 0, 0, fmt.Errorf("%w: invalid character %q at offset %d", ErrMalformed, encoded[index], index)
		}
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}

// Encode encodes coordinates at the given precision.
func Encode(coords []Coordinate, precision int) string {
	if len(coords) == 0 {
		return ""
	}

	f := factor(precision)
	encoded := make([]byte, 0, len(coords)*6)
	prevLat, prevLon := 0, 0

	for _, c := range coords {
		lat := int(math.Round(c.Lat * f))
		lon := int(math.Round(c.Lon * f))

		encoded = encodeValue(encoded, lat-prevLat)
		encoded = encodeValue(encoded, lon-prevLon)

		prevLat, prevLon = lat, lon
	}

	return string(encoded)
}

func encodeValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}
