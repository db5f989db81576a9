package features

import "github.com/taxicast/taxicast/internal/temporal"

// weekdayAliases are feature names older models used for the weekday.
// They default to the 0-based weekday index rather than zero.
var weekdayAliases = map[string]bool{
	"day_of_week":        true,
	"dayofweek":          true,
	"weekday":            true,
	"pickup_weekday":     true,
	"pickup_day_of_week": true,
	"pickup_dayofweek":   true,
	"day":                true,
}

// Default returns the value used for a declared feature the builder did not
// assemble. Weekday aliases get the 0-based weekday index; every other name,
// recognised or not, gets 0.
func Default(name string, tf temporal.Features) float64 {
	if weekdayAliases[name] {
		return float64(tf.WeekdayIndex)
	}
	return 0
}

// Vector is a feature row in a model's declared column order.
type Vector struct {
	Names  []string
	Values []float64
	// Defaulted lists declared names that were filled by Default.
	Defaulted []string
}

// Get returns the value for name and whether the vector carries it.
func (v Vector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Reconcile projects assembled onto declared. The result has exactly the
// declared names in the declared order: extras are dropped, gaps are filled.
func Reconcile(assembled map[string]float64, declared []string, tf temporal.Features) Vector {
	v := Vector{
		Names:  append([]string(nil), declared...),
		Values: make([]float64, len(declared)),
	}
	for i, name := range declared {
		if value, ok := assembled[name]; ok {
			v.Values[i] = value
			continue
		}
		v.Values[i] = Default(name, tf)
		v.Defaulted = append(v.Defaulted, name)
	}
	return v
}
