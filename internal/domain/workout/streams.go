package workout

// DefaultMaxSamples bounds the series handed to the prompt builder.
const DefaultMaxSamples = 200

// Streams holds per-metric arrays as returned by activity platforms keyed by type.
type Streams struct {
	Time      []float64
	Distance  []float64
	HeartRate []float64
	Speed     []float64
	Altitude  []float64
	Cadence   []float64
	Watts     []float64
}

// SamplesFromStreams zips stream arrays into samples. The time stream defines
// the length; shorter optional streams leave the remaining samples unset.
func SamplesFromStreams(s Streams) []Sample {
	if len(s.Time) == 0 {
		return nil
	}
	out := make([]Sample, len(s.Time))
	for i, t := range s.Time {
		sample := Sample{Time: t}
		if i < len(s.Distance) {
			sample.Distance = s.Distance[i]
		}
		sample.HeartRate = at(s.HeartRate, i)
		sample.Speed = at(s.Speed, i)
		sample.Altitude = at(s.Altitude, i)
		sample.Cadence = at(s.Cadence, i)
		sample.Watts = at(s.Watts, i)
		out[i] = sample
	}
	return out
}

func at(values []float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	v := values[i]
	return &v
}

// Downsample keeps every step-th sample so at most roughly max points remain.
// step is floor(len/max) and never below one.
func Downsample(samples []Sample, max int) []Sample {
	if max <= 0 || len(samples) <= max {
		return samples
	}
	step := len(samples) / max
	if step < 1 {
		step = 1
	}
	out := make([]Sample, 0, len(samples)/step+1)
	for i := 0; i < len(samples); i += step {
		out = append(out, samples[i])
	}
	return out
}
