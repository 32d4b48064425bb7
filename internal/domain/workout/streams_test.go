package workout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSamplesFromStreams(t *testing.T) {
	samples := SamplesFromStreams(Streams{
		Time:      []float64{0, 1, 2},
		Distance:  []float64{0, 3.1, 6.4},
		HeartRate: []float64{120, 125},
		Speed:     []float64{3.1, 3.3, 3.2},
	})

	require.Len(t, samples, 3)
	require.Equal(t, 6.4, samples[2].Distance)
	require.NotNil(t, samples[1].HeartRate)
	require.Equal(t, 125.0, *samples[1].HeartRate)
	require.Nil(t, samples[2].HeartRate)
	require.Nil(t, samples[0].Watts)
	require.Equal(t, 3.2, *samples[2].Speed)
}

func TestSamplesFromStreams_NoTime(t *testing.T) {
	require.Nil(t, SamplesFromStreams(Streams{HeartRate: []float64{100}}))
}

func TestDownsample(t *testing.T) {
	tests := []struct {
		name string
		size int
		max  int
		want int
	}{
		{name: "below limit", size: 150, max: 200, want: 150},
		{name: "exact multiple", size: 800, max: 200, want: 200},
		{name: "remainder", size: 450, max: 200, want: 225},
		{name: "disabled", size: 500, max: 0, want: 500},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			samples := make([]Sample, tc.size)
			for i := range samples {
				samples[i].Time = float64(i)
			}
			got := Downsample(samples, tc.max)
			require.Len(t, got, tc.want)
			require.Equal(t, 0.0, got[0].Time)
		})
	}
}

func TestUserProfileValidate(t *testing.T) {
	require.NoError(t, UserProfile{Age: 30, RestingHeartRate: 60, WeightKg: 70}.Validate())
	require.Error(t, UserProfile{Age: 0, RestingHeartRate: 60}.Validate())
	require.Error(t, UserProfile{Age: 30, RestingHeartRate: 0}.Validate())
	require.Error(t, UserProfile{Age: 30, RestingHeartRate: 60, WeightKg: -1}.Validate())
}

func TestGearDisplayName(t *testing.T) {
	var missing *Gear
	require.Equal(t, "", missing.DisplayName())
	require.Equal(t, "Speedy", (&Gear{Name: "Pegasus 40", Nickname: "Speedy"}).DisplayName())
	require.Equal(t, "Pegasus 40", (&Gear{Name: "Pegasus 40"}).DisplayName())
}
