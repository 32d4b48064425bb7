package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/yanqian/workout-coach/internal/domain/workout"
)

// Unavailable is rendered in place of any metric that could not be derived.
const Unavailable = "N/A"

// DefaultVersion is the template used when none is configured.
const DefaultVersion = "coach-id-v3"

//go:embed templates/*.tmpl
var templateFS embed.FS

type templateSpec struct {
	file string
	lang string
}

var registry = map[string]templateSpec{
	"coach-id-v3": {file: "templates/coach-id-v3.tmpl", lang: "id"},
	"coach-en-v1": {file: "templates/coach-en-v1.tmpl", lang: "en"},
}

// Versions lists the bundled template versions in stable order.
func Versions() []string {
	out := make([]string, 0, len(registry))
	for v := range registry {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Prompt is a rendered document plus the numbers it was rendered from.
type Prompt struct {
	Text    string
	Version string
	Metrics Metrics
}

// Builder renders analysis prompts from a single template version.
type Builder struct {
	version string
	lang    string
	name    string
	tmpl    *template.Template
}

// NewBuilder parses the template registered under version.
func NewBuilder(version string) (*Builder, error) {
	if version == "" {
		version = DefaultVersion
	}
	spec, ok := registry[version]
	if !ok {
		return nil, fmt.Errorf("unknown prompt template version %q", version)
	}
	tmpl, err := template.New(version).Option("missingkey=error").ParseFS(templateFS, spec.file)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", version, err)
	}
	return &Builder{version: version, lang: spec.lang, name: path.Base(spec.file), tmpl: tmpl}, nil
}

// Version reports the template version in use.
func (b *Builder) Version() string {
	return b.version
}

// Build renders the prompt. Identical inputs always produce identical text.
func (b *Builder) Build(activity workout.Activity, samples []workout.Sample, profile workout.UserProfile) (Prompt, error) {
	metrics := Compute(activity, samples, profile)
	data := newView(activity, profile, metrics, termsFor(b.lang, activity.Type))

	var buf bytes.Buffer
	if err := b.tmpl.ExecuteTemplate(&buf, b.name, data); err != nil {
		return Prompt{}, fmt.Errorf("render prompt: %w", err)
	}
	return Prompt{Text: buf.String(), Version: b.version, Metrics: metrics}, nil
}

// view is the template payload. Every field is preformatted with its unit.
type view struct {
	Age          string
	Weight       string
	RestingHR    string
	MaxHR        string
	HRR          string
	Type         string
	SportType    string
	Name         string
	Duration     string
	Distance     string
	Elevation    string
	Gear         string
	HasGear      bool
	SessionMaxHR string
	AvgHR        string
	PercentHRR   string
	AvgSpeed     string
	AvgPower     string
	WattsPerKg   string
	AvgCadence   string
	Decoupling   decouplingView
	Terms        Terms
}

type decouplingView struct {
	Sufficient     bool
	Samples        string
	MinSamples     string
	SpeedFirst     string
	SpeedSecond    string
	HRFirst        string
	HRSecond       string
	SpeedChange    string
	HRDrift        string
	HasSpeedChange bool
	HasHRDrift     bool
}

func newView(activity workout.Activity, profile workout.UserProfile, m Metrics, terms Terms) view {
	d := m.Decoupling
	sportType := activity.SportType
	if sportType == "" {
		sportType = activity.Type
	}
	return view{
		Age:          strconv.Itoa(profile.Age),
		Weight:       withUnit(Value{V: profile.WeightKg, OK: profile.WeightKg > 0}, 1, "kg"),
		RestingHR:    strconv.Itoa(profile.RestingHeartRate) + " bpm",
		MaxHR:        strconv.Itoa(m.MaxHeartRate) + " bpm",
		HRR:          strconv.Itoa(m.HeartRateReserve) + " bpm",
		Type:         activity.Type,
		SportType:    sportType,
		Name:         activity.Name,
		Duration:     strconv.Itoa(m.DurationMin),
		Distance:     formatFloat(m.DistanceKm, 2) + " km",
		Elevation:    formatFloat(m.ElevationM, 1) + " m",
		Gear:         m.GearName,
		HasGear:      m.GearName != "",
		SessionMaxHR: withUnit(m.SessionMaxHR, 0, "bpm"),
		AvgHR:        withUnit(m.AvgHeartRate, 0, "bpm"),
		PercentHRR:   withUnit(m.PercentHRR, 0, "% HRR"),
		AvgSpeed:     withUnit(m.AvgSpeedKmh, 1, "km/h"),
		AvgPower:     withUnit(m.AvgWatts, 0, "W"),
		WattsPerKg:   withUnit(m.WattsPerKg, 2, "W/kg"),
		AvgCadence:   withUnit(m.AvgCadence, 0, "rpm"),
		Decoupling: decouplingView{
			Sufficient:     d.Sufficient,
			Samples:        strconv.Itoa(d.Samples),
			MinSamples:     strconv.Itoa(MinDecouplingSamples),
			SpeedFirst:     withUnit(d.SpeedFirstKmh, 1, "km/h"),
			SpeedSecond:    withUnit(d.SpeedSecondKmh, 1, "km/h"),
			HRFirst:        withUnit(d.HRFirst, 0, "bpm"),
			HRSecond:       withUnit(d.HRSecond, 0, "bpm"),
			SpeedChange:    withUnit(d.SpeedChangePct, 1, "%"),
			HRDrift:        withUnit(d.HRDriftPct, 1, "%"),
			HasSpeedChange: d.SpeedChangePct.OK,
			HasHRDrift:     d.HRDriftPct.OK,
		},
		Terms: terms,
	}
}

func withUnit(v Value, precision int, unit string) string {
	if !v.OK {
		return Unavailable
	}
	sep := " "
	if strings.HasPrefix(unit, "%") {
		sep = ""
	}
	return formatFloat(v.V, precision) + sep + unit
}

func formatFloat(v float64, precision int) string {
	out := strconv.FormatFloat(v, 'f', precision, 64)
	// rounding can leave "-0.0" behind
	if strings.HasPrefix(out, "-") && strings.Trim(out[1:], "0.") == "" {
		return out[1:]
	}
	return out
}
