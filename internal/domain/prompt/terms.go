package prompt

// Terms is the vocabulary used for an activity type.
type Terms struct {
	Verb   string
	Noun   string
	Action string
}

var vocabulary = map[string]map[string]Terms{
	"id": {
		"Run":  {Verb: "lari", Noun: "pelari", Action: "berlari"},
		"Ride": {Verb: "bersepeda/gowes", Noun: "pesepeda", Action: "mengayuh"},
		"Walk": {Verb: "jalan kaki", Noun: "pejalan kaki", Action: "berjalan"},
		"Hike": {Verb: "hiking", Noun: "pendaki", Action: "mendaki"},
		"Swim": {Verb: "renang", Noun: "perenang", Action: "berenang"},
		"":     {Verb: "berolahraga", Noun: "atlet", Action: "bergerak"},
	},
	"en": {
		"Run":  {Verb: "running", Noun: "runner", Action: "run"},
		"Ride": {Verb: "cycling", Noun: "cyclist", Action: "pedal"},
		"Walk": {Verb: "walking", Noun: "walker", Action: "walk"},
		"Hike": {Verb: "hiking", Noun: "hiker", Action: "climb"},
		"Swim": {Verb: "swimming", Noun: "swimmer", Action: "swim"},
		"":     {Verb: "training", Noun: "athlete", Action: "move"},
	},
}

func termsFor(lang, activityType string) Terms {
	table, ok := vocabulary[lang]
	if !ok {
		table = vocabulary["en"]
	}
	if t, ok := table[activityType]; ok {
		return t
	}
	return table[""]
}
