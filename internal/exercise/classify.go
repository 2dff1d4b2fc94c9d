package exercise

// EquipmentClass groups equipment tags that share load increments and bounds.
type EquipmentClass int

const (
	EquipmentDefault EquipmentClass = iota
	EquipmentBarbell
	EquipmentDumbbell
	EquipmentMachine
	EquipmentBodyweight
)

func (c EquipmentClass) String() string {
	switch c {
	case EquipmentBarbell:
		return "barbell"
	case EquipmentDumbbell:
		return "dumbbell"
	case EquipmentMachine:
		return "machine"
	case EquipmentBodyweight:
		return "bodyweight"
	case EquipmentDefault:
		return "default"
	}
	return "default"
}

//nolint:gochecknoglobals // read-only lookup table.
var equipmentClasses = map[string]EquipmentClass{
	"BARBELL":       EquipmentBarbell,
	"EZ_BAR":        EquipmentBarbell,
	"SMITH_MACHINE": EquipmentBarbell,
	"RACK":          EquipmentBarbell,
	"BAR":           EquipmentBarbell,
	"DUMBBELL":      EquipmentDumbbell,
	"KETTLEBELLS":   EquipmentDumbbell,
	"MACHINE":       EquipmentMachine,
	"CABLE":         EquipmentMachine,
	"BODY_ONLY":     EquipmentBodyweight,
	"NONE":          EquipmentBodyweight,
}

//nolint:gochecknoglobals // read-only lookup table.
var lowerBodyMuscles = map[string]bool{
	"QUADRICEPS": true,
	"HAMSTRINGS": true,
	"GLUTES":     true,
	"CALVES":     true,
	"ADDUCTORS":  true,
	"ABDUCTORS":  true,
	"GROIN":      true,
}

// ClassifyEquipment maps an equipment tag to its class. Unknown and empty tags map to [EquipmentDefault].
func ClassifyEquipment(equipment string) EquipmentClass {
	if c, ok := equipmentClasses[equipment]; ok {
		return c
	}
	return EquipmentDefault
}

// IsLowerBody reports whether muscle belongs to the lower body. Empty or unknown muscles are upper body.
func IsLowerBody(muscle string) bool {
	return lowerBodyMuscles[muscle]
}

// Profile is the classified view of an exercise's attributes.
type Profile struct {
	// PrimaryMuscle is the first primary muscle attribute, or the fallback muscle when the exercise has none.
	PrimaryMuscle string
	Equipment     string
	Type          string
	Class         EquipmentClass
}

// Classify extracts the first primary muscle, equipment and type from attrs. fallbackMuscle is used when there is
// no primary muscle attribute and may be empty.
func Classify(attrs []Attribute, fallbackMuscle string) Profile {
	primary := first(attrs, PrimaryMuscle)
	if primary == "" {
		primary = fallbackMuscle
	}
	equipment := first(attrs, Equipment)
	return Profile{
		PrimaryMuscle: primary,
		Equipment:     equipment,
		Type:          first(attrs, Type),
		Class:         ClassifyEquipment(equipment),
	}
}

// LowerBody reports whether the profile's primary muscle is a lower-body muscle.
func (p Profile) LowerBody() bool {
	return IsLowerBody(p.PrimaryMuscle)
}

// Timed reports whether the exercise is prescribed by duration.
func (p Profile) Timed() bool {
	return p.Type == "CARDIO" || p.Type == "STRETCHING"
}

// Bodyweight reports whether the exercise is prescribed by reps only.
func (p Profile) Bodyweight() bool {
	return p.Class == EquipmentBodyweight || p.Type == "BODYWEIGHT" || p.Type == "CALISTHENIC"
}

// Weighted reports whether the exercise carries an external load.
func (p Profile) Weighted() bool {
	return !p.Bodyweight() && !p.Timed()
}

// MuscleCredits returns the effective-set credit per muscle for one set of an exercise.
//
// The primary muscle earns a full set. When there is no primary muscle the first secondary muscle is promoted.
// Every other distinct secondary muscle earns half a set. Muscles are returned in attribute order.
func MuscleCredits(attrs []Attribute) []MuscleCredit {
	primary := first(attrs, PrimaryMuscle)
	secondaries := Values(attrs, SecondaryMuscle)
	if primary == "" && len(secondaries) > 0 {
		primary = secondaries[0]
	}
	var credits []MuscleCredit
	seen := make(map[string]bool)
	if primary != "" {
		credits = append(credits, MuscleCredit{Muscle: primary, Credit: 1})
		seen[primary] = true
	}
	for _, m := range secondaries {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		credits = append(credits, MuscleCredit{Muscle: m, Credit: 0.5}) //nolint:mnd // half a set
	}
	return credits
}

// MuscleCredit is the share of an effective set a muscle earns.
type MuscleCredit struct {
	Muscle string
	Credit float64
}
