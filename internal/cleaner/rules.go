package cleaner

// Radio generation labels produced by the cleaner.
const (
	Gen2G = "2G"
	Gen3G = "3G"
	Gen4G = "4G"
	Gen5G = "5G"
)

// radioGeneration maps OpenCelliD radio technology names to generations.
var radioGeneration = map[string]string{
	"UMTS": Gen3G,
	"GSM":  Gen2G,
	"LTE":  Gen4G,
	"CDMA": Gen3G,
	"NR":   Gen5G,
}

// operatorAliases merges operator-name variants into one canonical name.
var operatorAliases = map[string]string{
	"Airtel":                               "AirTel",
	"Airtel (Old TATA DOCOMO)":             "AirTel",
	"Reliance (Used for Jio in some area)": OperatorJio,
}

// OperatorJio is the canonical name of the 4G/5G-only operator.
const OperatorJio = "Jio"

// defunctOperators are networks no longer in service.
var defunctOperators = map[string]bool{
	"AIRCEL (Not in Use)":      true,
	"Uninor":                   true,
	"DOLPHIN":                  true,
	"Videocon Datacom":         true,
	"Loop Mobile (Not in Use)": true,
}

// jioGeneration corrects generations Jio never operated.
var jioGeneration = map[string]string{
	Gen2G: Gen4G,
	Gen3G: Gen4G,
}

// circleAliases collapses regional label variants into canonical circles.
var circleAliases = map[string]string{
	"Karnataka (Bangalore)":         "Karnataka",
	"Andhra Pradesh":                "Andhra Pradesh and Telangana",
	"Maharashtra":                   "Maharashtra & Goa",
	"Delhi":                         "Delhi & NCR",
	"Tamil Nadu (incl. Chennai)":    "Tamil Nadu",
	"Tamil Nadu including Chennai":  "Tamil Nadu",
	"Chennai":                       "Tamil Nadu",
	"Uttar Pradesh (West)":          "Uttar Pradesh (W) & Uttarakhand",
	"Uttar Pradesh (East)":          "Uttar Pradesh (E)",
	"Bihar":                         "Bihar & Jharkhand",
	"Bihar/Jharkhand":               "Bihar & Jharkhand",
	"Madhya Pradesh":                "Madhya Pradesh & Chhattisgarh",
	"Madhya Pradesh & Chattishgarh": "Madhya Pradesh & Chhattisgarh",
	"Vodafone Punjab":               "Punjab",
	"Kolkata":                       "West Bengal",
	"Assam":                         "Assam & North East",
	"North East":                    "Assam & North East",
}

// CircleSpec configures the outlier trim of one canonical circle.
type CircleSpec struct {
	Circle string
	Label  string
	Lower  float64 // quantile, 0..1
	Upper  float64
}

// circleSpecs lists the circles kept in the corrected output, in output
// order. Anything not listed is dropped.
var circleSpecs = []CircleSpec{
	{"Karnataka", "Karnataka", .01, .99},
	{"Andhra Pradesh and Telangana", "Andhra Pradesh Telangana", .01, .95},
	{"Tamil Nadu", "Tamil Nadu", .01, .99},
	{"Maharashtra & Goa", "Maharashtra Goa", .01, .99},
	{"Delhi & NCR", "Delhi NCR", .01, .99},
	{"Mumbai", "Mumbai", .01, .99},
	{"Kerala", "Kerala", .01, .99},
	{"Gujarat", "Gujarat", .01, .99},
	{"West Bengal", "West Bengal", .01, .99},
	{"Madhya Pradesh & Chhattisgarh", "MP & CG", .01, .99},
	{"Rajasthan", "Rajasthan", .01, .99},
	{"Uttar Pradesh (W) & Uttarakhand", "Up West & Uttarakhand", .01, .99},
	{"Uttar Pradesh (E)", "Up East", .01, .99},
	{"Punjab", "Punjab", .01, .99},
	{"Bihar & Jharkhand", "Bihar & Jharkhand", .01, .99},
	{"Haryana", "Haryana", .01, .99},
	{"Orissa", "Orissa", .01, .99},
	{"Himachal Pradesh", "Himachal Pradesh", .01, .99},
	{"Assam & North East", "Assam & NorthEast", .05, .99},
	{"Jammu & Kashmir", "Jammu Kashmir", .01, .99},
}

// CircleSpecs returns a copy of the trimmed circle list in output order.
func CircleSpecs() []CircleSpec {
	return append([]CircleSpec(nil), circleSpecs...)
}

// RemapRadio converts a radio technology name to its generation label.
// Unknown values pass through unchanged.
func RemapRadio(radio string) string {
	if gen, ok := radioGeneration[radio]; ok {
		return gen
	}
	return radio
}

// CanonicalOperator merges operator-name variants.
func CanonicalOperator(op string) string {
	if canon, ok := operatorAliases[op]; ok {
		return canon
	}
	return op
}

// IsDefunct reports whether op is an operator excluded from analysis.
func IsDefunct(op string) bool { return defunctOperators[op] }

// CanonicalCircle maps a raw circle label to its canonical circle.
func CanonicalCircle(circle string) string {
	if canon, ok := circleAliases[circle]; ok {
		return canon
	}
	return circle
}

// correctJio fixes generations recorded for Jio towers.
func correctJio(operator, radio string) string {
	if operator != OperatorJio {
		return radio
	}
	if gen, ok := jioGeneration[radio]; ok {
		return gen
	}
	return radio
}
