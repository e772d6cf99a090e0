package normalize

import "regexp"

// streetAbbreviations maps lowercase street-token abbreviations to their
// canonical expansions. Applied to street segments only so city names like
// "St. Louis" in other positions survive. A trailing period on the token is
// tolerated.
var streetAbbreviations = map[string]string{
	"st":   "Street",
	"ave":  "Avenue",
	"rd":   "Road",
	"blvd": "Boulevard",
	"dr":   "Drive",
	"ln":   "Lane",
	"pl":   "Place",
	"ct":   "Court",
	"pkwy": "Parkway",
	"sq":   "Square",
	"hwy":  "Highway",
	"ste":  "Suite",
	"fl":   "Floor",
	"bldg": "Building",
}

// countryTable maps lowercase country variants to canonical names. Every
// canonical name is also a key mapping to itself so re-normalizing formatted
// output is stable.
var countryTable = map[string]string{
	"usa":                      "United States",
	"us":                       "United States",
	"u.s":                      "United States",
	"u.s.":                     "United States",
	"u.s.a":                    "United States",
	"u.s.a.":                   "United States",
	"united states":            "United States",
	"united states of america": "United States",
	"america":                  "United States",
	"uk":                       "United Kingdom",
	"u.k":                      "United Kingdom",
	"u.k.":                     "United Kingdom",
	"united kingdom":           "United Kingdom",
	"great britain":            "United Kingdom",
	"canada":                   "Canada",
	"australia":                "Australia",
	"new zealand":              "New Zealand",
	"india":                    "India",
	"china":                    "China",
	"japan":                    "Japan",
	"singapore":                "Singapore",
	"south korea":              "South Korea",
	"republic of korea":        "South Korea",
	"korea":                    "South Korea",
	"russia":                   "Russian Federation",
	"russian federation":       "Russian Federation",
	"germany":                  "Germany",
	"france":                   "France",
	"spain":                    "Spain",
	"italy":                    "Italy",
	"portugal":                 "Portugal",
	"netherlands":              "Netherlands",
	"the netherlands":          "Netherlands",
	"belgium":                  "Belgium",
	"luxembourg":               "Luxembourg",
	"switzerland":              "Switzerland",
	"austria":                  "Austria",
	"ireland":                  "Ireland",
	"sweden":                   "Sweden",
	"norway":                   "Norway",
	"denmark":                  "Denmark",
	"finland":                  "Finland",
	"poland":                   "Poland",
	"czech republic":           "Czech Republic",
	"brazil":                   "Brazil",
	"mexico":                   "Mexico",
	"israel":                   "Israel",
	"uae":                      "United Arab Emirates",
	"united arab emirates":     "United Arab Emirates",
	"south africa":             "South Africa",
}

// usStates maps lowercase US state and territory names to USPS codes.
var usStates = map[string]string{
	"alabama":              "AL",
	"alaska":               "AK",
	"arizona":              "AZ",
	"arkansas":             "AR",
	"california":           "CA",
	"colorado":             "CO",
	"connecticut":          "CT",
	"delaware":             "DE",
	"florida":              "FL",
	"georgia":              "GA",
	"hawaii":               "HI",
	"idaho":                "ID",
	"illinois":             "IL",
	"indiana":              "IN",
	"iowa":                 "IA",
	"kansas":               "KS",
	"kentucky":             "KY",
	"louisiana":            "LA",
	"maine":                "ME",
	"maryland":             "MD",
	"massachusetts":        "MA",
	"michigan":             "MI",
	"minnesota":            "MN",
	"mississippi":          "MS",
	"missouri":             "MO",
	"montana":              "MT",
	"nebraska":             "NE",
	"nevada":               "NV",
	"new hampshire":        "NH",
	"new jersey":           "NJ",
	"new mexico":           "NM",
	"new york":             "NY",
	"north carolina":       "NC",
	"north dakota":         "ND",
	"ohio":                 "OH",
	"oklahoma":             "OK",
	"oregon":               "OR",
	"pennsylvania":         "PA",
	"rhode island":         "RI",
	"south carolina":       "SC",
	"south dakota":         "SD",
	"tennessee":            "TN",
	"texas":                "TX",
	"utah":                 "UT",
	"vermont":              "VT",
	"virginia":             "VA",
	"washington":           "WA",
	"west virginia":        "WV",
	"wisconsin":            "WI",
	"wyoming":              "WY",
	"district of columbia": "DC",
	"puerto rico":          "PR",
}

var usStateCodes = make(map[string]struct{}, len(usStates))

func init() {
	for _, code := range usStates {
		usStateCodes[code] = struct{}{}
	}
}

// postalPatterns match a full segment or token against supported postal code
// shapes: US ZIP / ZIP+4, UK, Canadian, and bare six-digit codes.
var postalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{5}(?:-\d{4})?$`),
	regexp.MustCompile(`(?i)^[A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2}$`),
	regexp.MustCompile(`(?i)^[A-Z]\d[A-Z]\s?\d[A-Z]\d$`),
	regexp.MustCompile(`^\d{6}$`),
}
