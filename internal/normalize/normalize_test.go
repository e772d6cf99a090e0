package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/address-intel/internal/model"
)

func TestNormalizeMainStScenario(t *testing.T) {
	addr := Normalize("123 Main St, Springfield, IL 62704")

	assert.Equal(t, "123 Main Street", addr.Street)
	assert.Equal(t, "Springfield", addr.City)
	assert.Equal(t, "IL", addr.Region)
	assert.Equal(t, "62704", addr.PostalCode)
	assert.Empty(t, addr.Country)
	assert.Equal(t, "123 Main Street, Springfield, IL, 62704", addr.Formatted)
}

func TestNormalizeDeterministic(t *testing.T) {
	raw := "  456 Oak Ave,  Portland,   OR 97205, USA "
	first := Normalize(raw)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Normalize(raw))
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"123 Main St, Springfield, IL 62704",
		"456 Oak Ave, Portland, OR 97205, USA",
		"10 Downing Street, London SW1A 2AA, United Kingdom",
		"100 N 1st St, St. Louis, MO 63101",
		"123 King St W, Toronto, ON M5H 2N2, Canada",
		"Münchener Straße 5, München, Germany",
		"500 Congress Ave Austin Texas",
		"123 Main St Springfield IL 62704",
		"Paris, France",
		"just some descriptive text",
		"62704",
		"1 Infinite Loop, Cupertino, California 95014",
	}

	for _, raw := range inputs {
		once := Normalize(raw)
		again := Normalize(once.Formatted)
		assert.Equal(t, once, again, "input %q", raw)
	}
}

func TestNormalizeFormattedReconstructible(t *testing.T) {
	inputs := []string{
		"123 Main St, Springfield, IL 62704",
		"10 Downing Street, London SW1A 2AA, United Kingdom",
		"Paris, France",
		"plain text",
		"",
	}
	for _, raw := range inputs {
		addr := Normalize(raw)
		assert.Equal(t,
			FormatFields(addr.Street, addr.City, addr.Region, addr.PostalCode, addr.Country),
			addr.Formatted, "input %q", raw)
	}
}

func TestFormatFields(t *testing.T) {
	assert.Equal(t, "a, b, c, d, e", FormatFields("a", "b", "c", "d", "e"))
	assert.Equal(t, "a, c", FormatFields("a", "", "c", "", ""))
	assert.Equal(t, "", FormatFields("", "", "", "", ""))
	assert.NotContains(t, FormatFields("x", "", "", "y", ""), ", ,")
}

func TestNormalizeAbbreviations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"street", "10 Elm St, Springfield, IL 62704", "10 Elm Street"},
		{"street with period", "10 Elm St., Springfield, IL 62704", "10 Elm Street"},
		{"avenue", "22 5th Ave, New York, NY 10001", "22 5th Avenue"},
		{"road", "3 Mill Rd, Springfield, IL 62704", "3 Mill Road"},
		{"boulevard", "7 Sunset Blvd, Los Angeles, CA 90028", "7 Sunset Boulevard"},
		{"drive", "9 Lake Dr, Springfield, IL 62704", "9 Lake Drive"},
		{"suite", "1 Main St Ste 200, Springfield, IL 62704", "1 Main Street Suite 200"},
		{"floor", "1 Main St Fl 3, Springfield, IL 62704", "1 Main Street Floor 3"},
		{"parkway", "12 Corporate Pkwy, Springfield, IL 62704", "12 Corporate Parkway"},
		{"already expanded", "10 Elm Street, Springfield, IL 62704", "10 Elm Street"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw).Street)
		})
	}
}

func TestNormalizeCityNotExpanded(t *testing.T) {
	addr := Normalize("100 N 1st St, St. Louis, MO 63101")
	assert.Equal(t, "100 N 1st Street", addr.Street)
	assert.Equal(t, "St. Louis", addr.City)
	assert.Equal(t, "MO", addr.Region)
	assert.Equal(t, "63101", addr.PostalCode)
}

func TestNormalizeCountryCanonical(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"456 Oak Ave, Portland, OR 97205, USA", "United States"},
		{"456 Oak Ave, Portland, OR 97205, United States of America", "United States"},
		{"1 High St, Oxford OX1 4AJ, UK", "United Kingdom"},
		{"1 Rue de Rivoli, Paris, France", "France"},
		{"4 Nevsky Prospekt, Russia", "Russian Federation"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.raw).Country, tt.raw)
	}
}

func TestNormalizeRegionFullName(t *testing.T) {
	addr := Normalize("1 Infinite Loop, Cupertino, California 95014")
	assert.Equal(t, "1 Infinite Loop", addr.Street)
	assert.Equal(t, "Cupertino", addr.City)
	assert.Equal(t, "CA", addr.Region)
	assert.Equal(t, "95014", addr.PostalCode)

	addr = Normalize("500 Congress Ave, Austin, Texas")
	assert.Equal(t, "TX", addr.Region)
	assert.Equal(t, "Austin", addr.City)
	assert.Equal(t, "500 Congress Avenue", addr.Street)
}

func TestNormalizeUKPostcode(t *testing.T) {
	addr := Normalize("10 Downing Street, London SW1A 2AA, United Kingdom")
	assert.Equal(t, "10 Downing Street", addr.Street)
	assert.Equal(t, "London", addr.City)
	assert.Equal(t, "SW1A 2AA", addr.PostalCode)
	assert.Equal(t, "United Kingdom", addr.Country)
}

func TestNormalizeSixDigitPIN(t *testing.T) {
	addr := Normalize("12 MG Road, Bengaluru 560001, India")
	assert.Equal(t, "560001", addr.PostalCode)
	assert.Equal(t, "Bengaluru", addr.City)
	assert.Equal(t, "India", addr.Country)
}

func TestNormalizeNoCommas(t *testing.T) {
	addr := Normalize("123 Main St Springfield IL 62704")
	assert.Equal(t, "IL", addr.Region)
	assert.Equal(t, "62704", addr.PostalCode)
	assert.Equal(t, "123 Main Street Springfield", addr.Street)
}

func TestNormalizeWorstCaseStreetOnly(t *testing.T) {
	addr := Normalize("visit our beautiful offices downtown")
	assert.Equal(t, "visit our beautiful offices downtown", addr.Street)
	assert.Empty(t, addr.City)
	assert.Empty(t, addr.Region)
	assert.Empty(t, addr.PostalCode)
	assert.Empty(t, addr.Country)
	assert.Equal(t, addr.Street, addr.Formatted)
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Equal(t, model.Address{}, Normalize(""))
	assert.Equal(t, model.Address{}, Normalize("   \n\t  "))
	assert.Equal(t, model.Address{}, Normalize(",,, ;; --"))
}

func TestNormalizeTransliteration(t *testing.T) {
	addr := Normalize("Münchener Straße 5, München, Germany")
	assert.Equal(t, "Munchener Strasse 5", addr.Street)
	assert.Equal(t, "Munchen", addr.City)
	assert.Equal(t, "Germany", addr.Country)
}

func TestNormalizeNonBreakingSpace(t *testing.T) {
	addr := Normalize("123\u00a0Main St, Springfield, IL\u00a062704")
	assert.Equal(t, "123 Main Street", addr.Street)
	assert.Equal(t, "IL", addr.Region)
	assert.Equal(t, "62704", addr.PostalCode)
}

func TestClean(t *testing.T) {
	assert.Equal(t, "a b c", Clean("  a   b\n\tc  "))
	assert.Equal(t, "123 Main St", Clean(",123 Main St.;"))
	assert.Equal(t, "Cafe Zurich", Clean("Café Zürich"))
}

func TestTransliterate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Zürich", "Zurich"},
		{"Straße", "Strasse"},
		{"Ølgod", "Olgod"},
		{"Łódź", "Lodz"},
		{"Æblegade", "AEblegade"},
		{"café", "cafe"},
		{"plain ascii", "plain ascii"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Transliterate(tt.in), tt.in)
	}
}

func TestNormalizePreservesCase(t *testing.T) {
	addr := Normalize("123 Main St, Springfield, IL 62704")
	require.Equal(t, "Springfield", addr.City)
	assert.NotEqual(t, "SPRINGFIELD", addr.City)
}
