package distance

import (
	"regexp"
	"strings"
)

// Polish "00-950" or US "85009" / "85009-1234".
var postalCodePattern = regexp.MustCompile(`\b(\d{2}-\d{3}|\d{5}(?:-\d{4})?)\b`)

// extractPostalCode returns the last postal code in an address, or "".
// The last match wins so a five-digit house number is not mistaken for a ZIP.
func extractPostalCode(address string) string {
	all := postalCodePattern.FindAllString(address, -1)
	if len(all) == 0 {
		return ""
	}
	return all[len(all)-1]
}

// extractLocality returns the first comma-separated part after the street with
// any postal code and state abbreviation removed, e.g. "Phoenix" from
// "1901 W Madison St, Phoenix, AZ 85009".
func extractLocality(address string) string {
	parts := strings.Split(address, ",")
	for _, p := range parts[1:] {
		p = strings.TrimSpace(postalCodePattern.ReplaceAllString(p, ""))
		if p == "" || isStateCode(p) {
			continue
		}
		return p
	}
	return ""
}

func isStateCode(s string) bool {
	return len(s) == 2 && strings.ToUpper(s) == s
}

func samePostalCode(want, got string) bool {
	if want == "" || got == "" {
		return false
	}
	// ZIP+4 and plain ZIP name the same area.
	if len(want) >= 5 && len(got) >= 5 && !strings.Contains(want[:5], "-") {
		return want[:5] == got[:5]
	}
	return want == got
}

func sameLocality(want, got string) bool {
	if want == "" || got == "" {
		return false
	}
	w, g := strings.ToLower(want), strings.ToLower(got)
	return strings.Contains(g, w) || strings.Contains(w, g)
}

// pickFeature prefers the candidate whose postal code matches the address,
// then one whose locality does, and otherwise keeps the first.
// features must not be empty.
func pickFeature(address string, features []geocodeFeature) geocodeFeature {
	if postal := extractPostalCode(address); postal != "" {
		for _, f := range features {
			if samePostalCode(postal, f.Properties.PostalCode) {
				return f
			}
		}
	}

	if locality := extractLocality(address); locality != "" {
		for _, f := range features {
			p := f.Properties
			for _, name := range []string{p.Locality, p.LocalAdmin, p.Borough, p.Neighbourhood} {
				if sameLocality(locality, name) {
					return f
				}
			}
		}
	}

	return features[0]
}
