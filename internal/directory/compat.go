package directory

import "fmt"

// Compatibility decides whether an affiliate's traffic can serve an
// advertiser.
type Compatibility string

const (
	// CompatIntersect matches when the affiliate shares any tag with the
	// advertiser.
	CompatIntersect Compatibility = "intersect"

	// CompatStrict matches single-type advertisers with affiliates carrying
	// that type, and multi-type advertisers only with affiliates carrying the
	// advertiser's last (secondary) type.
	CompatStrict Compatibility = "strict"
)

// ParseCompatibility validates a compatibility name.
func ParseCompatibility(s string) (Compatibility, error) {
	switch Compatibility(s) {
	case CompatIntersect, CompatStrict:
		return Compatibility(s), nil
	case "":
		return CompatIntersect, nil
	}
	return "", fmt.Errorf("unknown compatibility matrix %q", s)
}

// Compatible applies the matrix to an advertiser/affiliate tag pair.
func (c Compatibility) Compatible(advertiser, affiliate Tags) bool {
	if len(advertiser) == 0 || len(affiliate) == 0 {
		return false
	}
	switch c {
	case CompatStrict:
		if len(advertiser) == 1 {
			return affiliate.Has(advertiser[0])
		}
		return affiliate.Has(advertiser[len(advertiser)-1])
	default:
		return advertiser.Intersects(affiliate)
	}
}
