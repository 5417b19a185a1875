package adapter

import (
	"strings"

	"github.com/arguspanoptes/argus-server/internal/domain"
)

// NormalizeStatus maps a raw catalog status string onto the shared
// ItemStatus vocabulary. Matching is case-insensitive on substrings, with
// the checked-out negations ("not available", "checked out", a leading
// "due ...") tested before the availability phrases they would otherwise
// shadow. Anything unrecognized is unknown, never an error.
func NormalizeStatus(raw string) domain.ItemStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return domain.StatusUnknown
	}
	switch {
	case strings.HasPrefix(s, "due"),
		strings.Contains(s, "checked out"),
		strings.Contains(s, "in use"),
		strings.Contains(s, "not available"):
		return domain.StatusCheckedOut
	case strings.Contains(s, "available"),
		strings.Contains(s, "on shelf"),
		strings.Contains(s, "in library"),
		strings.Contains(s, "check shelf"),
		s == "in":
		return domain.StatusAvailable
	case strings.Contains(s, "transit"):
		return domain.StatusInTransit
	case strings.Contains(s, "hold"):
		return domain.StatusOnHold
	case strings.Contains(s, "order"):
		return domain.StatusOnOrder
	case strings.Contains(s, "processing"),
		strings.Contains(s, "cataloging"):
		return domain.StatusInProcessing
	case strings.Contains(s, "missing"),
		strings.Contains(s, "lost"),
		strings.Contains(s, "withdrawn"):
		return domain.StatusMissing
	default:
		return domain.StatusUnknown
	}
}

// kohaMaterials maps Koha item-type codes to material types.
var kohaMaterials = map[string]domain.MaterialType{
	"bk":  domain.MaterialBook,
	"lp":  domain.MaterialLargePrint,
	"cd":  domain.MaterialAudiobook,
	"dvd": domain.MaterialDVD,
}

// KohaMaterial maps a Koha itype code (952$y) onto a MaterialType.
func KohaMaterial(itype string) domain.MaterialType {
	code := strings.ToLower(strings.TrimSpace(itype))
	if m, ok := kohaMaterials[code]; ok {
		return m
	}
	if strings.Contains(code, "ebook") {
		return domain.MaterialEbook
	}
	return domain.MaterialUnknown
}

// NormalizeMaterial maps the free-text format strings the REST and HTML
// catalogs return onto a MaterialType.
func NormalizeMaterial(raw string) domain.MaterialType {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return domain.MaterialUnknown
	case strings.Contains(s, "large"):
		return domain.MaterialLargePrint
	case strings.Contains(s, "ebook"), strings.Contains(s, "electronic"):
		return domain.MaterialEbook
	case strings.Contains(s, "audio"), strings.Contains(s, "compact disc"):
		return domain.MaterialAudiobook
	case strings.Contains(s, "dvd"), strings.Contains(s, "video"):
		return domain.MaterialDVD
	case strings.Contains(s, "book"):
		return domain.MaterialBook
	default:
		return domain.MaterialUnknown
	}
}
