package models

import "strings"

// Region identifiers. Records without a region belong to RegionNYC.
const (
	RegionNYC     = "nyc"
	RegionBayArea = "bayarea"
)

// Regions lists the closed set of supported regions.
var Regions = []string{RegionNYC, RegionBayArea}

// NormalizeRegion maps an empty or unknown region to the primary region.
func NormalizeRegion(region string) string {
	region = strings.ToLower(strings.TrimSpace(region))
	for _, r := range Regions {
		if r == region {
			return r
		}
	}
	return RegionNYC
}

// ClassRecord is a scheduled dance class in the committed collection.
type ClassRecord struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Teacher          string `json:"teacher"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	Duration         *int   `json:"duration,omitempty"`
	Style            string `json:"style,omitempty"`
	Level            string `json:"level,omitempty"`
	Location         string `json:"location,omitempty"`
	TicketLink       string `json:"ticketLink,omitempty"`
	TeacherBioURL    string `json:"teacherBioUrl,omitempty"`
	TeacherInstagram string `json:"teacherInstagram,omitempty"`
	Region           string `json:"region,omitempty"`
	SoldOut          bool   `json:"soldOut,omitempty"`
	OnSale           bool   `json:"onSale,omitempty"`
	BundleAvailable  bool   `json:"bundleAvailable,omitempty"`
}

// EffectiveRegion returns the record's region, defaulting to the primary region.
func (c ClassRecord) EffectiveRegion() string {
	return NormalizeRegion(c.Region)
}

// Equal reports full field equality.
func (c ClassRecord) Equal(other ClassRecord) bool {
	if (c.Duration == nil) != (other.Duration == nil) {
		return false
	}
	if c.Duration != nil && *c.Duration != *other.Duration {
		return false
	}
	a, b := c, other
	a.Duration, b.Duration = nil, nil
	return a == b
}

// Clone returns a deep copy.
func (c ClassRecord) Clone() ClassRecord {
	if c.Duration != nil {
		d := *c.Duration
		c.Duration = &d
	}
	return c
}

// CloneClasses deep-copies a committed collection.
func CloneClasses(classes []ClassRecord) []ClassRecord {
	out := make([]ClassRecord, len(classes))
	for i, c := range classes {
		out[i] = c.Clone()
	}
	return out
}

// IndexOfClass returns the position of the record with the given id or -1.
func IndexOfClass(classes []ClassRecord, id string) int {
	for i := range classes {
		if classes[i].ID == id {
			return i
		}
	}
	return -1
}

// ClassFilter narrows schedule listings.
type ClassFilter struct {
	Region   string
	Teachers []string
	Styles   []string
	From     string
	To       string
}
