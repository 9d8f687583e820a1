package models

// StyleOther is the form choice that switches to a free-text style.
const StyleOther = "Other"

// PredefinedStyles is the selectable style list; StyleOther is always last.
var PredefinedStyles = []string{
	"Bollywood", "Bollywood Fusion", "Bollywood Street Jazz",
	"Bhangra", "Bhangra Fusion",
	"Bharatnatyam Fusion", "Semiclassical",
	"Garba-Raas Fusion",
	"Contemporary", "Hip Hop Fusion",
	"Heels", "Bolly Femme",
	"IMGE",
	StyleOther,
}

// LegendEntry maps style keywords to a legend colour.
type LegendEntry struct {
	Label    string   `json:"label"`
	Color    string   `json:"color"`
	Keywords []string `json:"keywords"`
}

// StyleCatalog is the payload of the styles endpoint.
type StyleCatalog struct {
	Predefined   []string          `json:"predefined"`
	Legend       []LegendEntry     `json:"legend"`
	CustomColors map[string]string `json:"customColors"`
}

// RegionFilters lists the filter choices available for a region.
type RegionFilters struct {
	Region   string       `json:"region"`
	Teachers []string     `json:"teachers"`
	Styles   []StyleColor `json:"styles"`
}

// StyleColor pairs a style with its legend colour.
type StyleColor struct {
	Style string `json:"style"`
	Color string `json:"color"`
}
