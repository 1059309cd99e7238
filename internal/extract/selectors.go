package extract

// Selectors holds the site-specific CSS selectors used by the Extractor.
// The defaults target the Houzez WordPress theme used by the beforward.jp
// real-estate sites.
type Selectors struct {
	ListingLink string `yaml:"listing_link"`

	// LastPage matches pagination links. The largest page number found in
	// their text, href or LastPageAttr is taken as the page count.
	LastPage     string `yaml:"last_page"`
	LastPageAttr string `yaml:"last_page_attr"`

	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`

	// PriceTypeDelimiter splits a composite "price - type" string.
	PriceTypeDelimiter string `yaml:"price_type_delimiter"`

	AddressItems        string `yaml:"address_items"`
	CharacteristicItems string `yaml:"characteristic_items"`
	AmenityItems        string `yaml:"amenity_items"`
	ItemLabel           string `yaml:"item_label"`
	ItemValue           string `yaml:"item_value"`

	TransactionTypeLabel string `yaml:"transaction_type_label"`
	PropertyTypeLabel    string `yaml:"property_type_label"`
	AreaLabel            string `yaml:"area_label"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		ListingLink:          "a.btn.btn-primary.btn-item",
		LastPage:             "ul.pagination a.page-link",
		LastPageAttr:         "data-houzepagi",
		Title:                "meta[property='og:title']",
		Description:          "div.property-description-wrap.property-section-wrap div.block-content-wrap",
		Price:                "li.item-price",
		PriceTypeDelimiter:   " - ",
		AddressItems:         "div#property-address-wrap li",
		CharacteristicItems:  "div.detail-wrap li",
		AmenityItems:         "div#property-features-wrap li",
		ItemLabel:            "strong",
		ItemValue:            "span",
		TransactionTypeLabel: "Property Status",
		PropertyTypeLabel:    "Property Type",
		AreaLabel:            "Property Size",
	}
}

// WithDefaults fills every empty selector from DefaultSelectors.
func (s Selectors) WithDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.ListingLink, d.ListingLink)
	fill(&s.LastPage, d.LastPage)
	fill(&s.LastPageAttr, d.LastPageAttr)
	fill(&s.Title, d.Title)
	fill(&s.Description, d.Description)
	fill(&s.Price, d.Price)
	fill(&s.PriceTypeDelimiter, d.PriceTypeDelimiter)
	fill(&s.AddressItems, d.AddressItems)
	fill(&s.CharacteristicItems, d.CharacteristicItems)
	fill(&s.AmenityItems, d.AmenityItems)
	fill(&s.ItemLabel, d.ItemLabel)
	fill(&s.ItemValue, d.ItemValue)
	fill(&s.TransactionTypeLabel, d.TransactionTypeLabel)
	fill(&s.PropertyTypeLabel, d.PropertyTypeLabel)
	fill(&s.AreaLabel, d.AreaLabel)
	return s
}
