package extract

import (
	"reflect"
	"testing"
)

const listingPage = `<html><body>
<div class="listing-view">
  <a class="btn btn-primary btn-item" href="https://example.test/property/one/">Details</a>
  <a class="btn btn-primary btn-item" href="/property/two/">Details</a>
  <a class="btn btn-primary btn-item" href="  ">Details</a>
  <a class="btn btn-item" href="/property/not-primary/">Details</a>
</div>
<ul class="pagination">
  <li><a class="page-link" href="https://example.test/listings/page/2/">2</a></li>
  <li><a class="page-link" href="https://example.test/listings/page/3/">3</a></li>
  <li><a class="page-link" data-houzepagi="7" href="https://example.test/listings/page/7/"><i class="icon"></i></a></li>
</ul>
</body></html>`

const detailPage = `<html><head>
<meta property="og:title" content=" Villa in Masaki ">
</head><body>
<ul><li class="item-price">TSh 450,000,000 - For Sale</li></ul>
<div class="property-description-wrap property-section-wrap">
  <div class="block-content-wrap"> Sea view villa. </div>
</div>
<div id="property-address-wrap"><ul>
  <li><strong>City</strong><span>Dar es Salaam</span></li>
  <li><strong>Zip/Postal Code:</strong><span>14111</span></li>
  <li><strong>Orphan label</strong></li>
  <li><span>Orphan value</span></li>
</ul></div>
<div class="detail-wrap"><ul>
  <li><strong>Property Type:</strong><span>Villa</span></li>
  <li><strong>Property Status:</strong><span>For Rent</span></li>
  <li><strong>Land Area:</strong><span>1,200.5 sqm</span></li>
  <li><strong>Bedrooms:</strong><span>4</span></li>
</ul></div>
<div id="property-features-wrap"><ul>
  <li><a>Swimming Pool</a></li>
  <li> </li>
  <li><a>Garden</a></li>
</ul></div>
</body></html>`

func TestListingURLs(t *testing.T) {
	doc, err := Parse([]byte(listingPage), "https://example.test/listings/page/1/")
	if err != nil {
		t.Fatal(err)
	}

	got := New(DefaultSelectors()).ListingURLs(doc)
	exp := []string{
		"https://example.test/property/one/",
		"https://example.test/property/two/",
	}
	if !reflect.DeepEqual(got, exp) {
		t.Fatalf("Got: %v, expected %v", got, exp)
	}
}

func TestListingURLsEmptyPage(t *testing.T) {
	doc, err := Parse([]byte(`<html><body><p>Nothing found</p></body></html>`), "https://example.test/")
	if err != nil {
		t.Fatal(err)
	}

	got := New(DefaultSelectors()).ListingURLs(doc)
	if got == nil || len(got) != 0 {
		t.Fatalf("Got: %#v, expected an empty non-nil slice", got)
	}
}

func TestLastPage(t *testing.T) {
	e := New(DefaultSelectors())

	doc, _ := Parse([]byte(listingPage), "https://example.test/listings/")
	last, ok := e.LastPage(doc)
	if !ok || last != 7 {
		t.Fatalf("Got: %v (%v), expected %v", last, ok, 7)
	}

	doc, _ = Parse([]byte(detailPage), "https://example.test/listings/")
	if _, ok := e.LastPage(doc); ok {
		t.Fatalf("Got a last page for a page without pagination")
	}
}

func TestRecordFullPage(t *testing.T) {
	doc, err := Parse([]byte(detailPage), "https://example.test/property/villa/")
	if err != nil {
		t.Fatal(err)
	}

	rec := New(DefaultSelectors()).Record(doc, "https://example.test/property/villa/")

	if rec.Name.OrEmpty() != "Villa in Masaki" {
		t.Errorf("Got name: %+v", rec.Name)
	}
	if rec.Description.OrEmpty() != "Sea view villa." {
		t.Errorf("Got description: %+v", rec.Description)
	}
	if rec.Price.OrEmpty() != "TSh 450,000,000" {
		t.Errorf("Got price: %+v", rec.Price)
	}
	// The characteristic wins over the composite price suffix.
	if rec.TransactionType != "For Rent" {
		t.Errorf("Got transaction type: %q", rec.TransactionType)
	}
	if rec.PropertyType.OrEmpty() != "Villa" {
		t.Errorf("Got property type: %+v", rec.PropertyType)
	}

	expAddr := map[string]string{"city": "Dar es Salaam", "zip/postal_code": "14111"}
	if !reflect.DeepEqual(rec.Address, expAddr) {
		t.Errorf("Got address: %v, expected %v", rec.Address, expAddr)
	}
	if len(rec.Characteristics) != 4 || rec.Characteristics["Bedrooms"] != "4" {
		t.Errorf("Got characteristics: %v", rec.Characteristics)
	}
	if exp := []string{"Swimming Pool", "Garden"}; !reflect.DeepEqual(rec.Amenities, exp) {
		t.Errorf("Got amenities: %v, expected %v", rec.Amenities, exp)
	}

	if rec.AreaText.Valid {
		t.Errorf("Got area text %+v, expected absent", rec.AreaText)
	}
	if rec.Area == nil || rec.Area.Value != 1200.5 || rec.Area.Unit != "m²" {
		t.Errorf("Got area: %+v", rec.Area)
	}
	if rec.HasLocation() {
		t.Errorf("Extraction must not set a location")
	}
}

func TestRecordMissingFields(t *testing.T) {
	page := `<html><head></head><body>
<ul><li class="item-price">$900/mo - For Rent</li></ul>
<div class="detail-wrap"><ul>
  <li><strong>Property Size:</strong><span>85 m²</span></li>
</ul></div>
</body></html>`
	doc, err := Parse([]byte(page), "https://example.test/p/2/")
	if err != nil {
		t.Fatal(err)
	}

	rec := New(DefaultSelectors()).Record(doc, "https://example.test/p/2/")

	if rec.Name.Valid || rec.Description.Valid || rec.PropertyType.Valid {
		t.Errorf("Got present fields that have no markup: %+v", rec)
	}
	if rec.Price.OrEmpty() != "$900/mo" {
		t.Errorf("Got price: %+v", rec.Price)
	}
	if rec.TransactionType != "For Rent" {
		t.Errorf("Got transaction type: %q", rec.TransactionType)
	}
	if rec.AreaText.OrEmpty() != "85 m²" || rec.Area == nil || rec.Area.Value != 85 {
		t.Errorf("Got area: %+v / %+v", rec.AreaText, rec.Area)
	}
	if len(rec.Address) != 0 || len(rec.Amenities) != 0 {
		t.Errorf("Got address %v and amenities %v, expected empty", rec.Address, rec.Amenities)
	}
	if rec.Address == nil || rec.Amenities == nil {
		t.Errorf("Missing containers should produce empty, non-nil collections")
	}
}

func TestRecordBlankVersusAbsent(t *testing.T) {
	doc, _ := Parse([]byte(`<html><body><li class="item-price">  </li></body></html>`), "u")

	rec := New(DefaultSelectors()).Record(doc, "u")
	if !rec.Price.Valid || rec.Price.Value != "" {
		t.Errorf("Got price %+v, expected present and blank", rec.Price)
	}
	if rec.TransactionType != "unknown" {
		t.Errorf("Got transaction type %q, expected unknown", rec.TransactionType)
	}
}

func TestRecordPriceRangeIsNotSplit(t *testing.T) {
	doc, _ := Parse([]byte(`<html><body><li class="item-price">TSh 1,000,000 - 2,000,000</li></body></html>`), "u")

	rec := New(DefaultSelectors()).Record(doc, "u")
	if rec.Price.OrEmpty() != "TSh 1,000,000 - 2,000,000" {
		t.Errorf("Got price %+v, expected the full range", rec.Price)
	}
	if rec.TransactionType != "unknown" {
		t.Errorf("Got transaction type %q, expected unknown", rec.TransactionType)
	}
}

func TestParseArea(t *testing.T) {
	tests := []struct {
		in    string
		value float64
		unit  string
		ok    bool
	}{
		{"120 m²", 120, "m²", true},
		{"Plot of 2,500sqft", 2500, "ft²", true},
		{"3 acres", 3, "acre", true},
		{"1.5 ha", 1.5, "ha", true},
		{"4 bedrooms", 0, "", false},
		{"10 hallways", 0, "", false},
	}
	for _, tt := range tests {
		got, ok := ParseArea(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseArea(%q) ok = %v, expected %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && (got.Value != tt.value || got.Unit != tt.unit) {
			t.Errorf("ParseArea(%q) = %+v, expected %v %v", tt.in, got, tt.value, tt.unit)
		}
	}
}
