package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shanehull/estatecrawler/internal/model"
)

var areaRe = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*(m²|ft²|sq\.?\s?ft|sqft|sqm|m2|acres?|ha)(?:[^a-z]|$)`)

type labeledValue struct {
	label string
	value string
}

// Record extracts a property record from a detail page. Every field is best
// effort: missing markup leaves the field absent and never aborts extraction.
func (e *Extractor) Record(doc *goquery.Document, url string) model.PropertyRecord {
	rec := model.NewPropertyRecord(url)

	if content, ok := doc.Find(e.sel.Title).First().Attr("content"); ok {
		rec.Name = model.Some(strings.TrimSpace(content))
	}
	rec.Description = textOf(doc.Find(e.sel.Description))

	chars := e.pairs(doc.Find(e.sel.CharacteristicItems))
	for _, kv := range chars {
		rec.Characteristics[kv.label] = kv.value
	}

	var compositeType string
	if price := textOf(doc.Find(e.sel.Price)); price.Valid {
		// A numeric suffix is the upper bound of a price range, not a type.
		if before, after, found := strings.Cut(price.Value, e.sel.PriceTypeDelimiter); found && !strings.ContainsAny(after, "0123456789") {
			price = model.Some(strings.TrimSpace(before))
			compositeType = strings.TrimSpace(after)
		}
		rec.Price = price
	}

	if v, ok := rec.Characteristics[e.sel.TransactionTypeLabel]; ok && v != "" {
		rec.TransactionType = v
	} else if compositeType != "" {
		rec.TransactionType = compositeType
	}
	if v, ok := rec.Characteristics[e.sel.PropertyTypeLabel]; ok {
		rec.PropertyType = model.Some(v)
	}
	if v, ok := rec.Characteristics[e.sel.AreaLabel]; ok {
		rec.AreaText = model.Some(v)
	}
	rec.Area = e.area(rec.AreaText, chars)

	for _, kv := range e.pairs(doc.Find(e.sel.AddressItems)) {
		rec.Address[model.NormalizeLabel(kv.label)] = kv.value
	}

	doc.Find(e.sel.AmenityItems).Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			rec.Amenities = append(rec.Amenities, t)
		}
	})

	return rec
}

// pairs reads label/value pairs from list items, skipping items missing either part.
func (e *Extractor) pairs(items *goquery.Selection) []labeledValue {
	var out []labeledValue
	items.Each(func(_ int, li *goquery.Selection) {
		label := li.Find(e.sel.ItemLabel).First()
		value := li.Find(e.sel.ItemValue).First()
		if label.Length() == 0 || value.Length() == 0 {
			return
		}
		l := strings.TrimSuffix(strings.TrimSpace(label.Text()), ":")
		l = strings.TrimSpace(l)
		if l == "" {
			return
		}
		out = append(out, labeledValue{label: l, value: strings.TrimSpace(value.Text())})
	})
	return out
}

// area scans the size field first, then the remaining characteristics in page order.
func (e *Extractor) area(sizeText model.Text, chars []labeledValue) *model.Area {
	texts := []string{}
	if sizeText.Valid {
		texts = append(texts, sizeText.Value)
	}
	for _, kv := range chars {
		if kv.label != e.sel.AreaLabel {
			texts = append(texts, kv.value)
		}
	}
	for _, t := range texts {
		if a, ok := ParseArea(t); ok {
			return &a
		}
	}
	return nil
}

// ParseArea finds the first "<digits><unit>" occurrence in s.
func ParseArea(s string) (model.Area, bool) {
	m := areaRe.FindStringSubmatch(s)
	if m == nil {
		return model.Area{}, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return model.Area{}, false
	}
	return model.Area{Value: v, Unit: normalizeUnit(m[2])}, true
}

func normalizeUnit(u string) string {
	u = strings.ToLower(u)
	switch {
	case u == "m²" || u == "m2" || u == "sqm":
		return "m²"
	case u == "ft²" || strings.HasPrefix(u, "sq"):
		return "ft²"
	case strings.HasPrefix(u, "acre"):
		return "acre"
	default:
		return u
	}
}

func textOf(s *goquery.Selection) model.Text {
	if s.Length() == 0 {
		return model.None()
	}
	return model.Some(strings.TrimSpace(s.First().Text()))
}
