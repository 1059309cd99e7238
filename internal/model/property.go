package model

import (
	"strings"
)

// UnknownTransaction is used when a listing does not state whether it is for sale or rent.
const UnknownTransaction = "unknown"

// Text is an optional string. A zero Text is absent, which is distinct from a
// field that was found on the page but is blank.
type Text struct {
	Value string
	Valid bool
}

func Some(s string) Text { return Text{Value: s, Valid: true} }

// None returns an absent Text.
func None() Text { return Text{} }

// OrEmpty returns the value, or "" when absent.
func (t Text) OrEmpty() string {
	if !t.Valid {
		return ""
	}
	return t.Value
}

type Coordinates struct {
	Lat float64
	Lon float64
}

// Area is a numeric size parsed out of free-form characteristic text.
type Area struct {
	Value float64
	Unit  string
}

type PropertyRecord struct {
	URL             string // Primary key within a crawl
	Name            Text
	Description     Text
	Price           Text
	TransactionType string
	PropertyType    Text
	AreaText        Text   // Raw size text, e.g. "120 m²"
	Area            *Area  // Parsed from AreaText or other characteristics
	Address         map[string]string
	Amenities       []string
	Characteristics map[string]string
	Location        *Coordinates // nil until geocoded
}

// NewPropertyRecord returns a record with every optional field absent.
func NewPropertyRecord(url string) PropertyRecord {
	return PropertyRecord{
		URL:             url,
		TransactionType: UnknownTransaction,
		Address:         map[string]string{},
		Amenities:       []string{},
		Characteristics: map[string]string{},
	}
}

// GeocodeQuery joins the requested address fields into a lookup string.
// ok is false when none of the fields hold a value.
func (r *PropertyRecord) GeocodeQuery(fields []string) (string, bool) {
	var parts []string
	for _, f := range fields {
		if v := strings.TrimSpace(r.Address[NormalizeLabel(f)]); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, ", "), true
}

func (r *PropertyRecord) HasLocation() bool {
	return r.Location != nil
}

// NormalizeLabel turns a label such as "Zip/Postal Code:" into "zip/postal_code".
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	label = strings.TrimSuffix(label, ":")
	label = strings.ToLower(strings.TrimSpace(label))
	return strings.Join(strings.Fields(label), "_")
}
