package parse

import (
	"encoding/json"
	"strconv"
	"strings"
)

// jobPosting is the typed decode target for a schema.org JobPosting block.
// Every polymorphic field degrades to its zero value on a shape mismatch so
// malformed structured data never aborts parsing.
type jobPosting struct {
	Title              flexString `json:"title"`
	HiringOrganization hiringOrg  `json:"hiringOrganization"`
	JobLocation        locations  `json:"jobLocation"`
	BaseSalary         baseSalary `json:"baseSalary"`
	Description        flexString `json:"description"`
}

// typeField accepts "@type" as either a string or an array of strings.
type typeField []string

func (t *typeField) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = typeField{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*t = typeField(many)
	}
	return nil
}

func (t typeField) isJobPosting() bool {
	for _, v := range t {
		if v == "JobPosting" {
			return true
		}
	}
	return false
}

// flexString accepts a JSON string or number and stores its text form.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
	}
	return nil
}

func (f flexString) trimmed() string {
	return strings.TrimSpace(string(f))
}

// hiringOrg accepts an Organization object or a bare company-name string.
type hiringOrg struct {
	Name string
}

func (h *hiringOrg) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		h.Name = bare
		return nil
	}
	var obj struct {
		Name flexString `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		h.Name = string(obj.Name)
	}
	return nil
}

// place is a schema.org Place with a structured postal address.
type place struct {
	Address struct {
		Locality flexString `json:"addressLocality"`
		Region   flexString `json:"addressRegion"`
		Country  flexString `json:"addressCountry"`
	} `json:"address"`
}

// text joins locality, region, and country with ", ", skipping blanks.
func (p place) text() string {
	parts := make([]string, 0, 3)
	for _, v := range []flexString{p.Address.Locality, p.Address.Region, p.Address.Country} {
		if s := v.trimmed(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// locations accepts a single Place, an array of Places, or a bare string.
type locations struct {
	text string
}

func (l *locations) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		l.text = strings.TrimSpace(bare)
		return nil
	}
	var one place
	if err := json.Unmarshal(data, &one); err == nil {
		if t := one.text(); t != "" {
			l.text = t
			return nil
		}
	}
	var many []place
	if err := json.Unmarshal(data, &many); err == nil {
		parts := make([]string, 0, len(many))
		for _, p := range many {
			if t := p.text(); t != "" {
				parts = append(parts, t)
			}
		}
		l.text = strings.Join(parts, "; ")
	}
	return nil
}

// salaryValue accepts a QuantitativeValue object or a bare number.
type salaryValue struct {
	Min    *float64
	Max    *float64
	Single *float64
	Unit   string
}

func (v *salaryValue) UnmarshalJSON(data []byte) error {
	var bare float64
	if err := json.Unmarshal(data, &bare); err == nil {
		v.Single = &bare
		return nil
	}
	var obj struct {
		MinValue *float64   `json:"minValue"`
		MaxValue *float64   `json:"maxValue"`
		UnitText flexString `json:"unitText"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		v.Min = obj.MinValue
		v.Max = obj.MaxValue
		v.Unit = obj.UnitText.trimmed()
	}
	return nil
}

// baseSalary is a schema.org MonetaryAmount.
type baseSalary struct {
	Currency flexString  `json:"currency"`
	Value    salaryValue `json:"value"`
}

// text formats the amount as "{currency} {min} - {max} / {unit}", degrading
// gracefully when only one bound or a bare number is present.
func (b baseSalary) text() string {
	currency := b.Currency.trimmed()
	unit := b.Value.Unit
	if unit == "" {
		unit = "YEAR"
	}
	switch {
	case b.Value.Min != nil && b.Value.Max != nil:
		return strings.TrimSpace(currency + " " + groupDigits(*b.Value.Min) + " - " + groupDigits(*b.Value.Max) + " / " + unit)
	case b.Value.Min != nil:
		return strings.TrimSpace(currency + " " + groupDigits(*b.Value.Min) + " / " + unit)
	case b.Value.Single != nil:
		return strings.TrimSpace(currency + " " + groupDigits(*b.Value.Single))
	default:
		return ""
	}
}

// findJobPosting scans a JSON-LD payload for a JobPosting node, looking
// through top-level arrays and @graph containers.
func findJobPosting(raw []byte) (*jobPosting, bool) {
	var nodes []json.RawMessage
	if err := json.Unmarshal(raw, &nodes); err != nil {
		nodes = []json.RawMessage{json.RawMessage(raw)}
	}
	for _, node := range nodes {
		if jp, ok := decodeNode(node); ok {
			return jp, true
		}
	}
	return nil, false
}

func decodeNode(node json.RawMessage) (*jobPosting, bool) {
	var envelope struct {
		Type  typeField         `json:"@type"`
		Graph []json.RawMessage `json:"@graph"`
	}
	if err := json.Unmarshal(node, &envelope); err != nil {
		return nil, false
	}
	if envelope.Type.isJobPosting() {
		var jp jobPosting
		if err := json.Unmarshal(node, &jp); err != nil {
			return nil, false
		}
		return &jp, true
	}
	for _, item := range envelope.Graph {
		var itemType struct {
			Type typeField `json:"@type"`
		}
		if err := json.Unmarshal(item, &itemType); err != nil {
			continue
		}
		if !itemType.Type.isJobPosting() {
			continue
		}
		var jp jobPosting
		if err := json.Unmarshal(item, &jp); err != nil {
			continue
		}
		return &jp, true
	}
	return nil, false
}

// groupDigits renders a number with thousands separators; fractional parts
// are kept only when present.
func groupDigits(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
