// Package marc parses SRU searchRetrieve responses and the MARCXML records
// they carry. Both unprefixed and zs:-prefixed SRU envelopes are accepted.
package marc

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/arguspanoptes/argus-server/internal/errors"
)

// Record is one MARCXML bibliographic record.
type Record struct {
	Leader        string
	ControlFields []ControlField
	DataFields    []DataField
}

// ControlField is a 00X field with no indicators or subfields.
type ControlField struct {
	Tag   string
	Value string
}

// DataField is a numbered field with indicators and lettered subfields.
type DataField struct {
	Tag       string
	Ind1      string
	Ind2      string
	Subfields []Subfield
}

// Subfield is one code/value pair within a data field.
type Subfield struct {
	Code  string
	Value string
}

// Subfield returns the first subfield with the given code, or "".
func (f DataField) Subfield(code string) string {
	for _, sf := range f.Subfields {
		if sf.Code == code {
			return sf.Value
		}
	}
	return ""
}

// Fields returns every data field with the given tag.
func (r Record) Fields(tag string) []DataField {
	var out []DataField
	for _, f := range r.DataFields {
		if f.Tag == tag {
			out = append(out, f)
		}
	}
	return out
}

// ControlField returns the first control field with the given tag, or "".
func (r Record) ControlField(tag string) string {
	for _, f := range r.ControlFields {
		if f.Tag == tag {
			return f.Value
		}
	}
	return ""
}

// ParseSRUResponse decodes an SRU 1.1 searchRetrieve response and returns
// the MARC records it contains. Element name matching ignores namespace
// prefixes, so <zs:searchRetrieveResponse> and <searchRetrieveResponse>
// parse identically.
func ParseSRUResponse(body []byte) ([]Record, error) {
	dec := newDecoder(bytes.NewReader(body))

	var records []Record
	sawEnvelope := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeParse, "malformed SRU response")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "searchRetrieveResponse":
			sawEnvelope = true
		case "record":
			// SRU wraps each MARC record in its own <record> element
			// holding <recordData>; the MARC record element is also named
			// <record>. Only descend when we are inside the envelope.
			if !sawEnvelope {
				return nil, errors.Parse("record outside searchRetrieveResponse envelope")
			}
			rec, err := parseRecordElement(dec, start)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				records = append(records, *rec)
			}
		case "diagnostics":
			if msg := collectText(dec); msg != "" {
				return nil, errors.Parse("SRU diagnostic: " + msg)
			}
		}
	}
	if !sawEnvelope {
		return nil, errors.Parse("response is not an SRU searchRetrieveResponse")
	}
	return records, nil
}

// ParseRecord decodes a standalone MARCXML record.
func ParseRecord(body []byte) (Record, error) {
	dec := newDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return Record{}, errors.Parse("no MARC record element found")
		}
		if err != nil {
			return Record{}, errors.Wrap(err, errors.CodeParse, "malformed MARCXML")
		}
		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == "record" {
			rec, err := parseMARCRecord(dec, start)
			if err != nil {
				return Record{}, err
			}
			return rec, nil
		}
	}
}

// newDecoder builds an XML decoder hardened against entity expansion.
// Custom DTD entities are not resolved, which defeats XXE and billion-laughs
// payloads; only the predefined HTML entity set is honored.
func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	return dec
}

// parseRecordElement handles an SRU <record> wrapper. The MARC payload
// lives under <recordData>; some servers omit the wrapper and put MARC
// fields directly under <record>.
func parseRecordElement(dec *xml.Decoder, start xml.StartElement) (*Record, error) {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeParse, "truncated SRU record")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "record":
				// Inner MARC record.
				rec, err := parseMARCRecord(dec, t)
				if err != nil {
					return nil, err
				}
				if err := skipToEnd(dec, depth); err != nil {
					return nil, err
				}
				return &rec, nil
			case "leader", "controlfield", "datafield":
				// MARC fields directly under the SRU record element.
				rec, err := parseMARCRecordFrom(dec, t, start.Name.Local)
				if err != nil {
					return nil, err
				}
				return &rec, nil
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return nil, nil
}

// parseMARCRecord consumes a <record> element containing leader, control
// fields, and data fields.
func parseMARCRecord(dec *xml.Decoder, _ xml.StartElement) (Record, error) {
	var rec Record
	for {
		tok, err := dec.Token()
		if err != nil {
			return rec, errors.Wrap(err, errors.CodeParse, "truncated MARC record")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := parseMARCField(dec, t, &rec); err != nil {
				return rec, err
			}
		case xml.EndElement:
			if t.Name.Local == "record" {
				return rec, nil
			}
		}
	}
}

// parseMARCRecordFrom handles the first already-consumed field token and
// then the rest of the record, stopping at the named end element.
func parseMARCRecordFrom(dec *xml.Decoder, first xml.StartElement, endName string) (Record, error) {
	var rec Record
	if err := parseMARCField(dec, first, &rec); err != nil {
		return rec, err
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return rec, errors.Wrap(err, errors.CodeParse, "truncated MARC record")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := parseMARCField(dec, t, &rec); err != nil {
				return rec, err
			}
		case xml.EndElement:
			if t.Name.Local == endName {
				return rec, nil
			}
		}
	}
}

func parseMARCField(dec *xml.Decoder, start xml.StartElement, rec *Record) error {
	switch start.Name.Local {
	case "leader":
		rec.Leader = collectText(dec)
	case "controlfield":
		rec.ControlFields = append(rec.ControlFields, ControlField{
			Tag:   attr(start, "tag"),
			Value: collectText(dec),
		})
	case "datafield":
		df := DataField{
			Tag:  attr(start, "tag"),
			Ind1: attr(start, "ind1"),
			Ind2: attr(start, "ind2"),
		}
		for {
			tok, err := dec.Token()
			if err != nil {
				return errors.Wrap(err, errors.CodeParse, "truncated data field")
			}
			switch t := tok.(type) {
			case xml.StartElement:
				if t.Name.Local == "subfield" {
					df.Subfields = append(df.Subfields, Subfield{
						Code:  attr(t, "code"),
						Value: collectText(dec),
					})
				} else if err := dec.Skip(); err != nil {
					return errors.Wrap(err, errors.CodeParse, "malformed data field")
				}
			case xml.EndElement:
				if t.Name.Local == "datafield" {
					rec.DataFields = append(rec.DataFields, df)
					return nil
				}
			}
		}
	default:
		if err := dec.Skip(); err != nil {
			return errors.Wrap(err, errors.CodeParse, "malformed record element")
		}
	}
	return nil
}

// collectText gathers the character data of an element up to its end tag.
func collectText(dec *xml.Decoder) string {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			b.Write(t)
		}
	}
	return strings.TrimSpace(b.String())
}

// skipToEnd consumes tokens until the wrapper the caller entered is closed.
func skipToEnd(dec *xml.Decoder, depth int) error {
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, errors.CodeParse, "truncated SRU envelope")
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
