package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

const sampleDocument = `{"description": { "participantInn": "string" },
 "doc_id": "string", "doc_status": "string", "doc_type": "LP_INTRODUCE_GOODS",
 "importRequest": true, "owner_inn": "string", "participant_inn": "string",
 "producer_inn":"string", "production_date": "2020-01-23", "production_type": "string",
 "products": [ { "certificate_document": "string", "certificate_document_date": "2020-01-23",
 "certificate_document_number": "string", "owner_inn": "string", "producer_inn": "string",
 "production_date": "2020-01-23", "tnved_code": "string", "uit_code": "string", "uitu_code": "string" } ],
 "reg_date": "2020-01-23", "reg_number": "string"}`

func TestDocument_DecodesSamplePayload(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(sampleDocument), &doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.DocType != DocTypeIntroduceGoods {
		t.Fatalf("expected doc_type %q, got %q", DocTypeIntroduceGoods, doc.DocType)
	}
	if !doc.ImportRequest {
		t.Fatalf("expected importRequest=true")
	}
	if doc.Description == nil || doc.Description.ParticipantInn != "string" {
		t.Fatalf("expected description.participantInn to be decoded, got %+v", doc.Description)
	}
	if len(doc.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(doc.Products))
	}
	want := NewDate(2020, time.January, 23)
	if !doc.ProductionDate.Equal(want.Time) {
		t.Fatalf("expected production_date %s, got %s", want, doc.ProductionDate)
	}
	if !doc.Products[0].CertificateDocumentDate.Equal(want.Time) {
		t.Fatalf("expected certificate_document_date %s, got %s", want, doc.Products[0].CertificateDocumentDate)
	}
}

func TestDocument_EncodesWireNames(t *testing.T) {
	doc := Document{
		DocID:          "42",
		DocType:        DocTypeIntroduceGoods,
		ImportRequest:  true,
		ProductionDate: NewDate(2024, time.March, 5),
		Products:       []Product{{UitCode: "u1"}},
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(raw)

	for _, want := range []string{
		`"doc_id":"42"`,
		`"importRequest":true`,
		`"production_date":"2024-03-05"`,
		`"reg_date":null`,
		`"uit_code":"u1"`,
		`"certificate_document_date":null`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
	if strings.Contains(out, `"description"`) {
		t.Fatalf("expected nil description to be omitted, got %s", out)
	}
}

func TestDate_UnmarshalRejectsBadInput(t *testing.T) {
	cases := []string{`"2020-13-01"`, `20200123`, `"23.01.2020"`}
	for _, c := range cases {
		var d Date
		if err := json.Unmarshal([]byte(c), &d); err == nil {
			t.Fatalf("expected error for %s", c)
		}
	}
}

func TestDate_UnmarshalNullAndEmpty(t *testing.T) {
	for _, c := range []string{`null`, `""`} {
		d := NewDate(2020, time.January, 1)
		if err := json.Unmarshal([]byte(c), &d); err != nil {
			t.Fatalf("unexpected error for %s: %v", c, err)
		}
		if !d.IsZero() {
			t.Fatalf("expected zero date for %s, got %s", c, d)
		}
	}
}
