package vies

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/autonomo/api/internal/fiscal"
)

const validResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <checkVatResponse xmlns="urn:ec.europa.eu:taxud:vies:services:checkVat:types">
      <countryCode>ES</countryCode>
      <vatNumber>B12345674</vatNumber>
      <requestDate>2025-02-14+01:00</requestDate>
      <valid>true</valid>
      <name>Estudio Norte S.L.</name>
      <address>Calle Mayor 1, Madrid</address>
    </checkVatResponse>
  </soap:Body>
</soap:Envelope>`

const faultResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>%s</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Options{Endpoint: srv.URL, Timeout: time.Second, CacheTTL: time.Hour}, nil)
	return c, &calls
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"DE123456789", "DE123456789"},
		{"de123456789", "DE123456789"},
		{"DE 123 456 789", "DE123456789"},
		{"DE\t123\n456\r789", "DE123456789"},
		{"ES.B.12345674", "ESB12345674"},
		{" es-b1234 5674 ", "ESB12345674"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.input); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCheck_Valid(t *testing.T) {
	var sent string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		sent = string(b)
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(validResponse))
	})

	res, err := c.Check(context.Background(), "es b1234567-4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Valid {
		t.Error("expected Valid=true")
	}
	if res.VATNumber != "ESB12345674" || res.CountryCode != "ES" {
		t.Errorf("unexpected number %q / %q", res.VATNumber, res.CountryCode)
	}
	if res.Name != "Estudio Norte S.L." {
		t.Errorf("Name: got %q", res.Name)
	}
	if res.Cached {
		t.Error("first answer should not come from cache")
	}
	if res.CheckedAt.IsZero() {
		t.Error("expected CheckedAt to be set")
	}
	if !strings.Contains(sent, "<urn:countryCode>ES</urn:countryCode>") ||
		!strings.Contains(sent, "<urn:vatNumber>B12345674</urn:vatNumber>") {
		t.Errorf("unexpected SOAP body: %s", sent)
	}
}

func TestCheck_UsesCache(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validResponse))
	})

	for range 3 {
		if _, err := c.Check(context.Background(), "ESB12345674"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 VIES call, got %d", calls.Load())
	}

	res, _ := c.Check(context.Background(), "ESB12345674")
	if !res.Cached {
		t.Error("expected cached answer")
	}
}

func TestCheck_InvalidNumberNeverCallsVIES(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validResponse))
	})

	for _, in := range []string{"", "E", "12345678Z", "ES12345678A", "ES!!"} {
		_, err := c.Check(context.Background(), in)
		if !errors.Is(err, ErrInvalidNumber) {
			t.Errorf("%q: expected ErrInvalidNumber, got %v", in, err)
		}
		if fiscal.FieldOf(err) != "vat_number" {
			t.Errorf("%q: expected field vat_number, got %q", in, fiscal.FieldOf(err))
		}
	}
	if calls.Load() != 0 {
		t.Errorf("expected no VIES calls, got %d", calls.Load())
	}
}

func TestCheck_Faults(t *testing.T) {
	tests := []struct {
		fault string
		want  error
	}{
		{"MS_UNAVAILABLE", ErrUnavailable},
		{"SERVICE_UNAVAILABLE", ErrUnavailable},
		{"INVALID_INPUT", ErrInvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.fault, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(strings.Replace(faultResponse, "%s", tt.fault, 1)))
			})

			_, err := c.Check(context.Background(), "DE123456789")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCheck_HTTPErrorIsUnavailable(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	})

	_, err := c.Check(context.Background(), "DE123456789")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestCheck_UndisclosedFieldsAreEmpty(t *testing.T) {
	body := strings.NewReplacer(
		"Estudio Norte S.L.", "---",
		"Calle Mayor 1, Madrid", "---",
		"<valid>true</valid>", "<valid>false</valid>",
	).Replace(validResponse)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	res, err := c.Check(context.Background(), "DE123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Valid || res.Name != "" || res.Address != "" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestParseResponse_MalformedXML(t *testing.T) {
	var resp soapResponse
	if err := xml.Unmarshal([]byte(`<not>valid</xml`), &resp); err == nil {
		t.Fatal("expected error for malformed XML, got nil")
	}
}
