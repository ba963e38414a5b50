// Package vies checks EU VAT numbers against the European Commission's
// VIES service, needed before invoicing an intra-community customer
// without VAT.
package vies

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/autonomo/api/internal/fiscal"
	"github.com/autonomo/api/internal/identity"
)

// DefaultEndpoint is the public VIES SOAP service.
const DefaultEndpoint = "https://ec.europa.eu/taxation_customs/vies/services/checkVatService"

var (
	ErrInvalidNumber = errors.New("vies: malformed vat number")
	// ErrUnavailable reports that VIES or the member state database is down.
	ErrUnavailable = errors.New("vies: service unavailable")
)

var vatNumberPattern = regexp.MustCompile(`^[A-Z]{2}[0-9A-Z+*]{2,12}$`)

const soapEnvelope = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"
                  xmlns:urn="urn:ec.europa.eu:taxud:vies:services:checkVat:types">
  <soapenv:Body>
    <urn:checkVat>
      <urn:countryCode>%s</urn:countryCode>
      <urn:vatNumber>%s</urn:vatNumber>
    </urn:checkVat>
  </soapenv:Body>
</soapenv:Envelope>`

type soapResponse struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		CheckVatResponse struct {
			CountryCode string `xml:"countryCode"`
			VATNumber   string `xml:"vatNumber"`
			RequestDate string `xml:"requestDate"`
			Valid       bool   `xml:"valid"`
			Name        string `xml:"name"`
			Address     string `xml:"address"`
		} `xml:"checkVatResponse"`
		Fault struct {
			String string `xml:"faultstring"`
		} `xml:"Fault"`
	} `xml:"Body"`
}

// Result is the outcome of a VIES check.
type Result struct {
	VATNumber   string    `json:"vat_number"`
	CountryCode string    `json:"country_code"`
	Valid       bool      `json:"valid"`
	Name        string    `json:"name,omitempty"`
	Address     string    `json:"address,omitempty"`
	CheckedAt   time.Time `json:"checked_at"`
	Cached      bool      `json:"cached"`
}

// Options configures a Client.
type Options struct {
	Endpoint string // defaults to DefaultEndpoint
	Timeout  time.Duration
	CacheTTL time.Duration
	Cache    Cache // defaults to an in-memory cache
}

// Client validates VAT numbers, caching answers for CacheTTL.
type Client struct {
	endpoint string
	client   *http.Client
	cache    Cache
	cacheTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewClient creates a new VIES client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Cache == nil {
		opts.Cache = NewMemoryCache()
	}
	return &Client{
		endpoint: opts.Endpoint,
		client:   &http.Client{Timeout: opts.Timeout},
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Check validates vatNumber, which carries its country prefix
// (e.g. "ESB12345674"). Spanish numbers must also pass the national
// tax ID check before VIES is asked.
func (c *Client) Check(ctx context.Context, vatNumber string) (Result, error) {
	cleaned := Sanitize(vatNumber)
	if !vatNumberPattern.MatchString(cleaned) {
		return Result{}, fiscal.NewFieldError("vat_number", vatNumber, ErrInvalidNumber)
	}
	country, number := cleaned[:2], cleaned[2:]
	if country == "ES" && !identity.ValidTaxID(number) {
		return Result{}, fiscal.NewFieldError("vat_number", vatNumber, ErrInvalidNumber)
	}

	if cached, ok := c.cache.Get(ctx, cleaned); ok {
		c.logger.Debug("VIES cache hit", "vat_number", cleaned, "valid", cached.Valid)
		cached.Cached = true
		return cached, nil
	}

	c.logger.Info("VIES live validation", "country", country, "number", number)

	result, err := c.call(ctx, country, number)
	if err != nil {
		return Result{}, fmt.Errorf("checking %s: %w", cleaned, err)
	}
	result.VATNumber = cleaned
	result.CountryCode = country
	result.CheckedAt = c.now().UTC()

	if c.cacheTTL > 0 {
		if err := c.cache.Put(ctx, result, result.CheckedAt.Add(c.cacheTTL)); err != nil {
			c.logger.Warn("failed to cache VIES result", "error", err, "vat_number", cleaned)
		}
	}

	return result, nil
}

func (c *Client) call(ctx context.Context, country, number string) (Result, error) {
	body := fmt.Sprintf(soapEnvelope, country, number)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("creating VIES request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("reading VIES response: %w", err)
	}

	var parsed soapResponse
	if err := xml.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Result{}, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
		}
		return Result{}, fmt.Errorf("parsing VIES response XML: %w", err)
	}

	if fault := parsed.Body.Fault.String; fault != "" {
		if fault == "INVALID_INPUT" {
			return Result{}, fiscal.NewFieldError("vat_number", country+number, ErrInvalidNumber)
		}
		return Result{}, fmt.Errorf("%w: %s", ErrUnavailable, fault)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	data := parsed.Body.CheckVatResponse
	return Result{
		Valid:   data.Valid,
		Name:    placeholder(data.Name),
		Address: placeholder(data.Address),
	}, nil
}

// Sanitize upper-cases a VAT number and strips separators.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		switch r {
		case ' ', '\t', '\n', '\r', '.', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// placeholder drops the "---" VIES returns for undisclosed fields.
func placeholder(s string) string {
	s = strings.TrimSpace(s)
	if s == "---" {
		return ""
	}
	return s
}
