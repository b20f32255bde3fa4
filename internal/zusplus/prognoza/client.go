// Package prognoza is the client for the external pension projection
// service. The service owns all of the actuarial arithmetic; this package
// only assembles the request payload and decodes the returned figures. The
// wire contract is Polish-keyed JSON, matching the upstream API verbatim.
package prognoza

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Gender values accepted by the projection service.
const (
	GenderFemale = "kobieta"
	GenderMale   = "mezczyzna"
)

// ErrUpstream is returned for any non-2xx answer from the projection
// service. The status code rides along in the message.
var ErrUpstream = errors.New("prognoza: upstream error")

// Request is the employment profile the service consumes.
type Request struct {
	Gender          string   `json:"plec"` // "kobieta" or "mezczyzna"
	Age             int      `json:"wiek"`
	MonthlyIncome   float64  `json:"miesieczny_przychod"`
	CareerStartYear int      `json:"rok_rozpoczecia_kariery"`
	RetirementYear  int      `json:"rok_przejscia_na_emeryture"`
	ZUSBalance      *float64 `json:"saldo_zus,omitempty"`
	OFEBalance      *float64 `json:"saldo_ofe,omitempty"`
	PostalCode      string   `json:"kod_pocztowy,omitempty"`
	SickLeaveDays   *int     `json:"ilosc_dni_zwolnien,omitempty"`
	ExpectedPension *float64 `json:"oczekiwana_emerytura,omitempty"`
}

// Validate checks the fields the service would otherwise reject.
func (r Request) Validate() error {
	if r.Gender != GenderFemale && r.Gender != GenderMale {
		return fmt.Errorf("plec must be %q or %q", GenderFemale, GenderMale)
	}
	if r.Age <= 0 {
		return errors.New("wiek must be positive")
	}
	if r.MonthlyIncome <= 0 {
		return errors.New("miesieczny_przychod must be positive")
	}
	if r.RetirementYear <= r.CareerStartYear {
		return errors.New("rok_przejscia_na_emeryture must be after rok_rozpoczecia_kariery")
	}
	return nil
}

// Breakdown itemizes how the projection was computed.
type Breakdown struct {
	PensionBase            float64 `json:"podstawa_obliczenia_emerytury"`
	LifeExpectancyMonths   float64 `json:"srednie_dalsze_trwanie_zycia_miesiace"`
	EstimatedContributions float64 `json:"szacowana_suma_skladek"`
	InitialCapital         float64 `json:"kapital_poczatkowy"`
	IndexationCoefficient  float64 `json:"wspolczynnik_waloryzacji"`
	InflationCoefficient   float64 `json:"wspolczynnik_inflacji"`
	ContributionYears      float64 `json:"lata_skladkowe"`
	AvgMonthlyContribution float64 `json:"srednia_skladka_miesieczna"`
}

// Response is the projection returned by the service.
type Response struct {
	CurrentSalary      float64   `json:"aktualna_wyplata"`
	YearsToRetirement  float64   `json:"lata_do_emerytury"`
	NominalPension     float64   `json:"przyszla_emerytura_nominalna"`
	RealPension        float64   `json:"przyszla_emerytura_realna"`
	NationalAvgPension float64   `json:"srednia_krajowa_emerytura"`
	PercentDifference  float64   `json:"roznica_procent"`
	Breakdown          Breakdown `json:"szczegoly"`
	YearsLabel         string    `json:"ile_lat,omitempty"`
}

// Client talks to the projection service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a projection client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch posts the profile to /prognoza and decodes the projection.
func (c *Client) Fetch(ctx context.Context, request Request) (Response, error) {
	raw, err := c.post(ctx, "/prognoza", request)
	if err != nil {
		return Response{}, err
	}

	var projection Response
	if err := json.Unmarshal(raw, &projection); err != nil {
		return Response{}, fmt.Errorf("failed to decode projection: %w", err)
	}
	return projection, nil
}

// FetchChart posts the profile to /prognoza-wykres. The chart payload is the
// service's to shape, so it passes through undecoded.
func (c *Client) FetchChart(ctx context.Context, request Request) (json.RawMessage, error) {
	return c.post(ctx, "/prognoza-wykres", request)
}

func (c *Client) post(ctx context.Context, path string, request Request) (json.RawMessage, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach projection service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return raw, nil
}
