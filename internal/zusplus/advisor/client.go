// Package advisor calls the LLM gateway behind the dashboard's AI features:
// free-text retirement recommendations and a short-form chat assistant. The
// gateway speaks the OpenAI chat-completions shape; prompts and user-facing
// messages are Polish, matching the product.
package advisor

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

const (
	DefaultGatewayURL = "https://ai.gateway.lovable.dev"
	DefaultModel      = "google/gemini-2.5-flash"
)

var (
	// ErrNotConfigured means no gateway API key was provided. The advisor
	// features are simply unavailable in that deployment.
	ErrNotConfigured = errors.New("advisor: gateway API key is not configured")

	// ErrRateLimited maps the gateway's 429.
	ErrRateLimited = errors.New("Przekroczono limit zapytań. Spróbuj ponownie za chwilę.")

	// ErrPaymentRequired maps the gateway's 402.
	ErrPaymentRequired = errors.New("Wymagana płatność. Dodaj środki do swojego konta.")

	// ErrGateway covers every other gateway failure.
	ErrGateway = errors.New("advisor: gateway error")
)

// RetirementData is the flattened Polish-keyed context describing the
// user's situation, fed into the prompts.
type RetirementData struct {
	Age                float64 `json:"wiek"`
	Gender             string  `json:"plec"`
	RetirementAge      float64 `json:"wiek_przejscia_na_emeryture"`
	MonthlyIncome      float64 `json:"miesieczny_dochod"`
	YearsToRetirement  float64 `json:"lata_do_emerytury"`
	RealPension        float64 `json:"przyszla_emerytura_realna"`
	NationalAvgPension float64 `json:"srednia_krajowa_emerytura"`
	PercentDifference  float64 `json:"roznica_procent"`
	Status             string  `json:"status_pogody"`
}

// Client talks to the LLM gateway.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// NewClient creates a gateway client. It returns ErrNotConfigured when the
// key is empty so callers can degrade gracefully instead of failing later.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if baseURL == "" {
		baseURL = DefaultGatewayURL
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		Model:   DefaultModel,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Recommendations generates 3-5 actionable retirement recommendations,
// newline separated, sorted by estimated impact.
func (c *Client) Recommendations(ctx context.Context, data RetirementData) (string, error) {
	systemPrompt := fmt.Sprintf(`Jesteś ekspertem ds. emerytur i planowania finansowego. Analizujesz dane emerytalne użytkownika i generujesz 3-5 KONKRETNYCH rekomendacji.

DANE UŻYTKOWNIKA:
- Wiek: %.0f lat
- Płeć: %s
- Wiek emerytury: %.0f lat
- Miesięczny dochód: %.0f PLN
- Lata do emerytury: %.0f lat
- Przyszła emerytura: %.0f PLN/mies.
- Średnia krajowa: %.0f PLN/mies.
- Różnica vs średnia: %.1f%%
- Status: %s

ZASADY:
1. Generuj TYLKO rekomendacje, które FAKTYCZNIE mogą poprawić sytuację użytkownika
2. Każda rekomendacja MUSI zawierać:
   - Konkretną akcję (np. "Wydłuż pracę o 2 lata")
   - Oszacowany wpływ (np. "+300 zł/mies" lub "+8%%")
   - Ikona emoji na początku
3. Sortuj od największego do najmniejszego wpływu
4. Jeśli sytuacja jest bardzo dobra (znacznie powyżej średniej), zaproponuj optymalizacje podatkowe lub inwestycyjne
5. Jeśli sytuacja jest słaba, skup się na praktycznych działaniach: PPK, IKE, IKZE, wydłużenie pracy
6. MAX 5 rekomendacji, każda w osobnej linii
7. Format: "🎯 [Akcja] – [Wpływ]"

NIE używaj numeracji, tylko emoji i myślniki.`,
		data.Age, data.Gender, data.RetirementAge, data.MonthlyIncome,
		data.YearsToRetirement, data.RealPension, data.NationalAvgPension,
		data.PercentDifference, data.Status,
	)

	return c.complete(ctx, systemPrompt, "Wygeneruj rekomendacje dla tego użytkownika.")
}

// Chat answers a dashboard question in short-form Polish, grounded in the
// user's retirement data when available.
func (c *Client) Chat(ctx context.Context, message string, data *RetirementData) (string, error) {
	contextBlock := "Użytkownik nie ma jeszcze danych o emeryturze."
	if data != nil {
		contextBlock = fmt.Sprintf(`DANE UŻYTKOWNIKA:
- Wiek: %.0f lat
- Płeć: %s
- Wiek emerytury: %.0f lat
- Miesięczny dochód: %.0f PLN
- Lata do emerytury: %.0f lat

PROGNOZA:
- Przyszła emerytura: %.0f PLN/mies.
- Średnia krajowa: %.0f PLN/mies.
- Różnica: %.1f%%
- Status: %s`,
			data.Age, data.Gender, data.RetirementAge, data.MonthlyIncome,
			data.YearsToRetirement, data.RealPension, data.NationalAvgPension,
			data.PercentDifference, data.Status,
		)
	}

	systemPrompt := fmt.Sprintf(`Jesteś pomocnym asystentem AI w polskim panelu administracyjnym aplikacji emerytalnej.

ZASADY ODPOWIEDZI:
- Odpowiadaj KRÓTKO i ZWIĘŹLE (max 3-4 zdania)
- Używaj formatowania markdown: **pogrubienie** dla liczb i ważnych informacji
- Dziel dłuższe odpowiedzi na punkty lub krótkie akapity
- Skupiaj się na konkretach, unikaj długich wyjaśnień
- Używaj emoji dla lepszej czytelności (💰 📊 📈 ⚠️ ✅)

%s

Odpowiadaj zawsze po polsku, krótko i konkretnie.`, contextBlock)

	return c.complete(ctx, systemPrompt, message)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete performs one chat-completions round trip.
func (c *Client) complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach gateway: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	case http.StatusPaymentRequired:
		return "", ErrPaymentRequired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrGateway, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var completion completionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", fmt.Errorf("failed to decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrGateway)
	}
	return completion.Choices[0].Message.Content, nil
}
