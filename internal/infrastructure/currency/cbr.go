package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCBRURL Markaziy bank (RF) kunlik kurslari
const DefaultCBRURL = "https://www.cbr-xml-daily.ru/daily_json.js"

const requestTimeout = 5 * time.Second

type cbrValute struct {
	CharCode string          `json:"CharCode"`
	Nominal  int             `json:"Nominal"`
	Value    decimal.Decimal `json:"Value"`
}

type cbrDaily struct {
	Date   string               `json:"Date"`
	Valute map[string]cbrValute `json:"Valute"`
}

// CBRClient fetches the CNY rate in rubles.
type CBRClient struct {
	url  string
	http *http.Client
}

func NewCBRClient(url string) *CBRClient {
	if url == "" {
		url = DefaultCBRURL
	}
	return &CBRClient{
		url:  url,
		http: &http.Client{Timeout: requestTimeout},
	}
}

// CNYToRUB rubles for one yuan (Value / Nominal).
func (c *CBRClient) CNYToRUB(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cbr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("cbr status %d", resp.StatusCode)
	}

	var daily cbrDaily
	if err := json.NewDecoder(resp.Body).Decode(&daily); err != nil {
		return decimal.Zero, fmt.Errorf("cbr decode: %w", err)
	}
	cny, ok := daily.Valute["CNY"]
	if !ok || !cny.Value.IsPositive() {
		return decimal.Zero, fmt.Errorf("cbr: CNY rate missing")
	}
	nominal := cny.Nominal
	if nominal <= 0 {
		nominal = 1
	}
	return cny.Value.Div(decimal.NewFromInt(int64(nominal))), nil
}
