// Package cep resolves Brazilian postal codes to street addresses through a
// ViaCEP-compatible API. Lookups are a convenience for the delivery form;
// failures surface as a reported error, never a retry loop, and the circuit
// breaker keeps a flapping upstream from slowing the form down.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/validate"
)

const DefaultBaseURL = "https://viacep.com.br"

var (
	ErrInvalidCEP = errors.New("cep must have 8 digits")
	ErrNotFound   = errors.New("cep not found")
)

// Address is the lookup result used to prefill the delivery form.
type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Address]
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	settings := gobreaker.Settings{
		Name:    "viacep",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// an unknown code is a valid upstream answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[*Address](settings),
	}
}

// Lookup resolves a postal code. ErrInvalidCEP and ErrNotFound are user-level
// outcomes; anything else is an upstream failure counted by the breaker.
func (c *Client) Lookup(ctx context.Context, code string) (*Address, error) {
	digits := validate.Digits(code)
	if len(digits) != 8 {
		return nil, ErrInvalidCEP
	}

	return c.breaker.Execute(func() (*Address, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/ws/%s/json/", c.baseURL, digits), nil)
		if err != nil {
			return nil, fmt.Errorf("build cep request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("cep lookup failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("cep lookup returned status %d", resp.StatusCode)
		}

		// ViaCEP answers 200 with {"erro": true} for unknown codes
		var payload struct {
			Address
			Erro bool `json:"erro"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode cep response: %w", err)
		}
		if payload.Erro {
			return nil, ErrNotFound
		}
		return &payload.Address, nil
	})
}
