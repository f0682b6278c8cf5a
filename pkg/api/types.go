// Package api holds the JSON wire types of the OmniPizza HTTP API. They are
// shared by the server and the Go client.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Username    string    `json:"username"`
	Behavior    string    `json:"behavior"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type UserProfile struct {
	Username    string `json:"username"`
	Behavior    string `json:"behavior"`
	Description string `json:"description"`
}

type CountryInfo struct {
	Code           string   `json:"code"`
	Currency       string   `json:"currency"`
	CurrencySymbol string   `json:"currency_symbol"`
	RequiredFields []string `json:"required_fields"`
	OptionalFields []string `json:"optional_fields"`
	TaxRate        Amount   `json:"tax_rate"`
	Languages      []string `json:"languages"`
	DecimalPlaces  int32    `json:"decimal_places"`
}

type Pizza struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Price          Amount `json:"price"`
	BasePrice      Amount `json:"base_price"`
	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currency_symbol"`
	Image          string `json:"image"`
	Language       string `json:"language"`
}

type PizzaResponse struct {
	Pizzas      []Pizza `json:"pizzas"`
	CountryCode string  `json:"country_code"`
	Currency    string  `json:"currency"`
	Language    string  `json:"language"`
}

type CartItem struct {
	PizzaID  string `json:"pizza_id"`
	Quantity int    `json:"quantity"`
}

type QuoteRequest struct {
	CountryCode string           `json:"country_code"`
	Items       []CartItem       `json:"items"`
	Tip         *decimal.Decimal `json:"tip,omitempty"`
}

type QuoteResponse struct {
	CountryCode    string `json:"country_code"`
	Subtotal       Amount `json:"subtotal"`
	Tax            Amount `json:"tax"`
	Tip            Amount `json:"tip"`
	Total          Amount `json:"total"`
	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currency_symbol"`
}

// CheckoutRequest carries the common contact fields plus the fields of every
// supported country. Only the ones the selected country declares are used.
type CheckoutRequest struct {
	CountryCode string     `json:"country_code"`
	Items       []CartItem `json:"items"`

	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`

	Colonia    string           `json:"colonia,omitempty"`
	Propina    *decimal.Decimal `json:"propina,omitempty"`
	ZipCode    string           `json:"zip_code,omitempty"`
	Plz        string           `json:"plz,omitempty"`
	Prefectura string           `json:"prefectura,omitempty"`

	// Tip is accepted for any country; Propina wins when both are set.
	Tip *decimal.Decimal `json:"tip,omitempty"`
	// Fields carries extension fields declared by custom fixture countries.
	Fields map[string]string `json:"fields,omitempty"`
}

type OrderSummary struct {
	OrderID        string     `json:"order_id"`
	Subtotal       Amount     `json:"subtotal"`
	Tax            Amount     `json:"tax"`
	Tip            Amount     `json:"tip"`
	Total          Amount     `json:"total"`
	Currency       string     `json:"currency"`
	CurrencySymbol string     `json:"currency_symbol"`
	Items          []CartItem `json:"items"`
	Timestamp      time.Time  `json:"timestamp"`
}

type Order struct {
	OrderID        string            `json:"order_id"`
	Username       string            `json:"username"`
	CountryCode    string            `json:"country_code"`
	Items          []CartItem        `json:"items"`
	CustomerInfo   map[string]string `json:"customer_info"`
	Subtotal       Amount            `json:"subtotal"`
	Tax            Amount            `json:"tax"`
	Tip            Amount            `json:"tip"`
	Total          Amount            `json:"total"`
	Currency       string            `json:"currency"`
	CurrencySymbol string            `json:"currency_symbol"`
	Status         string            `json:"status"`
	Timestamp      time.Time         `json:"timestamp"`
}

type OrdersResponse struct {
	Orders []Order `json:"orders"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error      string    `json:"error"`
	Message    string    `json:"message"`
	Field      string    `json:"field,omitempty"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

type ServiceInfo struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Health  string `json:"health"`
}

type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
}

type DebugInfo struct {
	AppName            string    `json:"app_name"`
	Version            string    `json:"version"`
	Environment        string    `json:"environment"`
	TotalOrders        int       `json:"total_orders"`
	TestUsers          []string  `json:"test_users"`
	SupportedCountries []string  `json:"supported_countries"`
	Timestamp          time.Time `json:"timestamp"`
}

type LatencySpike struct {
	Message      string    `json:"message"`
	DelaySeconds float64   `json:"delay_seconds"`
	Timestamp    time.Time `json:"timestamp"`
}
