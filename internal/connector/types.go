package connector

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/mkelly/billgate/internal/auth"
)

// Errors
var (
	ErrNotConnected = errors.New("not connected")
	ErrTimeout      = errors.New("operation timeout")
	ErrNoProducts   = errors.New("no products requested")
)

// Command is a JSON command sent to the billing service.
type Command struct {
	ID     string `json:"id"`
	Cmd    string `json:"cmd"`
	Params any    `json:"params,omitempty"`
}

// Response is a command response from the billing service.
type Response struct {
	ID   string          `json:"id"`
	Type string          `json:"type"` // "connected", "rejected", "products", "error"
	Msg  json.RawMessage `json:"msg"`
}

// HelloParams are the parameters of the hello handshake command.
type HelloParams struct {
	ClientID string `json:"client_id"`
	Version  string `json:"version,omitempty"`
}

// ConnectedMsg is the message content for a "connected" response.
type ConnectedMsg struct {
	Features []string `json:"features"`
}

// RejectedMsg is the message content for a "rejected" response.
type RejectedMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetProductsParams are the parameters of a get_products command.
type GetProductsParams struct {
	Products []ProductSpecMsg `json:"products"`
}

// ProductSpecMsg identifies one product in a get_products command.
type ProductSpecMsg struct {
	ProductID string `json:"product_id"`
	Type      string `json:"type"`
}

// ProductsMsg is the message content for a "products" response.
type ProductsMsg struct {
	Products []ProductMsg `json:"products"`
}

// ProductMsg is a single product in a "products" response.
type ProductMsg struct {
	ProductID   string `json:"product_id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`    // Decimal string (e.g., "4.99")
	Currency    string `json:"currency"` // ISO 4217 code
	UpdatedTS   int64  `json:"updated_ts"`
}

// ErrorMsg is the message content for an "error" response.
type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Config holds settings for one billing service connection.
type Config struct {
	URL              string            // WebSocket URL of the billing service
	ClientID         string            // Identifies this installation to the service
	Credentials      *auth.Credentials // Request signing credentials (nil = unsigned)
	HandshakeTimeout time.Duration     // Max time to wait for the hello response
	QueryTimeout     time.Duration     // Max time to wait for a query response
	WriteTimeout     time.Duration     // Write deadline for sends
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		QueryTimeout:     30 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}
