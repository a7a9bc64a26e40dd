package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductType identifies the kind of product being queried.
type ProductType string

const (
	// ProductTypeInApp is a one-time purchasable item.
	ProductTypeInApp ProductType = "inapp"

	// ProductTypeSubs is a recurring subscription.
	ProductTypeSubs ProductType = "subs"
)

// ProductSpec identifies a single product to query.
type ProductSpec struct {
	ID   string      // Backend product identifier (e.g., "premium_upgrade")
	Type ProductType // "inapp" or "subs"
}

// Product holds the catalog details for a single product as reported
// by the billing service.
type Product struct {
	ID          string          // Backend product identifier
	Type        ProductType     // "inapp" or "subs"
	Title       string          // Display title
	Description string          // Display description
	Price       decimal.Decimal // Price in Currency units
	Currency    string          // ISO 4217 currency code (e.g., "USD")
	UpdatedAt   int64           // Last update (µs since epoch)
}

// Capability identifies an optional feature of the billing service.
// The set a connection supports is reported during the connect handshake.
type Capability string

const (
	CapabilitySubscriptions      Capability = "subscriptions"
	CapabilitySubscriptionUpdate Capability = "subscription_update"
	CapabilityPriceChangeConfirm Capability = "price_change_confirmation"
	CapabilityInAppItems         Capability = "in_app_items"
)

// Billing service response codes.
const (
	CodeServiceUnavailable  = "service_unavailable"
	CodeBillingUnavailable  = "billing_unavailable"
	CodeDeveloperError      = "developer_error"
	CodeFeatureNotSupported = "feature_not_supported"
	CodeServiceDisconnected = "service_disconnected"
	CodeItemUnavailable     = "item_unavailable"
)

// BillingError is a classified failure from the billing service. It
// preserves the raw response code for diagnostics.
type BillingError struct {
	Code    string // Raw response code from the service
	Message string // Human-readable detail, may be empty
}

func (e *BillingError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("billing error %s", e.Code)
	}
	return fmt.Sprintf("billing error %s: %s", e.Code, e.Message)
}

// Retryable reports whether the failure should trigger a reconnect
// attempt. Only a dropped connection self-heals; handshake rejections
// are terminal until process restart.
func (e *BillingError) Retryable() bool {
	return e.Code == CodeServiceDisconnected
}
