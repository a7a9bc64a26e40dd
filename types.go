package billgate

import (
	"github.com/mkelly/billgate/internal/connector"
	"github.com/mkelly/billgate/internal/model"
)

// Public aliases of the domain types, so importers never touch
// internal packages.
type (
	ProductSpec  = model.ProductSpec
	ProductType  = model.ProductType
	Product      = model.Product
	Capability   = model.Capability
	BillingError = model.BillingError
)

const (
	ProductTypeInApp = model.ProductTypeInApp
	ProductTypeSubs  = model.ProductTypeSubs

	CapabilitySubscriptions      = model.CapabilitySubscriptions
	CapabilitySubscriptionUpdate = model.CapabilitySubscriptionUpdate
	CapabilityPriceChangeConfirm = model.CapabilityPriceChangeConfirm
	CapabilityInAppItems         = model.CapabilityInAppItems
)

// ErrNoProducts is returned by QueryCatalog when no product specs are given.
var ErrNoProducts = connector.ErrNoProducts
