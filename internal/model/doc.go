// Package model defines the domain types shared across the gateway:
// product specifications and details, capability identifiers, and the
// classified billing error carried by terminal connection failures.
package model
