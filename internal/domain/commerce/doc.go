// Package commerce contains the Commerce bounded context.
// This context defines the port for the headless commerce backend that owns
// carts, products and categories.
//
// Key concepts:
//   - Platform: Port interface for the remote commerce API
//   - Product / Category: Value objects used by the storefront and sitemap
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package commerce
