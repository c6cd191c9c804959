// Package gateway implements the payment-node gateway.
//
// The module fronts an embedded Lightning engine with an authenticated HTTP
// API, paginated history reads, and a durable outbox that relays engine
// events to an external broker. Business rules live in the application and
// domain layers; infrastructure concerns sit behind ports and adapters.
package gateway
