// Package broadcast implements the notification primitives shared by the
// session store and the gateways.
//
// Channel fans a value out to handlers synchronously, in registration order.
// Slot keeps at most one undelivered value per subscriber: a new publish
// replaces the pending one instead of queueing behind it. Neither retains
// history for late subscribers, except Slot.Latest for an initial read.
//
// Subscription.Close is idempotent, and Scope releases every subscription
// and mailbox it collected, so a component can tear down with one call.
package broadcast
