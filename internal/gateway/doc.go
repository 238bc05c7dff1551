// Package gateway sits between the views and the marketplace client. It
// validates user input, wraps failures with context, vets image URLs, and
// owns the single-slot selection channels that views use to hand an item,
// its owner, its comments, or an offer draft to another view.
package gateway
