// Package ui is the terminal front end of swapp, built on Bubble Tea.
//
// # Components
//
// Every view is a component with its own mount lifecycle:
//
//   - browseList: marketplace search, kept in step with the item modal
//   - inventoryGrid: the session user's items (archive, restore, add, upload)
//   - profilePanel: session summary plus the login, registration and
//     profile picture flows
//   - ownerPanel: the public profile last selected from an item
//   - activityView: a tail of the client's own log file
//   - itemModal and offerComposer: overlays opened on demand
//
// Main views stay mounted for the whole run. Modals are mounted when opened
// and unmounted when closed.
//
// # Lifecycle
//
// Mount starts a new generation with its own context and broadcast.Scope.
// Async results carry the generation they were started under and are
// dropped unless that mount is still current, so a reply that lands after
// its modal closed changes nothing. Unmount cancels the context and
// releases every session subscription and mailbox.
//
// Session changes reach components through session.Store subscriptions that
// forward to the program with Env.Send. Item, comment, owner and offer
// selections travel through single-slot mailboxes from the gateway package.
//
// # Errors
//
// Failures surface as exactly one toast per failed action, worded by
// gateway.Describe. Nothing is retried automatically.
//
// # Key Bindings
//
//   - b/i/p/u/a or Tab: switch view
//   - enter: open the selected item
//   - x/r: archive or restore (inventory)
//   - L/c/s/o: like, comment, propose a swap, show owner (item modal)
//   - /: search, ]: cycle category or log level
//   - l/n/O: log in, register, log out (profile)
//   - T: cycle theme, ?: help, e or Ctrl+C: exit
package ui
