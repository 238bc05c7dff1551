// Package app is the composition root of swapp.
//
// Run loads the configuration, opens the log file, builds the marketplace
// client, the session service and the domain gateways, starts the account
// poller and then hands control to the UI until the user quits or the
// context is cancelled.
//
//	Run()
//	 ├─> config.Load()          file + environment overrides
//	 ├─> openLog()              slog text handler on the log file
//	 ├─> market.NewClient()     cookie session, CSRF, throttle
//	 ├─> session / gateway      shared by every view
//	 ├─> StartPoller()          account refresh while logged in
//	 └─> ui.Run()               blocks
//
// # Polling
//
// While a user is logged in the poller refreshes the account and public
// profile every poll_seconds and publishes them through the session store.
// Consecutive failures double the delay up to five minutes; a success or a
// logged-out session resets it. Failures are logged, never fatal.
//
// # Errors
//
// Run returns an error only for startup failures: an unreadable or invalid
// config file, a log file that cannot be opened, or an invalid API URL.
package app
