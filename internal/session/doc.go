// Package session holds the authentication state shared by every view and
// the service that changes it.
//
// # Store
//
// Store keeps three fields: the logged-in flag, the public profile of the
// current user and their private account. Each has a broadcast.Channel;
// Publish* replaces the field under the store mutex, then notifies
// subscribers synchronously, outside the lock. Snapshot returns deep copies
// so readers never share slices with the store.
//
// UpdateUser is the read-modify-write form of PublishUser. Views that patch
// the inventory after an acknowledged change (archive, restore, add) use it
// so two overlapping edits cannot drop each other. User replacements are
// serialized, and subscribers receive them in the order they were stored.
//
// # Service
//
// Service drives the marketplace API and publishes the outcome:
//
//	Login(newAccount=false)  loggedIn=true -> account -> public profile
//	Login(newAccount=true)   loggedIn=true, NeedsProfilePicture
//	CompleteProfilePicture   upload (optional) -> account -> public profile
//	RefreshAccount           account -> public profile (poller, after upload)
//	Logout                   loggedIn=false, user and account cleared
//
// A failed login publishes nothing. A failure fetching the public profile
// after a successful login is reported in LoginResult.ProfileErr and does
// not undo the login.
package session
