// Package session obtains, persists, and validates the platform credential.
//
// The platform has no public API key. Its API only accepts headers the web
// app builds client-side after login, so the Bootstrapper drives a visible
// browser through the login form and harvests the headers from the first
// matching API request the page sends. The headers and the browser's
// storage state are saved together by a Store; later runs reload them and
// the Validator probes them with a one-record fetch before any real work.
//
// Manager.Ensure ties the three together: it bootstraps only when the
// stored pair is missing or the probe says it is no longer accepted.
package session
