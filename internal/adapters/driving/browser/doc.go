// Package browser serves the live document to a web browser.
//
// The backend renders each snapshot to HTML and notifies open pages over
// server-sent events. Pages fetch the newest snapshot on every notification,
// so a slow page skips intermediate revisions instead of queueing them.
// Pages report their scroll position back with POST /anchor.
package browser
