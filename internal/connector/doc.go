// Package connector implements the long-lived façade over a cortile session.
//
// A Connector resolves the daemon binary once, keeps one listening
// subprocess for the lifetime of the connection, caches property values
// pushed by the daemon, and fans every inbound envelope out to registered
// listeners in registration order. Its own cache observer is always the
// first listener, so user listeners observe a cache that already reflects
// the envelope they receive.
package connector
