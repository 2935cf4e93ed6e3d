// Package server hosts the read-only Fiber HTTP service that publishes stored
// block-state documents, along with the shared upstream http.Client used by
// the ingest pipeline. Keep exports narrow and accept explicit dependencies so
// main and tests can wire fakes.
package server
