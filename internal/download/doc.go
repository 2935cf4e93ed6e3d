// Package download fetches artifacts over HTTP and commits them into a
// cache.Store only after the received bytes match the declared size and
// SHA-1 digest. A failed verification aborts the store's temp-file commit,
// so the destination key stays absent and the caller may simply retry.
package download
