package ledger

// FailBeforePersist installs a hook on the in-memory ledger that runs after
// token generation but before the purchase and balance update are committed.
// Returning an error from fn aborts the purchase with nothing written, the
// same way a store failure rolls back the transaction. Pass nil to clear.
func FailBeforePersist(l Ledger, fn func() error) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.beforePersist = fn
	}
}
