// Package ledger provides the transactional envelope around registry
// publishes.
//
// A transaction declares the accounts it touches up front. The ledger takes
// a per-account lock for each (always in address order, so two transactions
// never deadlock), hands the callback a Tx that stages writes, and commits
// the staged registries in one batch only when the callback succeeds.
// Stores that implement Committer (the sqlite store) apply the batch in a
// single database transaction.
//
// Example Usage:
//
//	l := ledger.New(store, logger)
//	receipt, err := l.Execute(ctx, []types.Address{publisher, dep}, func(ctx context.Context, tx *ledger.Tx) error {
//	    _, err := pub.Publish(ctx, tx, publisher, &pkg, code)
//	    return err
//	})
package ledger
