package boardsync

import "time"

// Timestamp-as-version conflict resolution lives entirely in these two
// functions so a future scheme (ETags, vector clocks) can swap in without
// touching the engine. The asymmetry is deliberate and load-bearing:
// on equal timestamps the remote card wins a pull, while a push requires the
// local edit to be strictly newer.

// remoteWins reports whether a changed card should overwrite the local task.
func remoteWins(cardActivity, localUpdated time.Time) bool {
	return !cardActivity.Before(localUpdated)
}

// localWins reports whether a local edit should be pushed over the card.
func localWins(localUpdated, cardActivity time.Time) bool {
	return localUpdated.After(cardActivity)
}

// changedSince reports whether a timestamp moved past the last-synced pivot.
// Both "did the card change" and "did the task change" measure against the
// task's lastSyncedAt.
func changedSince(ts, lastSynced time.Time) bool {
	return ts.After(lastSynced)
}
