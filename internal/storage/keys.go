package storage

// Durable key space shared between the session layer and the persistence
// manager. Both sides must use these constants; a divergence here means a
// value written by one is invisible to the other.
const (
	// KeyToken holds the bearer token sent as X-API-KEY.
	KeyToken = "mio-token"

	// KeySessionMeta holds the minimized session identity (uid, patient id,
	// health plan id, last login). Never full PII.
	KeySessionMeta = "mio-session-meta"

	// KeyActivePlan holds the active plan type string.
	KeyActivePlan = "mio-plan-activo"

	// KeyLegacyUser is the pre-minimization session blob. Read once at
	// restore time, migrated into KeySessionMeta and deleted.
	KeyLegacyUser = "mio-user"

	// StorePrefix prefixes per-store persisted state. The suffix is the
	// store id. Kept compatible with data migrated from the original
	// web client.
	StorePrefix = "pinia-"
)

// StoreKey returns the durable key for a persisted store's state.
func StoreKey(storeID string) string {
	return StorePrefix + storeID
}
