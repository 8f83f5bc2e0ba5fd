package enums

// SyncState tracks the remote synchronization state machine.
type SyncState string

const (
	SyncStateIdle    SyncState = "idle"
	SyncStatePushing SyncState = "pushing"
	SyncStatePulling SyncState = "pulling"
	SyncStateFailed  SyncState = "failed"
)

// String implements fmt.Stringer.
func (s SyncState) String() string {
	return string(s)
}
