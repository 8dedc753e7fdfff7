// SPDX-License-Identifier: MPL-2.0

package selfupdate

// State is a step of the self-update protocol. Transitions only move
// forward; StateFailed is reachable from every state and a new run starts
// again at StateChecking.
type State int32

const (
	// StateIdle is the initial state; no update is in progress.
	StateIdle State = iota
	// StateChecking means the remote descriptor is being fetched and compared.
	StateChecking
	// StateDownloading means a release is being downloaded and extracted.
	StateDownloading
	// StateStaged means a complete release sits in the stage directory.
	StateStaged
	// StateCopyCreated means the auxiliary copy tree is ready to be launched.
	StateCopyCreated
	// StateHandoffRequested means the copy was started and the original is
	// waiting to be terminated.
	StateHandoffRequested
	// StateApplying means the copy is replacing the original tree.
	StateApplying
	// StateRelaunched means the new original was started.
	StateRelaunched
	// StateFailed means a protocol step failed; see the returned error.
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateDownloading:
		return "downloading"
	case StateStaged:
		return "staged"
	case StateCopyCreated:
		return "copy-created"
	case StateHandoffRequested:
		return "handoff-requested"
	case StateApplying:
		return "applying"
	case StateRelaunched:
		return "relaunched"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
