package editor

// SaveStatus is the editor's tri-state save indicator.
type SaveStatus string

const (
	// StatusSaved means the store holds the latest local state.
	StatusSaved SaveStatus = "saved"
	// StatusSaving means a persist request is in flight.
	StatusSaving SaveStatus = "saving"
	// StatusUnsaved means a local edit has not been persisted yet.
	StatusUnsaved SaveStatus = "unsaved"
)

func (s SaveStatus) String() string {
	return string(s)
}
