package domain

type SeedState string

const (
	SeedIdle      SeedState = "idle"
	SeedRunning   SeedState = "running"
	SeedCompleted SeedState = "completed"
	SeedError     SeedState = "error"
)

// SeedStatus is a snapshot of the seeder's progress. The service hands out
// copies, never a pointer to its own state.
type SeedStatus struct {
	State   SeedState `json:"state"`
	Current int       `json:"current"`
	Total   int       `json:"total"`
	Message string    `json:"message"`
}
