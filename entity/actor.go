package entity

// Actor identifies who issued an authorized API request. The API token is
// bound to the configured administrator, so there is exactly one non-empty
// actor today.
type Actor struct {
	Id    int64
	Admin bool
}
