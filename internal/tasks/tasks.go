package tasks

// Task type constants. The scheduler enqueues these on a fixed interval.
const (
	TypeRoomAutoComplete = "room:autocomplete"
)
