package notify

// PermissionChecker answers the two runtime permission questions that gate
// scheduling. Either permission may be withheld independently; the scheduler
// degrades to skip-and-log, never an error.
type PermissionChecker interface {
	CanPostNotifications() bool
	CanScheduleExactAlarms() bool
}

// StaticPermissions is a fixed permission surface, set from configuration
type StaticPermissions struct {
	PostNotifications bool
	ExactAlarms       bool
}

func (p StaticPermissions) CanPostNotifications() bool   { return p.PostNotifications }
func (p StaticPermissions) CanScheduleExactAlarms() bool { return p.ExactAlarms }
