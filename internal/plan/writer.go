package plan

// CycleWriter is an interface to support different output writers.
type CycleWriter interface {
	WriteCycle(CycleRow) error
}

// AssignmentWriter handles assignment rows.
type AssignmentWriter interface {
	WriteAssignment(AssignmentRow) error
}

// GeometryWriter handles observation geometry rows.
type GeometryWriter interface {
	WriteGeometry(GeometryRow) error
}

// Optional: writers may support batch mode.
type batchCycleWriter interface {
	WriteCycles([]CycleRow) error
}

type batchAssignmentWriter interface {
	WriteAssignments([]AssignmentRow) error
}

type batchGeometryWriter interface {
	WriteGeometries([]GeometryRow) error
}

// AdminStatusWriter allows writers to receive admin UI status updates.
type AdminStatusWriter interface {
	SetAdminStatus(listening bool)
}
