// Package content owns the club resource modules and the mutators that
// perform create/edit/delete against their storage. Mutators run both for
// direct permitted writes and for approval replay, over the same code path.
package content

// Module is a named resource category subject to independent permission grants.
type Module string

// Club content modules.
const (
	ModuleMembers       Module = "members"
	ModuleEvents        Module = "events"
	ModuleProjects      Module = "projects"
	ModuleAnnouncements Module = "announcements"
	ModuleGallery       Module = "gallery"
	ModuleApplications  Module = "applications"
)

// Modules lists every known module in stable order.
func Modules() []Module {
	return []Module{
		ModuleMembers,
		ModuleEvents,
		ModuleProjects,
		ModuleAnnouncements,
		ModuleGallery,
		ModuleApplications,
	}
}

// ParseModule validates a raw module name.
func ParseModule(raw string) (Module, bool) {
	m := Module(raw)
	switch m {
	case ModuleMembers, ModuleEvents, ModuleProjects, ModuleAnnouncements, ModuleGallery, ModuleApplications:
		return m, true
	}
	return "", false
}

// Action is a mutation kind applied to a module.
type Action string

// Mutation kinds.
const (
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Actions lists every mutation kind.
func Actions() []Action {
	return []Action{ActionCreate, ActionEdit, ActionDelete}
}

// ParseAction validates a raw action name.
func ParseAction(raw string) (Action, bool) {
	a := Action(raw)
	switch a {
	case ActionCreate, ActionEdit, ActionDelete:
		return a, true
	}
	return "", false
}
