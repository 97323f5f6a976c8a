package migrate

import "sort"

// ModuleReport groups ledger entries for one module, for operator
// display. Pure read-side transformation of Status output.
type ModuleReport struct {
	Module  string
	Entries []Entry
}

// AppliedAtFormat is how ledger timestamps are rendered for operators.
const AppliedAtFormat = "2006-01-02 15:04:05"

// GroupReport buckets status entries by module, modules alphabetical,
// entries by version ascending.
func GroupReport(entries []Entry) []ModuleReport {
	byModule := map[string][]Entry{}
	for _, e := range entries {
		byModule[e.Module] = append(byModule[e.Module], e)
	}

	names := make([]string, 0, len(byModule))
	for name := range byModule {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ModuleReport, 0, len(names))
	for _, name := range names {
		es := byModule[name]
		sort.Slice(es, func(i, j int) bool { return es[i].Version < es[j].Version })
		out = append(out, ModuleReport{Module: name, Entries: es})
	}
	return out
}

// ListEntry describes a known migration from the static descriptor
// set alone, for operator review before running. No store access.
type ListEntry struct {
	ID       string
	Module   string
	Version  int
	Name     string
	Checksum string
}

// List reports every known migration with its id and checksum,
// ordered the same way Run would execute them.
func List(migrations []Migration) []ListEntry {
	out := make([]ListEntry, 0, len(migrations))
	for _, module := range groupByModule(migrations) {
		for _, m := range module.migrations {
			out = append(out, ListEntry{
				ID:       m.ID(),
				Module:   m.Module,
				Version:  m.Version,
				Name:     m.Name,
				Checksum: m.Checksum(),
			})
		}
	}
	return out
}
