package target

// Table describes one searchable table inside a target database.
type Table struct {
	name        string
	columns     []string
	titleColumn string
}

// NewTable creates a searchable table description.
// titleColumn may be empty when the table has no title-like column.
func NewTable(name string, columns []string, titleColumn string) Table {
	return Table{name: name, columns: columns, titleColumn: titleColumn}
}

// Name returns the table name.
func (t Table) Name() string { return t.name }

// Columns returns the full-text-indexed column names.
func (t Table) Columns() []string { return t.columns }

// TitleColumn returns the designated title-like column, or "" if none.
func (t Table) TitleColumn() string { return t.titleColumn }

// Target is a read-only handle to one federated database. The connection
// itself is owned by the provider; the orchestrator never mutates it.
type Target struct {
	id     string
	tables []Table
}

// New creates a database target.
func New(id string, tables []Table) Target {
	return Target{id: id, tables: tables}
}

// ID returns the opaque database identifier.
func (t Target) ID() string { return t.id }

// Tables returns the searchable tables.
func (t Target) Tables() []Table { return t.tables }

// Table looks up a searchable table by name.
func (t Target) Table(name string) (Table, bool) {
	for _, tb := range t.tables {
		if tb.name == name {
			return tb, true
		}
	}
	return Table{}, false
}
