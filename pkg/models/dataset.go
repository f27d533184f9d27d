package models

// Dataset is one entry in the dataset registry. Registry rows are created
// by the schema bootstrap and are read-only to the query pipeline.
type Dataset struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Domain       string `json:"domain"`
	Description  string `json:"description"`
	Grain        string `json:"grain,omitempty"`
	FreshnessSLA string `json:"freshness_sla,omitempty"`
	OwnerTeam    string `json:"owner_team,omitempty"`
}

// TableDescriptor describes one queryable table belonging to a dataset.
// Identity is (dataset, schema, table).
type TableDescriptor struct {
	DatasetID        string `json:"dataset_id"`
	SchemaName       string `json:"schema_name"`
	TableName        string `json:"table_name"`
	Description      string `json:"description"`
	PrimaryKeys      string `json:"primary_keys,omitempty"`
	JoinHints        string `json:"join_hints,omitempty"`
	ImportantColumns string `json:"important_columns,omitempty"`
	ExampleFilters   string `json:"example_filters,omitempty"`
}

// QualifiedName returns the schema-qualified table name, or the bare table
// name when no schema is set.
func (t *TableDescriptor) QualifiedName() string {
	if t.SchemaName == "" {
		return t.TableName
	}
	return t.SchemaName + "." + t.TableName
}

// DomainDefinition disambiguates a business vocabulary term for a dataset.
// Identity is (dataset, term).
type DomainDefinition struct {
	DatasetID  string `json:"dataset_id"`
	Term       string `json:"term"`
	Definition string `json:"definition"`
	FormulaSQL string `json:"formula_sql,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// GroundingPayload is the per-request bundle of schema truth for one
// dataset. It is rebuilt on every query and never persisted.
type GroundingPayload struct {
	Dataset     *Dataset
	Tables      []*TableDescriptor
	Definitions []*DomainDefinition
}
