package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	tableKV          = "kv"
	tableLLMEvents   = "llm_events"
	tableProgress    = "user_progress"
	tableAccounts    = "accounts"
	maxTextColumnLen = 2147483647
)

var (
	kvColumns = []*schema.Column{
		{Name: "name", Type: field.TypeString, Size: 255},
		{Name: "value", Type: field.TypeString, Size: maxTextColumnLen},
		{Name: "updated_at", Type: field.TypeTime},
	}
	kvTable = &schema.Table{
		Name:       tableKV,
		Columns:    kvColumns,
		PrimaryKey: []*schema.Column{kvColumns[0]},
	}

	llmEventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: maxTextColumnLen},
		{Name: "request_body", Type: field.TypeString, Size: maxTextColumnLen},
		{Name: "response_body", Type: field.TypeString, Size: maxTextColumnLen},
	}
	llmEventsTable = &schema.Table{
		Name:       tableLLMEvents,
		Columns:    llmEventColumns,
		PrimaryKey: []*schema.Column{llmEventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmevent_purpose", Columns: []*schema.Column{llmEventColumns[4]}},
		},
	}

	progressColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString, Unique: true, Size: 64},
		{Name: "points", Type: field.TypeInt},
		{Name: "current_chapter", Type: field.TypeInt},
		{Name: "completed_chapters", Type: field.TypeJSON},
		{Name: "collected_creatures", Type: field.TypeJSON},
		{Name: "eggs", Type: field.TypeInt},
		{Name: "completed_projects", Type: field.TypeJSON},
		{Name: "chapter_progress", Type: field.TypeJSON},
		{Name: "submitted_code", Type: field.TypeJSON},
		{Name: "updated_at", Type: field.TypeTime},
	}
	progressTable = &schema.Table{
		Name:       tableProgress,
		Columns:    progressColumns,
		PrimaryKey: []*schema.Column{progressColumns[0]},
	}

	accountColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "email", Type: field.TypeString, Unique: true, Size: 255},
		{Name: "password_hash", Type: field.TypeString, Size: 255},
		{Name: "created_at", Type: field.TypeTime},
	}
	accountsTable = &schema.Table{
		Name:       tableAccounts,
		Columns:    accountColumns,
		PrimaryKey: []*schema.Column{accountColumns[0]},
	}

	// localTables live in the on-device database.
	localTables = []*schema.Table{kvTable, llmEventsTable}

	// remoteTables live in the shared progress database.
	remoteTables = []*schema.Table{progressTable, accountsTable}
)

// migrate creates or updates tables on drv.
func migrate(ctx context.Context, drv dialect.Driver, tables ...*schema.Table) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// builder returns an ent SQL builder for the given ent dialect name.
func builder(d string) *entsql.DialectBuilder {
	return entsql.Dialect(d)
}
