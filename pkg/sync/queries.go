package sync

import (
	"fmt"
	"strings"
)

// Database-side object names. The notify function is created once per
// schema; triggers are created per table.
const (
	notifyFunction = "pgmirror_notify"
	triggerSuffix  = "_pgmirror"
	truncateSuffix = "_pgmirror_truncate"

	slotPlugin = "test_decoding"
)

// quoteIdent quotes a Postgres identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// createFunctionSQL builds the notify trigger function for a schema. The
// payload mirrors what the change-capture side consumes: operation, table,
// schema and the affected row.
func createFunctionSQL(schemaName, channel string) string {
	return fmt.Sprintf(`
CREATE OR REPLACE FUNCTION %s.%s() RETURNS TRIGGER AS $$
DECLARE
  payload TEXT;
BEGIN
  IF TG_OP = 'DELETE' THEN
    payload := json_build_object(
      'tg_op', TG_OP,
      'table', TG_TABLE_NAME,
      'schema', TG_TABLE_SCHEMA,
      'old', row_to_json(OLD)
    )::text;
  ELSE
    payload := json_build_object(
      'tg_op', TG_OP,
      'table', TG_TABLE_NAME,
      'schema', TG_TABLE_SCHEMA,
      'new', row_to_json(NEW)
    )::text;
  END IF;
  PERFORM pg_notify('%s', payload);
  RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
		quoteIdent(schemaName), notifyFunction, channel)
}

func dropFunctionSQL(schemaName string) string {
	return fmt.Sprintf("DROP FUNCTION IF EXISTS %s.%s() CASCADE",
		quoteIdent(schemaName), notifyFunction)
}

func createRowTriggerSQL(schemaName, table string) string {
	return fmt.Sprintf(
		"CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE ON %s.%s FOR EACH ROW EXECUTE PROCEDURE %s.%s()",
		quoteIdent(table+triggerSuffix),
		quoteIdent(schemaName), quoteIdent(table),
		quoteIdent(schemaName), notifyFunction)
}

func createTruncateTriggerSQL(schemaName, table string) string {
	return fmt.Sprintf(
		"CREATE TRIGGER %s AFTER TRUNCATE ON %s.%s FOR EACH STATEMENT EXECUTE PROCEDURE %s.%s()",
		quoteIdent(table+truncateSuffix),
		quoteIdent(schemaName), quoteIdent(table),
		quoteIdent(schemaName), notifyFunction)
}

func dropTriggerSQL(schemaName, table, trigger string) string {
	return fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s.%s",
		quoteIdent(trigger), quoteIdent(schemaName), quoteIdent(table))
}

const (
	currentSettingSQL          = "SELECT current_setting($1)"
	currentSettingMissingOkSQL = "SELECT current_setting($1, true)"

	slotExistsSQL = "SELECT EXISTS (SELECT 1 FROM pg_replication_slots WHERE slot_name = $1)"
	slotCreateSQL = "SELECT 1 FROM pg_create_logical_replication_slot($1, $2)"
	slotDropSQL   = "SELECT pg_drop_replication_slot($1)"
)
