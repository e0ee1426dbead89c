package postgres

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/normalize"
)

// triggerDefPattern matches pg_get_triggerdef()'s fixed output shape:
//
//	CREATE [CONSTRAINT] TRIGGER name BEFORE|AFTER|INSTEAD OF ev [OR ev ...]
//	ON table [NOT DEFERRABLE|...] FOR EACH ROW|STATEMENT [WHEN (cond)]
//	EXECUTE { FUNCTION | PROCEDURE } fn(args)
//
// Parsed with a regex rather than the full statement parser since the
// server always emits this exact, already-normalized shape.
var triggerDefPattern = regexp.MustCompile(`(?is)^CREATE\s+(?:CONSTRAINT\s+)?TRIGGER\s+\S+\s+` +
	`(BEFORE|AFTER|INSTEAD OF)\s+(.+?)\s+ON\s+\S+\s+` +
	`(?:FROM\s+\S+\s+)?(?:NOT DEFERRABLE|DEFERRABLE(?:\s+INITIALLY\s+(?:DEFERRED|IMMEDIATE))?\s+)?` +
	`FOR\s+EACH\s+(ROW|STATEMENT)\s+` +
	`(?:WHEN\s+\((.*?)\)\s+)?` +
	`EXECUTE\s+(?:FUNCTION|PROCEDURE)\s+([a-zA-Z0-9_."]+)\s*\((.*)\)\s*$`)

var eventUpdateOfPattern = regexp.MustCompile(`(?i)^UPDATE\s+OF\s+(.+)$`)

// parseTriggerDef extracts the fields this system cares about from a
// pg_get_triggerdef() definition string. Name/Table/TableSchema are
// filled in by the caller, which already knows them from the catalog
// query.
func parseTriggerDef(def string) (catalog.Trigger, error) {
	def = strings.TrimSuffix(strings.TrimSpace(def), ";")
	m := triggerDefPattern.FindStringSubmatch(def)
	if m == nil {
		return catalog.Trigger{}, fmt.Errorf("unrecognized trigger definition: %q", def)
	}

	trig := catalog.Trigger{
		Timing: strings.ToUpper(m[1]),
		Level:  strings.ToUpper(m[3]),
	}

	for _, part := range strings.Split(m[2], " OR ") {
		part = strings.TrimSpace(part)
		if um := eventUpdateOfPattern.FindStringSubmatch(part); um != nil {
			trig.Events = append(trig.Events, "UPDATE")
			for _, col := range strings.Split(um[1], ",") {
				trig.UpdateColumns = append(trig.UpdateColumns, strings.TrimSpace(col))
			}
			continue
		}
		trig.Events = append(trig.Events, strings.ToUpper(part))
	}

	if m[4] != "" {
		trig.When = normalize.DefaultExpr(m[4])
	}
	trig.Function = m[5]

	args := strings.TrimSpace(m[6])
	if args != "" {
		for _, a := range splitTriggerArgs(args) {
			trig.Arguments = append(trig.Arguments, strings.Trim(strings.TrimSpace(a), "'"))
		}
	}

	return trig, nil
}

// splitTriggerArgs splits a trigger's EXECUTE FUNCTION argument list on
// top-level commas, respecting single-quoted string literals (trigger
// arguments are always quoted string constants in PostgreSQL).
func splitTriggerArgs(s string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			cur.WriteByte(ch)
		case ch == ',' && !inQuote:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
