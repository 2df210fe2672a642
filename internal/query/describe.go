package query

import (
	"fmt"
	"strconv"
	"strings"
)

func descriptorFromRow(row Row) ColumnDescriptor {
	cid, _ := row.Get("cid")
	name, _ := row.Get("name")
	declared, _ := row.Get("type")
	notNull, _ := row.Get("notnull")
	defaultValue, _ := row.Get("dflt_value")
	pk, _ := row.Get("pk")

	if raw, ok := defaultValue.([]byte); ok {
		defaultValue = string(raw)
	}
	return ColumnDescriptor{
		CID:        asInt(cid),
		Name:       asString(name),
		Type:       asString(declared),
		NotNull:    asInt(notNull) != 0,
		Default:    defaultValue,
		PrimaryKey: asInt(pk),
	}
}

func asInt(value any) int {
	switch typed := value.(type) {
	case int:
		return typed
	case int32:
		return int(typed)
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	case bool:
		if typed {
			return 1
		}
		return 0
	case []byte:
		return asInt(string(typed))
	case string:
		trimmed := strings.TrimSpace(typed)
		if parsed, err := strconv.Atoi(trimmed); err == nil {
			return parsed
		}
		if parsed, err := strconv.ParseBool(trimmed); err == nil && parsed {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func asString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []byte:
		return string(typed)
	default:
		return fmt.Sprint(typed)
	}
}
