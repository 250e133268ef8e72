package odoo

import (
	"reflect"
	"time"
)

// DateTimeFormat is the server format of datetime fields, always UTC
const DateTimeFormat = "2006-01-02 15:04:05"

// Record is one row returned by search_read. Odoo sends false for every
// empty field regardless of its type.
type Record map[string]interface{}

// ID returns the record id
func (r Record) ID() int64 {
	id, _ := toInt64(r["id"])
	return id
}

// String returns a char field, empty when unset
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// Bool returns a boolean field
func (r Record) Bool(field string) bool {
	b, _ := r[field].(bool)
	return b
}

// Int returns an integer field, zero when unset
func (r Record) Int(field string) int64 {
	v, _ := toInt64(r[field])
	return v
}

// Many2One returns the id and display name of a many2one field
func (r Record) Many2One(field string) (int64, string) {
	pair, ok := r[field].([]interface{})
	if !ok || len(pair) == 0 {
		return 0, ""
	}
	id, _ := toInt64(pair[0])
	name := ""
	if len(pair) > 1 {
		name, _ = pair[1].(string)
	}
	return id, name
}

// Time parses a datetime field
func (r Record) Time(field string) time.Time {
	switch v := r[field].(type) {
	case time.Time:
		return v.UTC()
	case string:
		t, err := time.ParseInLocation(DateTimeFormat, v, time.UTC)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

func toInt64(v interface{}) (int64, bool) {
	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return val.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(val.Uint()), true
	case reflect.Float32, reflect.Float64:
		return int64(val.Float()), true
	}
	return 0, false
}
