package validation

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
)

// exactMembers drops object members whose name is not the exact JSON name of
// a field of t, recursing into nested structs and slices. encoding/json
// would otherwise match "CPF" to the "cpf" field. Input that does not decode
// is returned unchanged so the binder reports the syntax error.
func exactMembers(data []byte, t reflect.Type) []byte {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil || dec.More() {
		return data
	}
	out, err := json.Marshal(filter(v, t))
	if err != nil {
		return data
	}
	return out
}

func filter(v interface{}, t reflect.Type) interface{} {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch val := v.(type) {
	case map[string]interface{}:
		if t.Kind() != reflect.Struct {
			return val
		}
		fields := jsonFields(t)
		for name, member := range val {
			ft, ok := fields[name]
			if !ok {
				delete(val, name)
				continue
			}
			val[name] = filter(member, ft)
		}
		return val
	case []interface{}:
		if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
			return val
		}
		for i := range val {
			val[i] = filter(val[i], t.Elem())
		}
		return val
	default:
		return val
	}
}

// jsonFields maps the JSON names of t's fields to their types. Fields of
// untagged embedded structs are promoted, as encoding/json does.
func jsonFields(t reflect.Type) map[string]reflect.Type {
	out := make(map[string]reflect.Type)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				for k, v := range jsonFields(ft) {
					if _, shadowed := out[k]; !shadowed {
						out[k] = v
					}
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out[name] = f.Type
	}
	return out
}
