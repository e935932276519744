package pymodule

import (
	"encoding/json"
	"fmt"

	"github.com/embedpy/pye/pyvm"
)

// newJSONModule wires encoding/json into `loads`/`dumps`, grounded on
// original_source/src/builtins/json.rs's two-function surface (supplemented
// from serde_json onto Go's standard JSON package, the honest ecosystem
// equivalent — see DESIGN.md).
func newJSONModule() *pyvm.Module {
	m := pyvm.NewModule("json")
	m.Set("loads", &pyvm.NativeFunc{Name: "loads", Fn: jsonLoads})
	m.Set("dumps", &pyvm.NativeFunc{Name: "dumps", Fn: jsonDumps})
	return m
}

func jsonLoads(args []any) (any, *pyvm.Exception) {
	if len(args) != 1 {
		return nil, pyvm.NewException(pyvm.TypeError, "loads() takes exactly one argument (%d given)", len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, pyvm.NewException(pyvm.TypeError, "loads() argument must be a string")
	}
	var raw any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, pyvm.NewException(pyvm.ValueError, "invalid JSON: %s", err)
	}
	return jsonToValue(raw), nil
}

func jsonToValue(raw any) any {
	switch v := raw.(type) {
	case nil:
		return pyvm.None{}
	case bool:
		return v
	case float64:
		if v == float64(int64(v)) {
			return int64(v)
		}
		return v
	case string:
		return v
	case []any:
		elems := make([]any, len(v))
		for i, e := range v {
			elems[i] = jsonToValue(e)
		}
		return pyvm.NewList(elems)
	case map[string]any:
		d := pyvm.NewDict()
		for k, val := range v {
			d.Set(k, jsonToValue(val))
		}
		return d
	default:
		return pyvm.None{}
	}
}

func jsonDumps(args []any) (any, *pyvm.Exception) {
	if len(args) != 1 {
		return nil, pyvm.NewException(pyvm.TypeError, "dumps() takes exactly one argument (%d given)", len(args))
	}
	raw, err := valueToJSON(args[0])
	if err != nil {
		return nil, pyvm.NewException(pyvm.TypeError, "%s", err)
	}
	out, err := json.Marshal(raw)
	if err != nil {
		return nil, pyvm.NewException(pyvm.ValueError, "%s", err)
	}
	return string(out), nil
}

func valueToJSON(v any) (any, error) {
	switch x := v.(type) {
	case pyvm.None:
		return nil, nil
	case bool, int64, float64, string:
		return x, nil
	case *pyvm.List:
		out := make([]any, len(x.Elems))
		for i, e := range x.Elems {
			conv, err := valueToJSON(e)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case *pyvm.Dict:
		out := make(map[string]any)
		for _, k := range x.Keys() {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("only string keys can be serialized to JSON")
			}
			val, _ := x.Get(k)
			conv, err := valueToJSON(val)
			if err != nil {
				return nil, err
			}
			out[ks] = conv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("object of type %s is not JSON serializable", pyvm.TypeOf(v).Name)
	}
}
