package pyconfig

import (
	"errors"
	"fmt"
	"testing"

	"github.com/embedpy/pye/pyvm"
)

var testSchema = `
str?: string
list?: [...int]
`

func TestLoaderAssignFirst(t *testing.T) {
	loader := NewLoader([]string{"testdata/loader_test.cue"}, testSchema)

	var str string
	err := loader.AssignFirst("str", &str)
	if err != nil {
		t.Fatal(err)
	}
	if str != "bar" {
		t.Fatalf("got %q", str)
	}

	err = loader.AssignFirst("not", &str)
	if !errors.Is(err, ErrValueNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestFirst(t *testing.T) {
	loader := NewLoader([]string{"testdata/loader_test.cue"}, testSchema)
	str := First[string](loader, "str")
	if str != "bar" {
		t.Fatalf("got %v", str)
	}
	n := First[int](loader, "missing")
	if n != 0 {
		t.Fatalf("got %v", n)
	}
}

func TestIterCueValuesAndAll(t *testing.T) {
	loader := NewLoader([]string{
		"testdata/loader_test.cue",
		"testdata/loader_test2.cue",
	}, testSchema)

	var strs []string
	for value, err := range loader.IterCueValues("str") {
		if err != nil {
			t.Fatal(err)
		}
		var s string
		if err := value.Decode(&s); err != nil {
			t.Fatal(err)
		}
		strs = append(strs, s)
	}
	if str := fmt.Sprintf("%v", strs); str != "[bar foo]" {
		t.Fatalf("got %q", str)
	}

	strs = strs[:0]
	for str := range All[string](loader, "str") {
		strs = append(strs, str)
	}
	if str := fmt.Sprintf("%v", strs); str != "[bar foo]" {
		t.Fatalf("got %q", str)
	}
}

func TestLoadEngineSettings(t *testing.T) {
	settings, err := LoadEngineSettings([]string{"testdata/engine.cue"})
	if err != nil {
		t.Fatal(err)
	}
	if settings.MaxRecursionDepth != 500 {
		t.Fatalf("got %d", settings.MaxRecursionDepth)
	}
	if settings.LogLevel != "debug" {
		t.Fatalf("got %q", settings.LogLevel)
	}
	if fmt.Sprintf("%v", settings.ModuleSearchPaths) != "[./scripts ./vendor]" {
		t.Fatalf("got %v", settings.ModuleSearchPaths)
	}
}

func TestLoadEngineSettingsDefaultsRecursionDepth(t *testing.T) {
	settings, err := LoadEngineSettings([]string{"testdata/engine2.cue"})
	if err != nil {
		t.Fatal(err)
	}
	if settings.MaxRecursionDepth != 1000 {
		t.Fatalf("got %d", settings.MaxRecursionDepth)
	}
}

func TestLookupPyValueConvertsStructAndList(t *testing.T) {
	loader := NewLoader([]string{"testdata/loader_test.cue"}, testSchema)

	v, err := loader.LookupPyValue("")
	if err != nil {
		t.Fatal(err)
	}
	d, ok := v.(*pyvm.Dict)
	if !ok {
		t.Fatalf("got %T", v)
	}
	if got := pyvm.Repr(d); got != `{"str": "bar", "list": [1, 2, 3]}` {
		t.Fatalf("got %s", got)
	}

	v, err = loader.LookupPyValue("str")
	if err != nil {
		t.Fatal(err)
	}
	if v != "bar" {
		t.Fatalf("got %v", v)
	}

	v, err = loader.LookupPyValue("list")
	if err != nil {
		t.Fatal(err)
	}
	list, ok := v.(*pyvm.List)
	if !ok {
		t.Fatalf("got %T", v)
	}
	if got := pyvm.Repr(list); got != "[1, 2, 3]" {
		t.Fatalf("got %s", got)
	}
}

func TestLookupPyValueMissingPathFaults(t *testing.T) {
	loader := NewLoader([]string{"testdata/loader_test.cue"}, testSchema)
	if _, err := loader.LookupPyValue("missing"); !errors.Is(err, ErrValueNotFound) {
		t.Fatalf("got %v", err)
	}
}
