// Package pycli is the reflection-based command dispatcher cmd/pye drives,
// adapted from reusee-tai/cmds: a Command tree built with Func/Sub, resolved
// against a flat argument list by an Executor. The teacher wires its
// -log-debug/-log-info flags through a dscope-injected Module hook; here
// cmd/pye defines them as plain commands that call pylog.SetLevel directly
// (see DESIGN.md's dropped-dependencies
// entry), and vars.StrToBool is inlined as strToBool since the vars package
// wasn't carried over. Unlike the teacher's cmds package, whose getArg only
// ever produces Go scalars for a host function's own parameters, a leaf here
// can also declare a trailing Rest parameter to receive the remaining CLI
// tokens converted straight into this engine's value model (ToPyArgs), so
// `pye run script.py 1 2.5 on` can bind a script's argv without cmd/pye
// needing its own argument-parsing layer.
package pycli

import (
	"fmt"
	"maps"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/embedpy/pye/pyvm"
)

// Command is one dispatch node: either a leaf backed by a reflected
// function, or a branch exposing further sub-commands once its own Func (if
// any) has run.
type Command struct {
	Func        reflect.Value
	Subs        map[string]*Command
	Description string
	Aliases     []string
}

func (c *Command) Desc(desc string) *Command {
	c.Description = desc
	return c
}

func (c *Command) Alias(names ...string) *Command {
	c.Aliases = append(c.Aliases, names...)
	return c
}

var errorType = reflect.TypeFor[error]()

// Rest is a leaf Command parameter type that collects every CLI token still
// unconsumed at that position, instead of consuming exactly one the way
// every other getArg type does. A Func whose last parameter is Rest is
// handed the remainder of args verbatim; ToPyArgs then converts each token
// into a pyvm value for a script to consume as its own argv.
type Rest []string

var restType = reflect.TypeFor[Rest]()

// ToPyArgs converts each CLI token in r into this engine's value model
// (int64, float64, bool, or string — tried in that order, the same
// preference pysyntax's own literal lexing gives numbers and booleans over
// bare identifiers), wrapped as a *pyvm.List ready to bind as a script
// global such as argv.
func ToPyArgs(r Rest) *pyvm.List {
	elems := make([]any, len(r))
	for i, tok := range r {
		elems[i] = ParsePyValue(tok)
	}
	return pyvm.NewList(elems)
}

// ParsePyValue converts one CLI token into this engine's value model.
func ParsePyValue(tok string) any {
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f
	}
	switch tok {
	case "true":
		return true
	case "false":
		return false
	}
	return tok
}

// Func wraps fn (taking zero or more scalar/pointer-scalar arguments and
// returning nothing or an error) as a leaf Command.
func Func(fn any) *Command {
	fnValue := reflect.ValueOf(fn)

	if fnValue.Kind() != reflect.Func {
		panic(fmt.Errorf("pycli: must be function, got %T", fn))
	}

	numRets := fnValue.Type().NumOut()
	if numRets >= 2 {
		panic(fmt.Errorf("pycli: must return 0 or 1 value"))
	}
	if numRets == 1 && fnValue.Type().Out(0) != errorType {
		panic(fmt.Errorf("pycli: must return error"))
	}

	return &Command{Func: fnValue}
}

// Sub wraps a set of named sub-commands as a branch Command.
func Sub(subs map[string]*Command) *Command {
	return &Command{Subs: subs}
}

// Executor resolves a flat argument list against a registered Command set,
// descending into Subs as each name is consumed.
type Executor struct {
	commands map[string]*Command
	order    []string
}

func NewExecutor() *Executor {
	ret := &Executor{
		commands: make(map[string]*Command),
	}

	usage := Func(func() {
		ret.PrintUsage()
		os.Exit(0)
	}).
		Desc("print this usage").
		Alias("help", "-help", "--help")
	ret.Define("-h", usage)

	return ret
}

func (p *Executor) Define(name string, command *Command) {
	if _, ok := p.commands[name]; ok {
		panic(fmt.Errorf("pycli: duplicated command %s", name))
	}
	p.commands[name] = command
	p.order = append(p.order, name)
	for _, alias := range command.Aliases {
		if _, ok := p.commands[alias]; ok {
			panic(fmt.Errorf("pycli: duplicated command %s", alias))
		}
		p.commands[alias] = command
	}
}

func (p *Executor) Execute(args []string) error {
	commands := p.commands
	for {
		if len(args) == 0 {
			return nil
		}

		name := strings.TrimSpace(args[0])
		args = args[1:]

		command, ok := commands[name]
		if !ok {
			return fmt.Errorf("pycli: unknown command: %s", name)
		}

		if command.Func.IsValid() {
			var callArgs []reflect.Value
			for i, max := 0, command.Func.Type().NumIn(); i < max; i++ {
				if command.Func.Type().In(i) == restType {
					callArgs = append(callArgs, reflect.ValueOf(Rest(args)))
					args = nil
					break
				}
				value, err := getArg(command.Func.Type().In(i), args)
				if err != nil {
					return err
				}
				if len(args) > 0 {
					args = args[1:]
				}
				callArgs = append(callArgs, value)
			}
			rets := command.Func.Call(callArgs)
			if len(rets) > 0 {
				if err, _ := rets[0].Interface().(error); err != nil {
					return err
				}
			}
		}

		if len(command.Subs) > 0 {
			commands = maps.Clone(commands)
			for subname, cmd := range command.Subs {
				if _, ok := commands[subname]; ok {
					return fmt.Errorf("pycli: duplicated sub command: %s %s", name, subname)
				}
				commands[subname] = cmd
			}
		}
	}
}

func (p *Executor) MustExecute(args []string) {
	if err := p.Execute(args); err != nil {
		panic(err)
	}
}

// PrintUsage lists every top-level command (and, indented, its direct
// sub-commands) along with its description, sorted by name.
func (p *Executor) PrintUsage() {
	fmt.Fprintln(os.Stderr, "usage: pye <command> [args...]")
	names := make([]string, len(p.order))
	copy(names, p.order)
	sort.Strings(names)
	for _, name := range names {
		cmd := p.commands[name]
		fmt.Fprintf(os.Stderr, "  %-20s %s\n", name, cmd.Description)
		if len(cmd.Subs) > 0 {
			subnames := make([]string, 0, len(cmd.Subs))
			for sub := range cmd.Subs {
				subnames = append(subnames, sub)
			}
			sort.Strings(subnames)
			for _, sub := range subnames {
				fmt.Fprintf(os.Stderr, "    %-18s %s\n", sub, cmd.Subs[sub].Description)
			}
		}
	}
}

func getArg(t reflect.Type, args []string) (ret reflect.Value, err error) {
	if len(args) == 0 {
		if t.Kind() == reflect.Pointer {
			return reflect.New(t.Elem()), nil
		}
		return ret, fmt.Errorf("pycli: expecting argument, got nothing")
	}

	if t.Kind() == reflect.Pointer {
		elemValue, err := getArg(t.Elem(), args)
		if err != nil {
			return ret, err
		}
		return elemValue.Addr(), nil
	}

	str := args[0]
	ret = reflect.New(t).Elem()

	switch t.Kind() {

	case reflect.Bool:
		ret.SetBool(strToBool(str))
		return ret, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return ret, fmt.Errorf("pycli: convert %s to int: %w", str, err)
		}
		ret.SetInt(v)
		return ret, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(str, 10, 64)
		if err != nil {
			return ret, fmt.Errorf("pycli: convert %s to unsigned int: %w", str, err)
		}
		ret.SetUint(v)
		return ret, nil

	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return ret, fmt.Errorf("pycli: convert %s to float: %w", str, err)
		}
		ret.SetFloat(v)
		return ret, nil

	case reflect.String:
		ret.SetString(str)
		return ret, nil
	}

	return ret, fmt.Errorf("pycli: unsupported type: %v", t)
}

// strToBool accepts the usual truthy/falsy spellings a flag value might
// arrive as; anything unrecognized is false.
func strToBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}
