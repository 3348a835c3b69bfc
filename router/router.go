// Package router implements via's pattern-compiling HTTP router
// (spec.md §4.1): ordered (pattern, handler) registration, path
// matching with `{name}` placeholder segments, and parameter injection
// into a handler's formal parameters by declared type.
//
// Go's reflect package cannot recover a function's parameter *names* at
// runtime — that information does not survive compilation. spec.md §9's
// Design Notes anticipate exactly this gap ("expose a registration form
// that accepts a handler and a description of its parameters"), so
// Register takes an explicit []Param alongside the handler: each Param
// names the path placeholder it binds to positional argument N+1 (N+1
// because argument 0 is always the context value).
package router

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Kind describes how a path parameter is cast before being passed to a
// handler, per the casting table in spec.md §4.1.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

// Param describes one formal parameter of a registered handler, after
// the leading context argument.
type Param struct {
	Name     string
	Kind     Kind
	Optional bool
	Default  any
}

// truthySet is the boolean truthy set from spec.md §4.1.
var truthySet = map[string]bool{"true": true, "1": true, "yes": true, "on": true}

type route struct {
	pattern  string
	segments []segment
	handler  any
	params   []Param
}

// Pattern returns the route's registered pattern string. Exported as a
// method (rather than the unexported route type itself) so callers
// that only hold a *route from Match can still recover it.
func (r *route) Pattern() string { return r.pattern }

type segment struct {
	literal     string
	isParam     bool
	paramName   string
}

// Router holds an ordered list of (pattern, handler) registrations and
// matches incoming paths against them.
type Router struct {
	ctxType reflect.Type
	routes  []*route
}

// New creates a Router. ctxZero is a nil value of the context pointer
// type handlers expect as their first argument (e.g. (*viactx.Context)(nil));
// Router uses its reflect.Type to identify that argument by type, per
// spec.md §4.1 ("the Context argument is identified by type").
func New(ctxZero any) *Router {
	return &Router{ctxType: reflect.TypeOf(ctxZero)}
}

// Register records a (pattern, handler) pair. pattern segments wrapped
// in braces, e.g. "/blog/{year}/{month}/{slug}", are placeholders;
// params describes how each placeholder binds to the handler's
// trailing formal parameters, in declaration order.
func (r *Router) Register(pattern string, handler any, params ...Param) {
	r.routes = append(r.routes, &route{
		pattern:  pattern,
		segments: compile(pattern),
		handler:  handler,
		params:   params,
	})
}

func compile(pattern string) []segment {
	parts := strings.Split(strings.Trim(pattern, "/"), "/")
	segments := make([]segment, len(parts))
	for i, p := range parts {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			segments[i] = segment{isParam: true, paramName: p[1 : len(p)-1]}
		} else {
			segments[i] = segment{literal: p}
		}
	}
	return segments
}

// Match finds the first registered route whose pattern matches path.
// Exact (non-parameterised) patterns are tested before parameterised
// ones, each group preserving registration order, per spec.md §4.1.
func (r *Router) Match(path string) (handler any, params map[string]string, matched *route, ok bool) {
	var exact, parameterised []*route
	for _, rt := range r.routes {
		if strings.Contains(rt.pattern, "{") {
			parameterised = append(parameterised, rt)
		} else {
			exact = append(exact, rt)
		}
	}

	for _, rt := range append(exact, parameterised...) {
		if values, matched := matchSegments(rt.segments, path); matched {
			return rt.handler, values, rt, true
		}
	}
	return nil, nil, nil, false
}

func matchSegments(segments []segment, path string) (map[string]string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != len(segments) {
		return nil, false
	}
	values := make(map[string]string)
	for i, seg := range segments {
		if seg.isParam {
			values[seg.paramName] = parts[i]
			continue
		}
		if seg.literal != parts[i] {
			return nil, false
		}
	}
	return values, true
}

// Invoke calls handler with ctxValue as its first argument (found by
// type) and every Param of matched route bound from values, cast per
// its declared Kind. If reflection fails for any reason, Invoke falls
// back to calling handler(ctxValue) only, per spec.md §4.1.
func Invoke(handler any, ctxValue any, route *route, values map[string]string) error {
	fv := reflect.ValueOf(handler)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("router: handler is not a function")
	}

	args, ok := bindArgs(ft, ctxValue, route, values)
	if !ok {
		args = []reflect.Value{reflect.ValueOf(ctxValue)}
	}

	out := fv.Call(args)
	return firstError(out)
}

func bindArgs(ft reflect.Type, ctxValue any, route *route, values map[string]string) ([]reflect.Value, bool) {
	defer func() { recover() }() //nolint:errcheck // reflection fallback guard

	if ft.NumIn() == 0 {
		return nil, false
	}

	args := make([]reflect.Value, ft.NumIn())
	ctxVal := reflect.ValueOf(ctxValue)
	placed := false

	paramIdx := 0
	for i := 0; i < ft.NumIn(); i++ {
		paramType := ft.In(i)
		if !placed && paramType == ctxVal.Type() {
			args[i] = ctxVal
			placed = true
			continue
		}
		if route == nil || paramIdx >= len(route.params) {
			return nil, false
		}
		p := route.params[paramIdx]
		paramIdx++
		args[i] = castParam(paramType, p, values[p.Name], hasValue(values, p.Name))
	}

	if !placed {
		return nil, false
	}
	return args, true
}

func hasValue(values map[string]string, name string) bool {
	_, ok := values[name]
	return ok
}

func castParam(paramType reflect.Type, p Param, raw string, present bool) reflect.Value {
	if !present {
		if p.Default != nil {
			return reflect.ValueOf(p.Default).Convert(paramType)
		}
		if p.Optional {
			return reflect.Zero(paramType)
		}
		return reflect.ValueOf("").Convert(paramType)
	}

	switch p.Kind {
	case KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return reflect.Zero(paramType)
		}
		return reflect.ValueOf(n).Convert(paramType)
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return reflect.Zero(paramType)
		}
		return reflect.ValueOf(f).Convert(paramType)
	case KindBool:
		return reflect.ValueOf(truthySet[strings.ToLower(raw)]).Convert(paramType)
	default:
		return reflect.ValueOf(raw).Convert(paramType)
	}
}

func firstError(out []reflect.Value) error {
	for _, v := range out {
		if err, ok := v.Interface().(error); ok && err != nil {
			return err
		}
	}
	return nil
}
