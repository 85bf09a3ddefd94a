package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dcshock/servicepipe/config"
	"github.com/dcshock/servicepipe/httpservices"
	"github.com/dcshock/servicepipe/pipeline"
)

// Shared keys used by the builtin services.
const (
	keyLast   = "last"
	keySuffix = "suffix"
	keyCount  = "count"
)

type builtin struct {
	name  string
	usage string
	svc   pipeline.Service[pipeline.Values]
}

func stringService(name string, fn func(string) string) pipeline.Service[pipeline.Values] {
	return pipeline.Typed(name, func(_ context.Context, in string, _ *pipeline.Shared[pipeline.Values]) (string, error) {
		return fn(in), nil
	})
}

func builtins() []builtin {
	return []builtin{
		{"upper", "upper-case the input", stringService("upper", strings.ToUpper)},
		{"lower", "lower-case the input", stringService("lower", strings.ToLower)},
		{"trim", "strip surrounding whitespace", stringService("trim", strings.TrimSpace)},
		{"reverse", "reverse the input runes", stringService("reverse", func(s string) string {
			r := []rune(s)
			slices.Reverse(r)
			return string(r)
		})},
		{"remember", "store the input under shared key \"" + keyLast + "\"", pipeline.Typed("remember",
			func(ctx context.Context, in string, shared *pipeline.Shared[pipeline.Values]) (string, error) {
				if err := pipeline.Set(ctx, shared, keyLast, in); err != nil {
					return "", err
				}
				return in, nil
			})},
		{"append-state", "append \"-<suffix>\" from shared key \"" + keySuffix + "\"", pipeline.Typed("append-state",
			func(ctx context.Context, in string, shared *pipeline.Shared[pipeline.Values]) (string, error) {
				suffix, ok, err := pipeline.Get[string](ctx, shared, keySuffix)
				if err != nil {
					return "", err
				}
				if !ok {
					return "", fmt.Errorf("no %q in shared state", keySuffix)
				}
				return in + "-" + suffix, nil
			})},
		{"count", "increment shared key \"" + keyCount + "\"", pipeline.UpdateShared(func(v pipeline.Values, _ any) (pipeline.Values, error) {
			n, _ := pipeline.Lookup[int](v, keyCount)
			return v.With(keyCount, n+1), nil
		})},
		{"strip-html", "remove HTML markup, keeping the text", httpservices.StripHTML[pipeline.Values]()},
		{"require-nonempty", "fail on empty input", pipeline.Validate[pipeline.Values](func(s string) bool {
			return s != ""
		}, "empty input")},
	}
}

func builtinRegistry() *config.Registry[pipeline.Values] {
	reg := config.NewRegistry[pipeline.Values]()
	for _, b := range builtins() {
		reg.Register(b.name, b.svc)
	}
	return reg
}
