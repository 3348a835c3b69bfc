package router

import "testing"

type testCtx struct{ called bool }

func TestMatchExactBeforeParameterised(t *testing.T) {
	r := New((*testCtx)(nil))
	var which string
	r.Register("/blog/{slug}", func(c *testCtx) error { which = "param"; return nil })
	r.Register("/blog/featured", func(c *testCtx) error { which = "exact"; return nil })

	handler, params, route, ok := r.Match("/blog/featured")
	if !ok {
		t.Fatalf("expected a match")
	}
	if err := Invoke(handler, &testCtx{}, route, params); err != nil {
		t.Fatal(err)
	}
	if which != "exact" {
		t.Fatalf("expected exact route to win even though parameterised route was registered first, got %q", which)
	}
}

func TestRouteParameterCasting(t *testing.T) {
	r := New((*testCtx)(nil))
	var gotYear int
	var gotMonth int
	var gotSlug string

	r.Register("/blog/{year}/{month}/{slug}",
		func(c *testCtx, year int, month int, slug string) error {
			gotYear, gotMonth, gotSlug = year, month, slug
			return nil
		},
		Param{Name: "year", Kind: KindInt},
		Param{Name: "month", Kind: KindInt},
		Param{Name: "slug", Kind: KindString},
	)

	handler, params, route, ok := r.Match("/blog/2024/12/hello")
	if !ok {
		t.Fatalf("expected match")
	}
	if err := Invoke(handler, &testCtx{}, route, params); err != nil {
		t.Fatal(err)
	}
	if gotYear != 2024 || gotMonth != 12 || gotSlug != "hello" {
		t.Fatalf("got year=%d month=%d slug=%q", gotYear, gotMonth, gotSlug)
	}
}

func TestRouteParameterCastingFloatAndBool(t *testing.T) {
	r := New((*testCtx)(nil))
	var price float64
	var active bool

	r.Register("/p/{price}/{active}",
		func(c *testCtx, price2 float64, active2 bool) error {
			price, active = price2, active2
			return nil
		},
		Param{Name: "price", Kind: KindFloat},
		Param{Name: "active", Kind: KindBool},
	)

	for _, truthy := range []string{"true", "1", "yes", "on"} {
		handler, params, route, ok := r.Match("/p/19.99/" + truthy)
		if !ok {
			t.Fatalf("expected match")
		}
		if err := Invoke(handler, &testCtx{}, route, params); err != nil {
			t.Fatal(err)
		}
		if price != 19.99 {
			t.Fatalf("got price=%v", price)
		}
		if !active {
			t.Fatalf("expected %q to be truthy", truthy)
		}
	}
}

func TestInvokeFallsBackToContextOnly(t *testing.T) {
	r := New((*testCtx)(nil))
	called := false
	r.Register("/plain", func(c *testCtx) error { called = true; return nil })

	handler, params, route, ok := r.Match("/plain")
	if !ok {
		t.Fatalf("expected match")
	}
	if err := Invoke(handler, &testCtx{}, route, params); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatalf("expected handler to be called")
	}
}

func TestNoMatch(t *testing.T) {
	r := New((*testCtx)(nil))
	r.Register("/a", func(c *testCtx) error { return nil })
	if _, _, _, ok := r.Match("/b"); ok {
		t.Fatalf("expected no match")
	}
}
