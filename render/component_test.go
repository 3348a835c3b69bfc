package render

import "testing"

func TestWrapComponentAddsContainerWhenNoRootID(t *testing.T) {
	wrapped, selector := WrapComponent("<span>hi</span>", "counter")
	if selector != "#c-counter" {
		t.Fatalf("got selector %q", selector)
	}
	if wrapped != `<div id="c-counter"><span>hi</span></div>` {
		t.Fatalf("got wrapped %q", wrapped)
	}
}

func TestWrapComponentReusesExistingRootID(t *testing.T) {
	wrapped, selector := WrapComponent(`<div id="counter-42">3</div>`, "counter")
	if selector != "#counter-42" {
		t.Fatalf("got selector %q", selector)
	}
	if wrapped != `<div id="counter-42">3</div>` {
		t.Fatalf("expected fragment to pass through unchanged, got %q", wrapped)
	}
}

func TestWrapComponentWrapsMultipleRootSiblings(t *testing.T) {
	_, selector := WrapComponent(`<span id="a">x</span><span id="b">y</span>`, "pair")
	if selector != "#c-pair" {
		t.Fatalf("expected a fresh container when fragment has more than one root element, got %q", selector)
	}
}

func TestWrapComponentWrapsRootElementWithoutID(t *testing.T) {
	_, selector := WrapComponent(`<span>no id here</span>`, "thing")
	if selector != "#c-thing" {
		t.Fatalf("expected a fresh container when root element has no id, got %q", selector)
	}
}
