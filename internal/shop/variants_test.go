package shop

import (
	"testing"

	"github.com/evercart/evercart/internal/domain"
)

func TestNormalizeAttributes(t *testing.T) {
	attrs := domain.AttributeList{
		{Name: " Color ", Values: []string{"Red", " Blue ", "Red", ""}},
		{Name: "", Values: nil}, // blank placeholder row
	}
	out := NormalizeAttributes(attrs)
	if len(out) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(out))
	}
	if out[0].Name != "Color" {
		t.Fatalf("name not trimmed: %q", out[0].Name)
	}
	if len(out[0].Values) != 2 || out[0].Values[0] != "Red" || out[0].Values[1] != "Blue" {
		t.Fatalf("values not normalized: %v", out[0].Values)
	}
}

func TestValidateVariantsSubsetInvariant(t *testing.T) {
	attrs := domain.AttributeList{
		{Name: "Color", Values: []string{"Red", "Blue"}},
		{Name: "Size", Values: []string{"S", "M"}},
	}
	ok := domain.VariantList{
		{Selection: map[string]string{"Color": "Red", "Size": "S"}, Price: 12, Stock: 3},
	}
	if err := ValidateVariants(attrs, ok); err != nil {
		t.Fatalf("valid variant rejected: %v", err)
	}

	badAttr := domain.VariantList{{Selection: map[string]string{"Material": "Wool"}}}
	if err := ValidateVariants(attrs, badAttr); err == nil {
		t.Fatalf("undeclared attribute must be rejected")
	}

	badValue := domain.VariantList{{Selection: map[string]string{"Color": "Green"}}}
	if err := ValidateVariants(attrs, badValue); err == nil {
		t.Fatalf("disallowed value must be rejected")
	}
}

// Removing an attribute orphans existing variant selections; pruning must
// drop just the orphaned key and keep the variant usable.
func TestPruneVariantSelectionsOrphans(t *testing.T) {
	attrs := domain.AttributeList{
		{Name: "Color", Values: []string{"Red", "Blue"}},
	}
	variants := domain.VariantList{
		{Selection: map[string]string{"Color": "Red", "Size": "S"}, Price: 9, Stock: 1},
	}
	pruned := PruneVariantSelections(attrs, variants)
	if len(pruned) != 1 {
		t.Fatalf("variant dropped unexpectedly")
	}
	if _, ok := pruned[0].Selection["Size"]; ok {
		t.Fatalf("orphaned selection not pruned: %v", pruned[0].Selection)
	}
	if pruned[0].Selection["Color"] != "Red" {
		t.Fatalf("surviving selection lost: %v", pruned[0].Selection)
	}
	if err := ValidateVariants(attrs, pruned); err != nil {
		t.Fatalf("pruned variants must validate: %v", err)
	}
}

func TestOrderTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{domain.OrderPending, domain.OrderShipped, true},
		{domain.OrderPending, domain.OrderCancelled, true},
		{domain.OrderPending, domain.OrderDelivered, false},
		{domain.OrderShipped, domain.OrderDelivered, true},
		{domain.OrderShipped, domain.OrderCancelled, false},
		{domain.OrderDelivered, domain.OrderRefunded, true},
		{domain.OrderCancelled, domain.OrderShipped, false},
		{domain.OrderRefunded, domain.OrderPending, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Fatalf("CanTransition(%s,%s)=%v want %v", c.from, c.to, got, c.want)
		}
	}
	if !IsTerminal(domain.OrderCancelled) || IsTerminal(domain.OrderPending) {
		t.Fatalf("terminal detection wrong")
	}
}
