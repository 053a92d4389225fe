package shop

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/evercart/evercart/internal/domain"
)

// NormalizeAttributes trims names/values and drops blank placeholder rows
// the form controller keeps around for usability.
func NormalizeAttributes(attrs domain.AttributeList) domain.AttributeList {
	out := make(domain.AttributeList, 0, len(attrs))
	for _, attr := range attrs {
		name := strings.TrimSpace(attr.Name)
		values := make([]string, 0, len(attr.Values))
		seen := make(map[string]struct{})
		for _, v := range attr.Values {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
		if name == "" {
			continue
		}
		out = append(out, domain.Attribute{Name: name, Values: values})
	}
	return out
}

// PruneVariantSelections removes selection entries that reference
// attributes no longer declared on the product. A variant whose Size
// attribute was deleted keeps its other selections and must never fail.
func PruneVariantSelections(attrs domain.AttributeList, variants domain.VariantList) domain.VariantList {
	declared := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		declared[a.Name] = struct{}{}
	}
	out := make(domain.VariantList, 0, len(variants))
	for _, v := range variants {
		sel := make(map[string]string, len(v.Selection))
		for name, value := range v.Selection {
			if _, ok := declared[name]; ok {
				sel[name] = value
			}
		}
		v.Selection = sel
		out = append(out, v)
	}
	return out
}

// ValidateVariants enforces the invariant that every variant selection is
// a subset of the declared attributes and their allowed values.
func ValidateVariants(attrs domain.AttributeList, variants domain.VariantList) error {
	allowed := make(map[string]map[string]struct{}, len(attrs))
	for _, a := range attrs {
		vals := make(map[string]struct{}, len(a.Values))
		for _, v := range a.Values {
			vals[v] = struct{}{}
		}
		allowed[a.Name] = vals
	}
	for i, variant := range variants {
		if variant.Price < 0 {
			return errors.Errorf("variant %d: negative price", i+1)
		}
		if variant.Stock < 0 {
			return errors.Errorf("variant %d: negative stock", i+1)
		}
		for name, value := range variant.Selection {
			vals, ok := allowed[name]
			if !ok {
				return errors.Errorf("variant %d: attribute %q is not declared on the product", i+1, name)
			}
			if _, ok := vals[value]; !ok {
				return errors.Errorf("variant %d: value %q is not allowed for attribute %q", i+1, value, name)
			}
		}
	}
	return nil
}
