package index

import "testing"

func TestParseKindRoundTrip(t *testing.T) {
	for k := range allKinds {
		parsed, ok := ParseKind(k.String())
		if !ok || parsed != k {
			t.Errorf("round trip failed for %q", k)
		}
	}
	if _, ok := ParseKind("banana"); ok {
		t.Error("unknown kind accepted")
	}
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		kind        Kind
		isFunction  bool
		isVariable  bool
		isExtension bool
		isAccessor  bool
	}{
		{KindClass, false, false, false, false},
		{KindFunctionFree, true, false, false, false},
		{KindFunctionAccessorGetter, true, false, false, true},
		{KindVarParameter, false, true, false, false},
		{KindExtensionProtocol, false, false, true, false},
		{KindFunctionOperatorInfix, true, false, false, false},
	}
	for _, tt := range tests {
		if got := tt.kind.IsFunction(); got != tt.isFunction {
			t.Errorf("%s IsFunction = %v", tt.kind, got)
		}
		if got := tt.kind.IsVariable(); got != tt.isVariable {
			t.Errorf("%s IsVariable = %v", tt.kind, got)
		}
		if got := tt.kind.IsExtension(); got != tt.isExtension {
			t.Errorf("%s IsExtension = %v", tt.kind, got)
		}
		if got := tt.kind.IsAccessor(); got != tt.isAccessor {
			t.Errorf("%s IsAccessor = %v", tt.kind, got)
		}
	}
}

func TestExtendedKind(t *testing.T) {
	if k, ok := KindExtensionEnum.ExtendedKind(); !ok || k != KindEnum {
		t.Errorf("ExtendedKind(extension.enum) = %s, %v", k, ok)
	}
	if _, ok := KindExtension.ExtendedKind(); ok {
		t.Error("bare extension has no statically known extended kind")
	}
	if _, ok := KindClass.ExtendedKind(); ok {
		t.Error("non-extension has no extended kind")
	}
	if ext, ok := ExtensionKindFor(KindStruct); !ok || ext != KindExtensionStruct {
		t.Errorf("ExtensionKindFor(struct) = %s, %v", ext, ok)
	}
	if ext, ok := ExtensionKindFor(KindTypealias); ok || ext != KindExtension {
		t.Errorf("ExtensionKindFor(typealias) = %s, %v", ext, ok)
	}
}

func TestAccessibilityOrdering(t *testing.T) {
	order := []Accessibility{AccessPrivate, AccessFilePrivate, AccessInternal, AccessPublic, AccessOpen}
	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Errorf("%s must order below %s", order[i-1], order[i])
		}
	}
	if AccessOpen.Min(AccessFilePrivate) != AccessFilePrivate {
		t.Error("Min picks the lower level")
	}
	if !AccessPublic.IsPublicOrOpen() || AccessInternal.IsPublicOrOpen() {
		t.Error("IsPublicOrOpen boundary wrong")
	}
	if a, err := ParseAccessibility("fileprivate"); err != nil || a != AccessFilePrivate {
		t.Errorf("ParseAccessibility = %v, %v", a, err)
	}
	if _, err := ParseAccessibility("protected"); err == nil {
		t.Error("unknown accessibility accepted")
	}
}

func TestLocationCompare(t *testing.T) {
	a := Location{File: "/a.swift", Line: 1, Column: 1}
	b := Location{File: "/a.swift", Line: 1, Column: 9}
	c := Location{File: "/b.swift", Line: 1, Column: 1}

	if !a.Before(b) || !b.Before(c) || c.Before(a) {
		t.Error("lexicographic ordering broken")
	}
	if a.Compare(a) != 0 {
		t.Error("equal locations must compare 0")
	}
	if got := b.String(); got != "/a.swift:1:9" {
		t.Errorf("String() = %q", got)
	}
}
