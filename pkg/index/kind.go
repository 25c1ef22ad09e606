package index

// Kind classifies a declaration or reference. Values round-trip to the
// string form emitted by index providers.
type Kind string

// Type kinds.
const (
	KindClass            Kind = "class"
	KindStruct           Kind = "struct"
	KindEnum             Kind = "enum"
	KindProtocol         Kind = "protocol"
	KindTypealias        Kind = "typealias"
	KindAssociatedType   Kind = "associatedtype"
	KindEnumElement      Kind = "enumelement"
	KindGenericTypeParam Kind = "genericTypeParam"
	KindModule           Kind = "module"
	KindPrecedenceGroup  Kind = "precedenceGroup"
)

// Extension kinds.
const (
	KindExtension         Kind = "extension"
	KindExtensionClass    Kind = "extension.class"
	KindExtensionStruct   Kind = "extension.struct"
	KindExtensionEnum     Kind = "extension.enum"
	KindExtensionProtocol Kind = "extension.protocol"
)

// Function kinds.
const (
	KindFunctionFree                   Kind = "function.free"
	KindFunctionMethodInstance         Kind = "function.method.instance"
	KindFunctionMethodClass            Kind = "function.method.class"
	KindFunctionMethodStatic           Kind = "function.method.static"
	KindFunctionConstructor            Kind = "function.constructor"
	KindFunctionDestructor             Kind = "function.destructor"
	KindFunctionSubscript              Kind = "function.subscript"
	KindFunctionOperator               Kind = "function.operator"
	KindFunctionOperatorInfix          Kind = "function.operator.infix"
	KindFunctionOperatorPrefix         Kind = "function.operator.prefix"
	KindFunctionOperatorPostfix        Kind = "function.operator.postfix"
	KindFunctionAccessorGetter         Kind = "function.accessor.getter"
	KindFunctionAccessorSetter         Kind = "function.accessor.setter"
	KindFunctionAccessorWillSet        Kind = "function.accessor.willset"
	KindFunctionAccessorDidSet         Kind = "function.accessor.didset"
	KindFunctionAccessorAddress        Kind = "function.accessor.address"
	KindFunctionAccessorMutableAddress Kind = "function.accessor.mutableaddress"
)

// Variable kinds.
const (
	KindVarInstance  Kind = "var.instance"
	KindVarClass     Kind = "var.class"
	KindVarStatic    Kind = "var.static"
	KindVarGlobal    Kind = "var.global"
	KindVarLocal     Kind = "var.local"
	KindVarParameter Kind = "var.parameter"
)

// Classification tables. Membership is explicit rather than derived from
// string prefixes so that adding a kind is a conscious decision.
var (
	typeKinds = kindSet(
		KindClass, KindStruct, KindEnum, KindProtocol, KindTypealias,
		KindAssociatedType, KindEnumElement, KindGenericTypeParam,
		KindModule, KindPrecedenceGroup,
	)

	extensionKinds = kindSet(
		KindExtension, KindExtensionClass, KindExtensionStruct,
		KindExtensionEnum, KindExtensionProtocol,
	)

	functionKinds = kindSet(
		KindFunctionFree, KindFunctionMethodInstance, KindFunctionMethodClass,
		KindFunctionMethodStatic, KindFunctionConstructor, KindFunctionDestructor,
		KindFunctionSubscript, KindFunctionOperator, KindFunctionOperatorInfix,
		KindFunctionOperatorPrefix, KindFunctionOperatorPostfix,
		KindFunctionAccessorGetter, KindFunctionAccessorSetter,
		KindFunctionAccessorWillSet, KindFunctionAccessorDidSet,
		KindFunctionAccessorAddress, KindFunctionAccessorMutableAddress,
	)

	accessorKinds = kindSet(
		KindFunctionAccessorGetter, KindFunctionAccessorSetter,
		KindFunctionAccessorWillSet, KindFunctionAccessorDidSet,
		KindFunctionAccessorAddress, KindFunctionAccessorMutableAddress,
	)

	variableKinds = kindSet(
		KindVarInstance, KindVarClass, KindVarStatic,
		KindVarGlobal, KindVarLocal, KindVarParameter,
	)
)

func kindSet(kinds ...Kind) map[Kind]bool {
	s := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

// allKinds is the closed set of valid kinds.
var allKinds = func() map[Kind]bool {
	s := make(map[Kind]bool)
	for _, group := range []map[Kind]bool{typeKinds, extensionKinds, functionKinds, variableKinds} {
		for k := range group {
			s[k] = true
		}
	}
	return s
}()

// ParseKind validates a provider kind string. ok is false for strings
// outside the closed enumeration.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	return k, allKinds[k]
}

// String returns the provider string form.
func (k Kind) String() string { return string(k) }

// IsType reports whether the kind is a type kind.
func (k Kind) IsType() bool { return typeKinds[k] }

// IsFunction reports whether the kind is a function kind, accessors included.
func (k Kind) IsFunction() bool { return functionKinds[k] }

// IsVariable reports whether the kind is a variable kind.
func (k Kind) IsVariable() bool { return variableKinds[k] }

// IsExtension reports whether the kind is an extension kind.
func (k Kind) IsExtension() bool { return extensionKinds[k] }

// IsAccessor reports whether the kind is a property accessor.
func (k Kind) IsAccessor() bool { return accessorKinds[k] }

// IsMethod reports whether the kind is an instance, class or static method.
func (k Kind) IsMethod() bool {
	return k == KindFunctionMethodInstance || k == KindFunctionMethodClass || k == KindFunctionMethodStatic
}

// ReferenceEquivalent returns the reference kind matching this declaration
// kind. Declaration and reference kinds share the same string space, so the
// mapping is the identity; it exists so call sites state which side of the
// edge they mean.
func (k Kind) ReferenceEquivalent() Kind { return k }

// extendedKinds maps an extension kind to the kind of the type it extends.
var extendedKinds = map[Kind]Kind{
	KindExtensionClass:    KindClass,
	KindExtensionStruct:   KindStruct,
	KindExtensionEnum:     KindEnum,
	KindExtensionProtocol: KindProtocol,
}

// ExtendedKind returns the kind of type extended by an extension kind.
// ok is false for KindExtension (unknown extended type) and non-extensions.
func (k Kind) ExtendedKind() (Kind, bool) {
	e, ok := extendedKinds[k]
	return e, ok
}

// ExtensionKindFor returns the extension kind for a given type kind.
func ExtensionKindFor(k Kind) (Kind, bool) {
	for ext, base := range extendedKinds {
		if base == k {
			return ext, true
		}
	}
	return KindExtension, false
}
