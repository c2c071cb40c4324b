package symbol

// WildcardName is the parameter name that discards its argument during
// inlining.
const WildcardName = "_"

var (
	// List of frequently used symbols.
	Sample  = Intern("sample")
	Observe = Intern("observe")
	Dist    = Intern("dist")
	Map     = Intern("map")
	Zip     = Intern("zip")
	Len     = Intern("len")
	Range   = Intern("range")
	Vector  = Intern("vector")
	Zeros   = Intern("zeros")
	Ones    = Intern("ones")
	Loop    = Intern("loop")

	Wildcard = Intern(WildcardName)
)
