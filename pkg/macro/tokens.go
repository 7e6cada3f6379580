// tokens.go defines the invocation token produced by the scanner.
package macro

// DefaultMethod is invoked when a token does not name a method.
const DefaultMethod = "run"

// Token is one macro invocation matched in a scan pass.
//
//	{=Name::method(p1, p2)|selector=}
type Token struct {
	Raw        string // the exact text matched, used for positions and diagnostics
	Name       string // handler name
	Method     string // method to invoke, DefaultMethod when omitted
	Parameters string // unparsed argument list, empty when omitted
	Context    string // inline context selector, empty when omitted
	Position   int    // byte offset of the match in the scanned text
}

// Identifier returns the Name[::method] form used for timing labels and
// records. The method is omitted when it is the default.
func (t Token) Identifier() string {
	if t.Method == "" || t.Method == DefaultMethod {
		return t.Name
	}
	return t.Name + "::" + t.Method
}
