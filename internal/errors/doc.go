// Package errors provides structured, actionable error values for folio.
//
// Every error carries a stable code (e.g. "E001") registered in this package.
// The code maps to a category, a short message and a longer explanation, so
// the CLI can print a helpful report and callers can branch on the code
// instead of matching strings.
//
// # Error Categories
//
//   - toggle: optimistic toggle reconciliation (request failed, mismatch)
//   - document: editor mutations and attachment tracking
//   - upload: image upload storage
//   - config: folio.json / folio.yaml problems
//   - cli: command line usage
//
// # Usage
//
//	err := errors.New("E001").
//	    WithDetail("POST /api/portfolio/12/add-like returned 500").
//	    Wrap(cause)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E001: Toggle request failed
//	//
//	//   POST /api/portfolio/12/add-like returned 500
//	//
//	//   Hint: Click again to retry
package errors
