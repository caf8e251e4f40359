package synch

import "github.com/kolkov/ksynch/internal/kassert"

// InvariantViolation is the panic value of every fatal misuse check.
type InvariantViolation = kassert.Violation

// AsInvariantViolation reports whether a recovered panic value is a fatal
// misuse check and returns it.
//
//	defer func() {
//		if v, ok := synch.AsInvariantViolation(recover()); ok {
//			log.Printf("%s on %s: %s", v.Op, v.Object, v.Msg)
//		}
//	}()
func AsInvariantViolation(r any) (*InvariantViolation, bool) {
	return kassert.As(r)
}
