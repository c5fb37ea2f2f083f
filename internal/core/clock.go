package core

import "time"

// All appointment arithmetic happens in the clinic's time zone.  Argentina
// does not observe DST, so the fixed offset fallback is equivalent when the
// zone database is unavailable.
var clinicZone = func() *time.Location {
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	if err != nil {
		return time.FixedZone("-03", -3*60*60)
	}
	return loc
}()

// ClinicZone returns the fixed time zone all bookings are interpreted in.
func ClinicZone() *time.Location { return clinicZone }
