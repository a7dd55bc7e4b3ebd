package testfixtures

import "time"

var referenceTime = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// StyleSamples returns a valid set of writing samples for profile intake.
func StyleSamples() []string {
	return []string{
		"omw, grabbing coffee first",
		"lol no way",
		"k sounds good",
	}
}
