// Package gps decodes the NMEA 0183 sentences written by a GNSS receiver logger.
//
// It is intentionally small and geared toward accuracy analysis:
// - GGA and GNS give time, fix quality and position (primary records)
// - GSA gives HDOP and the number of satellites used in the solution (secondary records)
// - "# START HHMMSS" header lines carry the commanded session start
//
// Every line produces a Result. Lines that are not position sentences are
// ignored; lines that look like one but fail validation are reported as
// malformed with the reason, and never abort the caller.
package gps
