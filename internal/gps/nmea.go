package gps

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Sentence types the parser decodes; all others are ignored.
const (
	TypeGGA = nmea.TypeGGA
	TypeGNS = nmea.TypeGNS
	TypeGSA = nmea.TypeGSA
)

// Kind classifies the outcome of parsing one log line.
type Kind int

const (
	KindIgnored Kind = iota
	KindHeader
	KindFix
	KindAux
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindFix:
		return "fix"
	case KindAux:
		return "aux"
	case KindMalformed:
		return "malformed"
	default:
		return "ignored"
	}
}

// Result is the outcome of ParseLine. Exactly one of Fix, Aux or Start is
// meaningful, selected by Kind. Err is set only for KindMalformed.
type Result struct {
	Kind  Kind
	Type  string
	Fix   FixRecord
	Aux   AuxRecord
	Start TimeOfDay
	Err   error
}

// ParseLine decodes one raw log line.
func ParseLine(line string) Result {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return Result{Kind: KindIgnored}
	case strings.HasPrefix(line, "#"):
		return parseHeader(line)
	case !strings.HasPrefix(line, "$"):
		return Result{Kind: KindIgnored}
	}

	typ := sentenceType(line)
	switch typ {
	case TypeGGA, TypeGNS, TypeGSA:
	default:
		return Result{Kind: KindIgnored, Type: typ}
	}

	s, err := parseNMEASentence(line)
	if err != nil {
		return Result{Kind: KindMalformed, Type: typ, Err: err}
	}

	switch typ {
	case TypeGSA:
		aux, err := decodeGSA(s)
		if err != nil {
			return Result{Kind: KindMalformed, Type: typ, Err: err}
		}
		return Result{Kind: KindAux, Type: typ, Aux: aux}
	default:
		fix, err := decodeFix(s)
		if err != nil {
			return Result{Kind: KindMalformed, Type: typ, Err: err}
		}
		return Result{Kind: KindFix, Type: typ, Fix: fix}
	}
}

func parseHeader(line string) Result {
	f := strings.Fields(strings.TrimPrefix(line, "#"))
	if len(f) == 0 || f[0] != "START" {
		return Result{Kind: KindIgnored}
	}
	if len(f) != 2 {
		return Result{Kind: KindMalformed, Err: fieldErr("start", strings.Join(f[1:], " "), "expected one hhmmss value")}
	}
	tod, err := ParseTimeOfDay(f[1])
	if err != nil {
		return Result{Kind: KindMalformed, Err: fieldErr("start", f[1], err.Error())}
	}
	return Result{Kind: KindHeader, Start: tod}
}

// sentenceType returns the last three characters of the address field,
// upper-cased, so GP/GN/GL/GA/BD talkers all map to the same type.
func sentenceType(line string) string {
	addr := line[1:]
	if i := strings.IndexAny(addr, ",*"); i != -1 {
		addr = addr[:i]
	}
	if len(addr) < 3 {
		return ""
	}
	return strings.ToUpper(addr[len(addr)-3:])
}

type nmeaSentence struct {
	Type string
	// Fields is the comma-split NMEA payload (excluding $ and checksum).
	Fields []string
	// Payload is the raw text between '$' and '*'.
	Payload string
}

// parseNMEASentence checks the envelope. The checksum is optional, but when
// a '*' is present it must carry two hex digits matching the payload.
func parseNMEASentence(line string) (nmeaSentence, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return nmeaSentence{}, fmt.Errorf("nmea: missing '$'")
	}
	payload := line[1:]
	if star := strings.LastIndexByte(line, '*'); star != -1 {
		payload = line[1:star]
		ck := strings.TrimSpace(line[star+1:])
		want, err := hex.DecodeString(ck)
		if err != nil || len(want) != 1 {
			return nmeaSentence{}, fmt.Errorf("%w: bad checksum field %q", ErrChecksum, ck)
		}
		if got := nmea.Checksum(payload); !strings.EqualFold(got, ck) {
			return nmeaSentence{}, fmt.Errorf("%w: got %s want %s", ErrChecksum, got, strings.ToUpper(ck))
		}
	}

	parts := strings.Split(payload, ",")
	typeField := parts[0]
	if len(typeField) < 3 {
		return nmeaSentence{}, fmt.Errorf("nmea: short type")
	}
	t := strings.ToUpper(typeField[len(typeField)-3:])
	return nmeaSentence{Type: t, Fields: parts, Payload: payload}, nil
}

// GGA: Global Positioning System Fix Data
// GNS: GNSS Fix Data
// Shared fields:
//
//	0: talker+type
//	1: time (hhmmss.ss)
//	2: latitude (ddmm.mmmm)
//	3: N/S
//	4: longitude (dddmm.mmmm)
//	5: E/W
//	6: GGA fix quality digit, or GNS per-constellation mode string
//	7: number of satellites in use
//	8: HDOP
func decodeFix(s nmeaSentence) (FixRecord, error) {
	f := s.Fields
	if len(f) < 9 {
		return FixRecord{}, fmt.Errorf("%w: %s has %d fields, need 9", ErrShort, s.Type, len(f))
	}

	tod, err := ParseTimeOfDay(f[1])
	if err != nil {
		return FixRecord{}, fieldErr("time", f[1], err.Error())
	}

	rec := FixRecord{Sentence: s.Type, Time: tod}
	if s.Type == TypeGNS {
		rec.Quality = gnsQuality(f[6])
	} else {
		rec.Quality = ggaQuality(f[6])
	}

	if rec.Position, err = parsePosition(f[2], f[3], f[4], f[5]); err != nil {
		return FixRecord{}, err
	}
	if rec.Satellites, err = parseCount("satellites", f[7]); err != nil {
		return FixRecord{}, err
	}
	if rec.HDOP, err = parseDOP("hdop", f[8]); err != nil {
		return FixRecord{}, err
	}
	return rec, nil
}

func ggaQuality(v string) Quality {
	switch strings.TrimSpace(v) {
	case "", "0":
		return QualityNoFix
	case "1":
		return QualityAutonomous
	case "2":
		return QualityDifferential
	default:
		return QualityOtherAugmented
	}
}

// gnsQuality uses the first constellation that is not 'N' (no fix).
func gnsQuality(mode string) Quality {
	for _, c := range strings.ToUpper(strings.TrimSpace(mode)) {
		switch c {
		case 'N':
			continue
		case 'A':
			return QualityAutonomous
		case 'D':
			return QualityDifferential
		default:
			return QualityOtherAugmented
		}
	}
	return QualityNoFix
}

func parsePosition(lat, ns, lon, ew string) (*Position, error) {
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if lat == "" && lon == "" {
		return nil, nil
	}
	if lat == "" {
		return nil, fieldErr("latitude", lat, "missing while longitude is present")
	}
	if lon == "" {
		return nil, fieldErr("longitude", lon, "missing while latitude is present")
	}
	la, err := parseNMEALatLon("latitude", lat, ns, 90, "N", "S")
	if err != nil {
		return nil, err
	}
	lo, err := parseNMEALatLon("longitude", lon, ew, 180, "E", "W")
	if err != nil {
		return nil, err
	}
	return &Position{LatDeg: la, LonDeg: lo}, nil
}

// parseNMEALatLon parses NMEA lat/lon in ddmm.mmmm or dddmm.mmmm plus hemisphere.
//
// For latitude (N/S): ddmm.mmmm
// For longitude (E/W): dddmm.mmmm
func parseNMEALatLon(field, v, hemi string, maxDeg float64, pos, neg string) (float64, error) {
	hemi = strings.TrimSpace(strings.ToUpper(hemi))
	if hemi != pos && hemi != neg {
		return 0, fieldErr(field+" hemisphere", hemi, "want "+pos+" or "+neg)
	}

	// The last two digits of the integer part are whole minutes.
	intPart, fracPart, hasDot := strings.Cut(v, ".")
	if len(intPart) < 3 || !isDigits(intPart) || (hasDot && fracPart != "" && !isDigits(fracPart)) {
		return 0, fieldErr(field, v, "want degrees and decimal minutes")
	}

	deg, _ := strconv.Atoi(intPart[:len(intPart)-2])
	mins, err := strconv.ParseFloat(v[len(intPart)-2:], 64)
	if err != nil {
		return 0, fieldErr(field, v, err.Error())
	}
	if mins >= 60 {
		return 0, fieldErr(field, v, "minutes out of range")
	}

	dec := float64(deg) + mins/60.0
	if dec > maxDeg {
		return 0, fieldErr(field, v, fmt.Sprintf("beyond %g degrees", maxDeg))
	}
	if hemi == neg {
		dec = -dec
	}
	return dec, nil
}

func parseCount(field, v string) (*int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if !isDigits(v) {
		return nil, fieldErr(field, v, "want a non-negative integer")
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fieldErr(field, v, err.Error())
	}
	return &n, nil
}

func parseDOP(field, v string) (*float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fieldErr(field, v, "want a number")
	}
	if d < 0 || math.IsNaN(d) || d > 1e6 {
		return nil, fieldErr(field, v, "out of range")
	}
	return &d, nil
}
