package gps

import (
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// GSA: GNSS DOP and Active Satellites
// Fields:
//
//	0: talker+type
//	1: selection mode (A/M)
//	2: fix type (1=none, 2=2D, 3=3D)
//	3-14: PRNs of satellites used in the solution
//	15: PDOP
//	16: HDOP
//	17: VDOP
func decodeGSA(s nmeaSentence) (AuxRecord, error) {
	if len(s.Fields) < 18 {
		return AuxRecord{}, fmt.Errorf("%w: GSA has %d fields, need 18", ErrShort, len(s.Fields))
	}
	// The envelope was already validated; go-nmea insists on a checksum, so
	// hand it a canonical one.
	raw := "$" + s.Payload + "*" + nmea.Checksum(s.Payload)
	sent, err := nmea.Parse(raw)
	if err != nil {
		return AuxRecord{}, fieldErr("gsa", s.Payload, err.Error())
	}
	gsa, ok := sent.(nmea.GSA)
	if !ok {
		return AuxRecord{}, fieldErr("gsa", s.Payload, fmt.Sprintf("unexpected sentence %T", sent))
	}

	aux := AuxRecord{Satellites: len(gsa.SV)}
	// go-nmea reads an empty DOP field as zero; keep it absent instead.
	if strings.TrimSpace(s.Fields[16]) != "" {
		if gsa.HDOP < 0 {
			return AuxRecord{}, fieldErr("hdop", s.Fields[16], "out of range")
		}
		v := gsa.HDOP
		aux.HDOP = &v
	}
	return aux, nil
}
