package modes

import "math"

// aisCharset is the direct-index 6-bit alphabet used by ME type 1-4
// (aircraft identification), as broadcast over the air. Index 0 is
// reserved; the 6-bit symbol value indexes the string directly, with no
// offset.
const aisCharset = "?ABCDEFGHIJKLMNOPQRSTUVWXYZ????? ???????????????0123456789??????"

// ICAOSeen reports whether addr was observed recently in a DF11/DF17
// frame with a clean checksum. The tracker's ICAO cache implements it.
type ICAOSeen func(addr uint32) bool

// ICAORemember records addr as freshly seen with a clean checksum.
type ICAORemember func(addr uint32)

// DecodeCounter is a hook the Decoder fires on a specific per-frame
// outcome. A nil hook is simply skipped.
type DecodeCounter func()

// Decoder turns raw demodulated frames into Messages. Aggressive
// enables the DF17 two-bit error correction pass, which is O(bits^2)
// per failed frame.
type Decoder struct {
	Aggressive   bool
	Seen         ICAOSeen
	Remember     ICAORemember
	Unrecognized *UnrecognizedMEStats

	// OnBadCRC fires once per frame that fails checksum validation and
	// could not be repaired by any of the paths below.
	OnBadCRC DecodeCounter
	// OnFixed fires once per frame accepted after single- or two-bit
	// error correction (Message.ErrorBit != -1).
	OnFixed DecodeCounter
	// OnCacheHit/OnCacheMiss fire once per AP-recovery attempt,
	// reporting whether the recovered address matched a recently seen
	// ICAO address.
	OnCacheHit  DecodeCounter
	OnCacheMiss DecodeCounter
}

func fire(c DecodeCounter) {
	if c != nil {
		c()
	}
}

// Decode splits raw into a Message, running CRC validation, the ICAO
// AP recovery brute force, and the full DF17 extended-squitter field
// decode. The bits argument is the frame length already determined by
// the caller from the DF nibble (56 or 112).
func (d *Decoder) Decode(raw []byte, bits int) *Message {
	m := &Message{Bits: bits}
	copy(m.Raw[:], raw[:bits/8])
	msg := m.Raw[:bits/8]

	m.DF = msg[0] >> 3
	m.CA = msg[0] & 7

	wire := wireCRC(msg, bits)
	crc2 := Checksum(msg, bits)
	m.ErrorBit = -1
	m.CRCOK = wire == crc2

	if !m.CRCOK && (m.DF == 11 || m.DF == 17) {
		if eb := FixSingleBitError(msg, bits); eb != -1 {
			m.ErrorBit = eb
			m.CRCOK = true
		} else if d.Aggressive && m.DF == 17 {
			if eb := FixTwoBitErrors(msg, bits); eb != -1 {
				m.ErrorBit = eb
				m.TwoBitFix = true
				m.CRCOK = true
			}
		}
	}

	m.AA[0], m.AA[1], m.AA[2] = msg[1], msg[2], msg[3]
	m.METype = msg[4] >> 3
	m.MESubtype = msg[4] & 7

	m.FlightStatus = msg[0] & 7
	m.DR = msg[1] >> 3 & 31
	m.UM = (msg[1]&7)<<3 | msg[2]>>5

	m.Identity = decodeSquawk(msg)

	if m.DF != 11 && m.DF != 17 {
		if d.Seen != nil {
			if addr, ok := RecoverAP(msg, bits, d.Seen); ok {
				m.AA[0] = byte(addr >> 16)
				m.AA[1] = byte(addr >> 8)
				m.AA[2] = byte(addr)
				m.CRCOK = true
				fire(d.OnCacheHit)
			} else {
				m.CRCOK = false
				fire(d.OnCacheMiss)
			}
		}
	} else if m.CRCOK && m.ErrorBit == -1 && d.Remember != nil {
		d.Remember(m.ICAOAddr())
	}

	if m.DF == 0 || m.DF == 4 || m.DF == 16 || m.DF == 20 {
		m.Altitude = decodeAC13(msg, &m.Unit)
	}

	if m.DF == 17 {
		decodeExtendedSquitter(m, msg, d.Unrecognized)
	}

	if !m.CRCOK {
		fire(d.OnBadCRC)
	} else if m.ErrorBit != -1 {
		fire(d.OnFixed)
	}

	return m
}

// decodeSquawk extracts the Gillham-interleaved identity code carried
// in bits 20-32 (1-based) and packs its four octal digits into a
// decimal-looking integer (e.g. octal 7700 decodes to the int 7700).
func decodeSquawk(msg []byte) int {
	a := (msg[3]&0x80)>>5 | (msg[2]&0x02)>>0 | (msg[2]&0x08)>>3
	b := (msg[3]&0x02)<<1 | (msg[3]&0x08)>>2 | (msg[3]&0x20)>>5
	c := (msg[2]&0x01)<<2 | (msg[2]&0x04)>>1 | (msg[2]&0x10)>>4
	d := (msg[3]&0x01)<<2 | (msg[3]&0x04)>>1 | (msg[3]&0x10)>>4
	return int(a)*1000 + int(b)*100 + int(c)*10 + int(d)
}

// decodeAC13 decodes the 13 bit altitude field used by DF0/4/16/20.
// Only the Q=1 (25ft increments), M=0 (feet) encoding is implemented;
// the M=1 meters encoding is not broadcast in practice and decodes to
// zero, matching the reserved field in the original format.
func decodeAC13(msg []byte, unit *AltitudeUnit) int {
	mBit := msg[3] & (1 << 6)
	qBit := msg[3] & (1 << 4)
	if mBit != 0 {
		*unit = UnitMeters
		return 0
	}
	*unit = UnitFeet
	if qBit == 0 {
		return 0
	}
	n := int(msg[2]&31)<<6 | int(msg[3]&0x80)>>2 | int(msg[3]&0x20)>>1 | int(msg[3]&15)
	ret := 25*n - 1000
	if ret < 0 {
		ret = 0
	}
	return ret
}

// decodeAC12 decodes the 12 bit altitude field used by DF17 airborne
// position messages (ME type 9-18).
func decodeAC12(msg []byte, unit *AltitudeUnit) int {
	*unit = UnitFeet
	if msg[5]&1 == 0 {
		return 0
	}
	n := int(msg[5]>>1)<<4 | int(msg[6]&0xF0)>>4
	ret := 25*n - 1000
	if ret < 0 {
		ret = 0
	}
	return ret
}

// decodeExtendedSquitter fills in the DF17 ME-type-specific fields:
// identification/category (1-4), airborne position (9-18), and
// airborne velocity (19/1-4).
func decodeExtendedSquitter(m *Message, msg []byte, unrecognized *UnrecognizedMEStats) {
	switch {
	case m.METype >= 1 && m.METype <= 4:
		m.AircraftType = int(m.METype) - 1
		m.Flight[0] = aisCharset[msg[5]>>2]
		m.Flight[1] = aisCharset[(msg[5]&3)<<4|msg[6]>>4]
		m.Flight[2] = aisCharset[(msg[6]&15)<<2|msg[7]>>6]
		m.Flight[3] = aisCharset[msg[7]&63]
		m.Flight[4] = aisCharset[msg[8]>>2]
		m.Flight[5] = aisCharset[(msg[8]&3)<<4|msg[9]>>4]
		m.Flight[6] = aisCharset[(msg[9]&15)<<2|msg[10]>>6]
		m.Flight[7] = aisCharset[msg[10]&63]

	case m.METype >= 9 && m.METype <= 18:
		m.OddFlag = msg[6]&(1<<2) != 0
		m.UTCFlag = msg[6]&(1<<3) != 0
		m.Altitude = decodeAC12(msg, &m.Unit)
		m.RawLat = uint32(msg[6]&3)<<15 | uint32(msg[7])<<7 | uint32(msg[8])>>1
		m.RawLon = uint32(msg[8]&1)<<16 | uint32(msg[9])<<8 | uint32(msg[10])

	case m.METype == 19 && m.MESubtype >= 1 && m.MESubtype <= 4:
		decodeVelocity(m, msg)

	default:
		if unrecognized != nil {
			unrecognized.Add(m.METype, m.MESubtype)
		}
	}
}

func decodeVelocity(m *Message, msg []byte) {
	switch m.MESubtype {
	case 1, 2:
		m.EWDir = int(msg[5]&4) >> 2
		m.EWVelocity = int(msg[5]&3)<<8 | int(msg[6])
		m.NSDir = int(msg[7]&0x80) >> 7
		m.NSVelocity = int(msg[7]&0x7F)<<3 | int(msg[8]&0xE0)>>5
		m.VertRateSource = (msg[8] & 0x10) >> 4
		m.VertRateSign = int(msg[8]&0x08) >> 3
		m.VertRate = int(msg[8]&7)<<6 | int(msg[9]&0xFC)>>2

		m.Velocity = math.Hypot(float64(m.NSVelocity), float64(m.EWVelocity))

		if m.Velocity != 0 {
			ewV, nsV := float64(m.EWVelocity), float64(m.NSVelocity)
			if m.EWDir != 0 {
				ewV = -ewV
			}
			if m.NSDir != 0 {
				nsV = -nsV
			}
			heading := math.Atan2(ewV, nsV) * 360 / (2 * math.Pi)
			if heading < 0 {
				heading += 360
			}
			m.Heading = heading
			m.HeadingValid = true
		}

	case 3, 4:
		m.HeadingValid = msg[5]&(1<<2) != 0
		m.Heading = (360.0 / 128) * float64(int(msg[5]&3)<<5|int(msg[6]>>3))
	}
}
