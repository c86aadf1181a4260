// Package timestamp provides utilities for handling timestamps,
// including the packed 6-byte date-time format stored in file headers.
package timestamp

import (
	"os"
	"strconv"
	"time"
)

// Size is the number of bytes a packed DateTime occupies on disk.
const Size = 6

// DateTime is a calendar date and time of day, second precision.
// On disk it packs into three little-endian 16-bit words:
//
//	word 0: sec in bits 0-5, min in bits 6-11, month in bits 12-15
//	word 1: hour in bits 0-5, day in bits 6-10
//	word 2: year
type DateTime struct {
	Year  int
	Month time.Month
	Day   int
	Hour  int
	Min   int
	Sec   int
}

// GetTime returns the current time in UTC, honoring SOURCE_DATE_EPOCH if set.
// SOURCE_DATE_EPOCH is a Unix timestamp used for reproducible builds.
// If SOURCE_DATE_EPOCH is not set or invalid, it returns time.Now().UTC().
func GetTime() time.Time {
	if epoch := os.Getenv("SOURCE_DATE_EPOCH"); epoch != "" {
		if timestamp, err := strconv.ParseInt(epoch, 10, 64); err == nil {
			return time.Unix(timestamp, 0).UTC()
		}
	}

	return time.Now().UTC()
}

// FromTime converts a time.Time into a DateTime.
func FromTime(t time.Time) DateTime {
	return DateTime{
		Year:  t.Year(),
		Month: t.Month(),
		Day:   t.Day(),
		Hour:  t.Hour(),
		Min:   t.Minute(),
		Sec:   t.Second(),
	}
}

// Time converts the DateTime back into a time.Time in UTC.
func (dt DateTime) Time() time.Time {
	return time.Date(dt.Year, dt.Month, dt.Day, dt.Hour, dt.Min, dt.Sec, 0, time.UTC)
}

// PutBytes packs the DateTime into the first Size bytes of b.
func (dt DateTime) PutBytes(b []byte) {
	word0 := uint16(dt.Sec&0x3f) | uint16(dt.Min&0x3f)<<6 | uint16(int(dt.Month)&0xf)<<12
	word1 := uint16(dt.Hour&0x3f) | uint16(dt.Day&0x1f)<<6
	word2 := uint16(dt.Year)
	b[0] = byte(word0)
	b[1] = byte(word0 >> 8)
	b[2] = byte(word1)
	b[3] = byte(word1 >> 8)
	b[4] = byte(word2)
	b[5] = byte(word2 >> 8)
}

// Bytes returns the packed on-disk form of the DateTime.
func (dt DateTime) Bytes() []byte {
	b := make([]byte, Size)
	dt.PutBytes(b)
	return b
}

// FromBytes unpacks a DateTime from the first Size bytes of b.
func FromBytes(b []byte) DateTime {
	word0 := uint16(b[0]) | uint16(b[1])<<8
	word1 := uint16(b[2]) | uint16(b[3])<<8
	word2 := uint16(b[4]) | uint16(b[5])<<8
	return DateTime{
		Sec:   int(word0 & 0x3f),
		Min:   int(word0 >> 6 & 0x3f),
		Month: time.Month(word0 >> 12 & 0xf),
		Hour:  int(word1 & 0x3f),
		Day:   int(word1 >> 6 & 0x1f),
		Year:  int(word2),
	}
}
