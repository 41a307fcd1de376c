// Package known provides codecs for common Go types that have no direct
// protobuf scalar, each expressed as a shadow over a small wire message.
package known

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/anirudhraja/protoshadow/codec"
)

// Bounds of google.protobuf.Timestamp: 0001-01-01T00:00:00Z to
// 9999-12-31T23:59:59.999999999Z
const (
	minTimestampSeconds = -62135596800
	maxTimestampSeconds = 253402300799
	nanosPerSecond      = int64(time.Second)
)

// secondsNanos is the wire shape shared by Timestamp and Duration
type secondsNanos struct {
	Seconds int64
	Nanos   int32
}

func secondsNanosType(name string) *codec.MessageType[secondsNanos] {
	return codec.MustMessage(name,
		codec.NewField(1, "seconds", codec.Int64(), func(s *secondsNanos) *int64 { return &s.Seconds }),
		codec.NewField(2, "nanos", codec.Int32(), func(s *secondsNanos) *int32 { return &s.Nanos }),
	)
}

var (
	timestampType = secondsNanosType("google.protobuf.Timestamp")
	durationType  = secondsNanosType("google.protobuf.Duration")
)

// Timestamp encodes time.Time as google.protobuf.Timestamp. Decoded times
// are in UTC. The declared default is the Unix epoch.
func Timestamp() codec.Codec[time.Time] {
	return timestampCodec
}

var timestampCodec = codec.Shadow[time.Time, secondsNanos](timestampType, timeToTimestamp, timestampToTime)

func timeToTimestamp(t *time.Time) (secondsNanos, error) {
	s := secondsNanos{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
	if s.Seconds < minTimestampSeconds || s.Seconds > maxTimestampSeconds {
		return secondsNanos{}, fmt.Errorf("time %v outside timestamp range", *t)
	}
	return s, nil
}

func timestampToTime(s *secondsNanos) (time.Time, error) {
	if s.Seconds < minTimestampSeconds || s.Seconds > maxTimestampSeconds {
		return time.Time{}, fmt.Errorf("timestamp seconds %d out of range", s.Seconds)
	}
	if s.Nanos < 0 || int64(s.Nanos) >= nanosPerSecond {
		return time.Time{}, fmt.Errorf("timestamp nanos %d out of range", s.Nanos)
	}
	return time.Unix(s.Seconds, int64(s.Nanos)).UTC(), nil
}

// Duration encodes time.Duration as google.protobuf.Duration. Seconds and
// nanos always carry the same sign.
func Duration() codec.Codec[time.Duration] {
	return durationCodec
}

var durationCodec = codec.Shadow[time.Duration, secondsNanos](durationType, durationToShadow, shadowToDuration)

func durationToShadow(d *time.Duration) (secondsNanos, error) {
	n := int64(*d)
	return secondsNanos{Seconds: n / nanosPerSecond, Nanos: int32(n % nanosPerSecond)}, nil
}

var errDurationOverflow = errors.New("duration overflows time.Duration")

func shadowToDuration(s *secondsNanos) (time.Duration, error) {
	nanos := int64(s.Nanos)
	if nanos <= -nanosPerSecond || nanos >= nanosPerSecond {
		return 0, fmt.Errorf("duration nanos %d out of range", s.Nanos)
	}
	if (s.Seconds > 0 && nanos < 0) || (s.Seconds < 0 && nanos > 0) {
		return 0, fmt.Errorf("duration seconds %d and nanos %d differ in sign", s.Seconds, s.Nanos)
	}
	if s.Seconds > math.MaxInt64/nanosPerSecond || s.Seconds < math.MinInt64/nanosPerSecond {
		return 0, errDurationOverflow
	}
	total := s.Seconds * nanosPerSecond
	if (nanos > 0 && total > math.MaxInt64-nanos) || (nanos < 0 && total < math.MinInt64-nanos) {
		return 0, errDurationOverflow
	}
	return time.Duration(total + nanos), nil
}
