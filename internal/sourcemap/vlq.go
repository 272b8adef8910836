package sourcemap

import (
	"errors"
	"strings"
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const (
	vlqShift        = 5
	vlqContinuation = 1 << vlqShift
	vlqMask         = vlqContinuation - 1
)

var errBadVLQ = errors.New("invalid base64 VLQ")

func writeVLQ(sb *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & vlqMask
		u >>= vlqShift
		if u > 0 {
			digit |= vlqContinuation
		}
		sb.WriteByte(base64Chars[digit])
		if u == 0 {
			return
		}
	}
}

func readVLQs(seg string) ([]int, error) {
	var out []int
	value, shift := 0, 0
	pending := false

	for i := 0; i < len(seg); i++ {
		digit := strings.IndexByte(base64Chars, seg[i])
		if digit < 0 {
			return nil, errBadVLQ
		}
		pending = true
		value += (digit & vlqMask) << shift
		if digit&vlqContinuation != 0 {
			shift += vlqShift
			continue
		}
		if value&1 == 1 {
			out = append(out, -(value >> 1))
		} else {
			out = append(out, value>>1)
		}
		value, shift = 0, 0
		pending = false
	}
	if pending {
		return nil, errBadVLQ
	}
	return out, nil
}
