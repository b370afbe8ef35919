package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// GenerateOTP returns a numeric code of the given length, 6 when length <= 0.
func GenerateOTP(length int) string {
	if length <= 0 {
		length = 6
	}

	otp := make([]byte, length)
	for i := range otp {
		otp[i] = byte('0' + randomInt(10))
	}

	return string(otp)
}

// GenerateReservationCode returns a human readable code.
// Format: RES-YYYYMMDD-HHMMSS-NNNN
func GenerateReservationCode(now time.Time) string {
	return fmt.Sprintf("RES-%s-%s-%04d",
		now.Format("20060102"),
		now.Format("150405"),
		randomInt(10000),
	)
}

func randomInt(max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return time.Now().UnixNano() % max
	}
	return n.Int64()
}

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil || result < 1 {
		return defaultValue
	}

	return result
}
