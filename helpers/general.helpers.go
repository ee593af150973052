package helpers

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/aidarkhanov/nanoid/v2"
	"github.com/gocql/gocql"
)

const validNanoidChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// RandomTokenString generates random hex token
func RandomTokenString(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// ShortID generates a short url-safe id
func ShortID(length int) (string, error) {
	return nanoid.GenerateString(validNanoidChars, length)
}

// NewTimeID generates a time-ordered uuid string
func NewTimeID() string {
	return gocql.TimeUUID().String()
}

// NowMillis returns the current time in milliseconds since epoch
func NowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}

// MilisecondsToTime converts milliseconds since epoch to golang time object
func MilisecondsToTime(milli int64) time.Time {
	return time.UnixMilli(milli)
}

// ParseStringToInt parses string to int
func ParseStringToInt(str string) (int64, error) {
	return strconv.ParseInt(str, 10, 64)
}
