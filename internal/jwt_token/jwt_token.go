package jwttoken

import (
	"strconv"
	"strings"
	"time"
)

// DemoTokenPrefix marks the opaque tokens handed out in demo mode.
const DemoTokenPrefix = "demo-token-"

func NewDemoToken(now time.Time) string {
	return DemoTokenPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// IsDemoToken reports whether token has the demo shape: the prefix followed
// by decimal milliseconds.
func IsDemoToken(token string) bool {
	rest, ok := strings.CutPrefix(token, DemoTokenPrefix)
	if !ok || rest == "" {
		return false
	}
	_, err := strconv.ParseInt(rest, 10, 64)
	return err == nil
}
