// Package parse has the access-log line parser and bucket key extraction.
package parse

import (
	"regexp"
	"strings"

	"github.com/qpsplot/qpsplot/schema"
)

// accessLogRe matches one combined-format access-log line, anchored at the line start.
// It is compiled once and only ever read afterwards.
//
//	<ip> - - [<date> <tz>] "<method> <path>? ..." <status> <bytes> "<referer>" "<user-agent>"
var accessLogRe = regexp.MustCompile(
	`^(?P<ip>\d+.\d+.\d+.\d+)\s-\s-\s\[(?P<date>.+)\]\s"(?P<method>\w+)\s?(?P<path>.+)?\s?.*"\s(?P<status>\d+)\s(?P<bytes>\d+)\s"(?P<referer>.+)"\s"(?P<agent>.+)"`,
)

// timestampRe is the fixed-width DD/Mon/YYYY:HH:MM:SS form that keeps string order chronological.
var timestampRe = regexp.MustCompile(`^\d{2}/[A-Za-z]{3}/\d{4}:\d{2}:\d{2}:\d{2}$`)

// Capture group positions, resolved once from the pattern.
var (
	dateIdx   = accessLogRe.SubexpIndex("date")
	methodIdx = accessLogRe.SubexpIndex("method")
	pathIdx   = accessLogRe.SubexpIndex("path")
	statusIdx = accessLogRe.SubexpIndex("status")
)

// Suffix widths trimmed from the timestamp for each bucket mode.
const (
	hourSuffixLen   = len(":MM:SS")
	minuteSuffixLen = len(":SS")

	// datePrefixLen is the width of "DD/Mon/YYYY:" ahead of the time of day.
	datePrefixLen = len("DD/Mon/YYYY:")
)

// Parse matches a single line against the access-log grammar.
// It reports false for any line that does not match; that is the only failure mode.
func Parse(line string) (schema.LogLine, bool) {
	m := accessLogRe.FindStringSubmatch(line)
	if m == nil {
		return schema.LogLine{}, false
	}

	// The date group carries the timezone after a space; keep the first token only.
	fields := strings.Fields(m[dateIdx])
	if len(fields) == 0 || !timestampRe.MatchString(fields[0]) {
		return schema.LogLine{}, false
	}

	// The path group also swallows the protocol ("/index.html HTTP/1.1").
	var path string
	if pf := strings.Fields(m[pathIdx]); len(pf) > 0 {
		path = pf[0]
	}

	return schema.LogLine{
		Timestamp:  fields[0],
		Method:     m[methodIdx],
		Path:       path,
		StatusCode: m[statusIdx],
	}, true
}

// Truncate cuts a DD/Mon/YYYY:HH:MM:SS timestamp down to the bucket key for mode.
// Hour mode yields DD/Mon/YYYY:HH and minute mode yields DD/Mon/YYYY:HH:MM.
func Truncate(timestamp string, mode schema.BucketMode) (schema.BucketKey, bool) {
	if !timestampRe.MatchString(timestamp) {
		return "", false
	}
	switch mode {
	case schema.MinuteMode:
		return schema.BucketKey(timestamp[:len(timestamp)-minuteSuffixLen]), true
	case schema.HourMode:
		return schema.BucketKey(timestamp[:len(timestamp)-hourSuffixLen]), true
	default:
		return "", false
	}
}

// BucketKey parses a line and returns its bucket key for mode.
func BucketKey(line string, mode schema.BucketMode) (schema.BucketKey, bool) {
	entry, ok := Parse(line)
	if !ok {
		return "", false
	}
	return Truncate(entry.Timestamp, mode)
}

// TimeOfDay returns the HH:MM part of a minute bucket key.
// Keys with the DD/Mon/YYYY: date prefix lose it; anything else is returned unchanged
// so that bare HH:MM keys pass through. The result is not validated here.
func TimeOfDay(key schema.BucketKey) string {
	s := string(key)
	if len(s) > datePrefixLen && s[datePrefixLen-1] == ':' && strings.Count(s[:datePrefixLen], "/") == 2 {
		return s[datePrefixLen:]
	}
	return s
}
