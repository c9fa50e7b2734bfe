package batch

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrNoTimestamp reports a frame file name without a capture timestamp.
var ErrNoTimestamp = errors.New("no timestamp in file name")

var (
	timestampPattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2}-\d{6}`)
	populationPattern = regexp.MustCompile(`P\d?\d`)
)

// timestampLayout is the camera naming scheme with the microsecond separator
// rewritten to a dot, which time.Parse requires for fractional seconds.
const timestampLayout = "2006-01-02-15-04-05.000000"

// ParseTimestamp extracts the capture time from a frame file name such as
// "cam1_2019-05-02-10-11-12-000123.jpg". Only the base name is searched. The
// time is interpreted as UTC.
func ParseTimestamp(path string) (time.Time, error) {
	name := filepath.Base(path)
	stamp := timestampPattern.FindString(name)
	if stamp == "" {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNoTimestamp, name)
	}

	i := strings.LastIndexByte(stamp, '-')
	t, err := time.Parse(timestampLayout, stamp[:i]+"."+stamp[i+1:])
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", stamp, err)
	}
	return t, nil
}

// PopulationFromPath returns the first colony label ("P1" to "P99") found in
// the directory elements of path, searching from the root down. The file name
// itself is not searched. It returns "" when no element carries a label.
func PopulationFromPath(path string) string {
	dir := filepath.ToSlash(filepath.Dir(path))
	for _, elem := range strings.Split(dir, "/") {
		if label := populationPattern.FindString(elem); label != "" {
			return label
		}
	}
	return ""
}
