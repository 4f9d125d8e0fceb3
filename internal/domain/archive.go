package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const ArchiveExt = ".tar.gz"

// Object is a single entry returned by an ObjectStore listing.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ArchiveName returns <source>_<year>_<month>_<day>_<epoch millis>.tar.gz.
// Date fields use now's location; the month is 1-based and unpadded.
func ArchiveName(source string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%d_%d_%d%s",
		source,
		now.Year(),
		int(now.Month()),
		now.Day(),
		now.UnixMilli(),
		ArchiveExt,
	)
}

// MatchingArchives returns the objects whose key contains source, newest first.
// The match is a plain substring test, so "orders" also matches "old_orders_...".
func MatchingArchives(objects []Object, source string) []Object {
	var matched []Object
	for _, obj := range objects {
		if strings.Contains(obj.Key, source) {
			matched = append(matched, obj)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].LastModified.After(matched[j].LastModified)
	})

	return matched
}

// LatestArchive picks the most recently modified object matching source.
func LatestArchive(objects []Object, source string) (Object, error) {
	matched := MatchingArchives(objects, source)
	if len(matched) == 0 {
		return Object{}, fmt.Errorf("no archive matches %q: %w", source, ErrNotFound)
	}
	return matched[0], nil
}
