package repeat

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Delimiter joins the fields of an index key. The layout
// name:idPrefix:endDate:tz:cron is persisted and must not change.
const Delimiter = ":"

const (
	keyFields = 5
	idScheme  = "repeat"
)

// ErrMalformedKey is returned when an index member does not split into the
// expected number of fields.
var ErrMalformedKey = errors.New("malformed repeat key")

// IDPrefix returns "<jobId>:" for rules with an explicit id and ":" otherwise.
func IDPrefix(rule Rule) string {
	if rule.JobID != "" {
		return rule.JobID + Delimiter
	}
	return Delimiter
}

// IndexKey builds the index member identifying rule for the job name.
func IndexKey(name string, rule Rule, idPrefix string) string {
	endDate := Delimiter
	if rule.EndDate != nil {
		endDate = strconv.FormatInt(rule.EndDate.UnixMilli(), 10) + Delimiter
	}
	tz := Delimiter
	if rule.TZ != "" {
		tz = rule.TZ + Delimiter
	}
	return name + Delimiter + idPrefix + endDate + tz + rule.Cron
}

// OccurrenceID returns the job id of the occurrence firing at nextMillis.
// namespace is Hash(IndexKey(...)).
func OccurrenceID(name, idPrefix string, nextMillis int64, namespace string) string {
	return occurrenceID(name, idPrefix, strconv.FormatInt(nextMillis, 10), namespace)
}

// TemplateID is OccurrenceID with an empty fire time. Appending the index
// score to it yields the id of the pending occurrence.
func TemplateID(name, idPrefix, namespace string) string {
	return occurrenceID(name, idPrefix, "", namespace)
}

func occurrenceID(name, idPrefix, millis, namespace string) string {
	return idScheme + Delimiter + Hash(name+idPrefix+namespace) + Delimiter + millis
}

// Hash returns the hex md5 digest of s. md5 keeps ids compatible with keys
// already persisted by other producers of the same layout.
func Hash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ParseIndexKey decodes an index member. Fields are split on Delimiter in the
// order name, id, endDate, tz, cron.
func ParseIndexKey(key string) (Entry, error) {
	parts := strings.Split(key, Delimiter)
	if len(parts) != keyFields {
		return Entry{}, fmt.Errorf("%w: %q has %d fields", ErrMalformedKey, key, len(parts))
	}

	entry := Entry{
		Key:  key,
		Name: parts[0],
		ID:   parts[1],
		TZ:   parts[3],
		Cron: parts[4],
	}
	if parts[2] != "" {
		endDate, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: end date %q: %v", ErrMalformedKey, parts[2], err)
		}
		entry.EndDate = endDate
	}
	return entry, nil
}
