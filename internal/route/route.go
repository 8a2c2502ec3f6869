// Package route loads recorded vehicle routes from JSON files and URLs
package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/randytsao24/routereplay/internal/models"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrBadTimestamp = errors.New("unparseable timestamp")
	ErrUnreachable  = errors.New("route source unreachable")
)

// LoadError reports a route source that could not be loaded.
// Index is the offending record, or -1 when the failure is not record specific.
type LoadError struct {
	Source string
	Index  int
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load route")
	if e.Source != "" {
		fmt.Fprintf(&b, " %q", e.Source)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&b, ": record %d", e.Index)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// record matches one element of the route JSON file
type record struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Timestamp *string  `json:"timestamp"`
}

// Decode parses a JSON array of {latitude, longitude, timestamp} records.
// Points keep the order of the array.
func Decode(r io.Reader) (models.Route, error) {
	return decode("", r)
}

// LoadFile reads a route from a JSON file on disk
func LoadFile(path string) (models.Route, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Index: -1, Err: fmt.Errorf("%w: %w", ErrUnreachable, err)}
	}
	defer file.Close()

	return decode(path, file)
}

// Fetch downloads a route over HTTP
func Fetch(ctx context.Context, client *http.Client, url string) (models.Route, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &LoadError{Source: url, Index: -1, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &LoadError{Source: url, Index: -1, Err: fmt.Errorf("%w: %w", ErrUnreachable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &LoadError{Source: url, Index: -1, Err: fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)}
	}

	return decode(url, resp.Body)
}

func decode(source string, r io.Reader) (models.Route, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &LoadError{Source: source, Index: -1, Err: fmt.Errorf("parsing route JSON: %w", err)}
	}

	route := make(models.Route, 0, len(raw))
	for i, msg := range raw {
		p, err := parseRecord(msg)
		if err != nil {
			return nil, &LoadError{Source: source, Index: i, Err: err}
		}
		route = append(route, p)
	}
	return route, nil
}

func parseRecord(msg json.RawMessage) (models.RoutePoint, error) {
	var rec record
	if err := json.Unmarshal(msg, &rec); err != nil {
		return models.RoutePoint{}, fmt.Errorf("parsing record: %w", err)
	}

	switch {
	case rec.Latitude == nil:
		return models.RoutePoint{}, fmt.Errorf("%w: latitude", ErrMissingField)
	case rec.Longitude == nil:
		return models.RoutePoint{}, fmt.Errorf("%w: longitude", ErrMissingField)
	case rec.Timestamp == nil:
		return models.RoutePoint{}, fmt.Errorf("%w: timestamp", ErrMissingField)
	}

	ts, err := ParseTimestamp(*rec.Timestamp)
	if err != nil {
		return models.RoutePoint{}, err
	}

	return models.RoutePoint{Lat: *rec.Latitude, Lng: *rec.Longitude, Timestamp: ts}, nil
}

// Zone-less date-time forms are read in the local zone; a bare date is UTC.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp parses an ISO-8601 timestamp. RFC 3339 strings keep their
// offset, date-times without an offset are local time, and a bare date is
// midnight UTC. Fractional seconds are accepted wherever seconds are.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}
