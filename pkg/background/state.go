package background

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// encodeTasks serialises tasks as a JSON array, which keeps insertion order across restarts.
func encodeTasks(tasks []Task) (string, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeTasks accepts either a JSON array of tasks or an object keyed by task id.
// Object entries are ordered by creation time.
func decodeTasks(raw string) ([]Task, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return nil, nil
	}

	var tasks []Task
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
		}
	case '{':
		var byID map[string]Task
		if err := json.Unmarshal(trimmed, &byID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
		}
		for id, t := range byID {
			if t.ID == "" {
				t.ID = id
			}
			tasks = append(tasks, t)
		}
		slices.SortFunc(tasks, func(a, b Task) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return strings.Compare(a.ID, b.ID)
		})
	default:
		return nil, fmt.Errorf("%w: unexpected leading byte %q", ErrCorruptState, trimmed[0])
	}

	valid := tasks[:0]
	for _, t := range tasks {
		if t.ID == "" || t.Type == "" || !t.Status.Valid() {
			continue
		}
		valid = append(valid, t)
	}
	return valid, nil
}

func encodeTimestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func decodeTimestamp(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	return time.UnixMilli(ms), nil
}
