package project

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DatasetVersion records one registered copy of a dataset file and the shape
// it had when it was added.
type DatasetVersion struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Description string    `json:"description,omitempty"`
	Version     int       `json:"version"`
	Rows        int       `json:"rows"`
	Fields      []string  `json:"fields"`
	AddedAt     time.Time `json:"added_at"`
}

// Ref returns the name@version reference accepted by Resolve.
func (d *DatasetVersion) Ref() string {
	return fmt.Sprintf("%s@%d", d.Name, d.Version)
}

// parseRef splits "name@N". A bare name yields version 0 (latest).
func parseRef(ref string) (string, int, error) {
	ref = strings.TrimSpace(ref)
	i := strings.LastIndex(ref, "@")
	if i < 0 {
		return ref, 0, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(ref[i+1:], "v"))
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("invalid dataset reference %q: version must be a positive integer", ref)
	}
	return ref[:i], n, nil
}
