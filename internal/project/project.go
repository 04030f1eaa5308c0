package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/google/uuid"
)

const reportsDirName = "reports"

// ErrDatasetNotFound is returned when a reference matches no registered version.
var ErrDatasetNotFound = errors.New("dataset not found")

// Project represents a dataloom project persisted on disk.
type Project struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Datasets    []*DatasetVersion `json:"datasets"`
	Reports     []string          `json:"reports,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// Not serialized: on-disk location of the project.json
	rootDir string `json:"-"`
}

// NewProject constructs an in-memory project. Call Save() to persist.
func NewProject(name, description, rootDir string) *Project {
	return &Project{
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		rootDir:     rootDir,
	}
}

// LoadProject loads a project.json from the provided directory.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, utils.ProjectMarker)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	p.rootDir = dir
	return &p, nil
}

// RootDir returns the on-disk project directory path.
func (p *Project) RootDir() string { return p.rootDir }

// Save writes project.json using atomic write.
func (p *Project) Save() error {
	if p.rootDir == "" {
		return errors.New("project root directory not set")
	}
	if err := utils.EnsureProjectDir(p.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	p.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(p)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(p.rootDir, utils.ProjectMarker), data)
}

// AddDataset loads the file once to record its shape and registers it as the
// next version of its dataset name. An empty name defaults to the file's base
// name.
func (p *Project) AddDataset(path, name, description string, opt dataset.LoadOptions) (*DatasetVersion, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	snap, err := dataset.Load(abs, opt)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = filepath.Base(abs)
	}
	if strings.Contains(name, "@") {
		return nil, fmt.Errorf("dataset name %q must not contain '@'", name)
	}
	d := &DatasetVersion{
		ID:          uuid.NewString(),
		Name:        name,
		Path:        abs,
		Description: description,
		Version:     p.nextVersion(name),
		Rows:        snap.Seen,
		Fields:      snap.Fields,
		AddedAt:     time.Now(),
	}
	p.Datasets = append(p.Datasets, d)
	p.UpdatedAt = time.Now()
	return d, nil
}

func (p *Project) nextVersion(name string) int {
	v := 0
	for _, d := range p.Datasets {
		if d.Name == name && d.Version > v {
			v = d.Version
		}
	}
	return v + 1
}

// Latest returns the highest version registered under name.
func (p *Project) Latest(name string) (*DatasetVersion, error) {
	var best *DatasetVersion
	for _, d := range p.Datasets {
		if d.Name == name && (best == nil || d.Version > best.Version) {
			best = d
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
	}
	return best, nil
}

// Version returns version n of the named dataset.
func (p *Project) Version(name string, n int) (*DatasetVersion, error) {
	for _, d := range p.Datasets {
		if d.Name == name && d.Version == n {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s@%d", ErrDatasetNotFound, name, n)
}

// Resolve accepts "name", "name@N" or a dataset ID.
func (p *Project) Resolve(ref string) (*DatasetVersion, error) {
	for _, d := range p.Datasets {
		if d.ID == ref {
			return d, nil
		}
	}
	name, n, err := parseRef(ref)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return p.Latest(name)
	}
	return p.Version(name, n)
}

// Names returns the distinct dataset names in sorted order.
func (p *Project) Names() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range p.Datasets {
		if _, ok := seen[d.Name]; ok {
			continue
		}
		seen[d.Name] = struct{}{}
		out = append(out, d.Name)
	}
	sort.Strings(out)
	return out
}

// ReportsDir is where attached analysis reports are written.
func (p *Project) ReportsDir() string {
	return filepath.Join(p.rootDir, reportsDirName)
}

// AttachReport writes data under reports/ and records it on the project.
// The caller saves the project afterwards.
func (p *Project) AttachReport(fileName string, data []byte) (string, error) {
	if p.rootDir == "" {
		return "", errors.New("project root directory not set")
	}
	fileName = filepath.Base(fileName)
	if fileName == "." || fileName == string(filepath.Separator) {
		return "", fmt.Errorf("invalid report name %q", fileName)
	}
	dir := p.ReportsDir()
	if err := utils.EnsureProjectDir(dir); err != nil {
		return "", fmt.Errorf("ensure reports dir: %w", err)
	}
	out := filepath.Join(dir, fileName)
	if err := utils.SafeWriteFile(out, data); err != nil {
		return "", err
	}
	rel := filepath.Join(reportsDirName, fileName)
	for _, r := range p.Reports {
		if r == rel {
			return out, nil
		}
	}
	p.Reports = append(p.Reports, rel)
	p.UpdatedAt = time.Now()
	return out, nil
}
