package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ProjectsRegistry holds the list of known projects
type ProjectsRegistry struct {
	Projects       []Project `json:"projects"`
	DefaultProject string    `json:"defaultProject"`
}

// Project represents a registered project
type Project struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

var (
	// ErrProjectNotFound is returned when a project doesn't exist in the registry
	ErrProjectNotFound = errors.New("project not found")
	// ErrDuplicateProject is returned when trying to add a project that already exists
	ErrDuplicateProject = errors.New("project already exists")
	// ErrEmptyName is returned when the project name is empty
	ErrEmptyName = errors.New("project name cannot be empty")
	// ErrEmptyPath is returned when the project path is empty
	ErrEmptyPath = errors.New("project path cannot be empty")
	// ErrNotGitRepo is returned when the path is not a git repository
	ErrNotGitRepo = errors.New("path is not a git repository")
)

// LoadProjectsRegistry loads the projects registry from disk. Returns an
// empty registry if the file doesn't exist. Since the registry is the one
// piece of state shared by every `az`/TUI invocation on the machine
// regardless of which project directory they were launched from, reads and
// writes take a cross-process file lock (mirroring the `gofrs/flock`
// sidecar-file convention used for the beads sync lock).
func LoadProjectsRegistry() (*ProjectsRegistry, error) {
	path, err := registryPath()
	if err != nil {
		return nil, err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	defer lock.Unlock()

	// Return empty registry if file doesn't exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &ProjectsRegistry{
			Projects:       []Project{},
			DefaultProject: "",
		}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var registry ProjectsRegistry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, err
	}

	return &registry, nil
}

// SaveProjectsRegistry saves the projects registry to disk, under the same
// cross-process lock LoadProjectsRegistry takes.
func SaveProjectsRegistry(reg *ProjectsRegistry) error {
	path, err := registryPath()
	if err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// index returns the position of name in the project list, or -1.
func (r *ProjectsRegistry) index(name string) int {
	for i, p := range r.Projects {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Add registers a project. The path must be a git repository; the first
// project registered becomes the default.
func (r *ProjectsRegistry) Add(name, path string) error {
	if name == "" {
		return ErrEmptyName
	}
	if path == "" {
		return ErrEmptyPath
	}
	if r.index(name) >= 0 {
		return ErrDuplicateProject
	}
	if !isGitRepo(path) {
		return ErrNotGitRepo
	}

	r.Projects = append(r.Projects, Project{Name: name, Path: path})
	if len(r.Projects) == 1 {
		r.DefaultProject = name
	}
	return nil
}

// Remove drops a project. Removing the default promotes the first
// surviving project in its place.
func (r *ProjectsRegistry) Remove(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	i := r.index(name)
	if i < 0 {
		return ErrProjectNotFound
	}
	r.Projects = append(r.Projects[:i], r.Projects[i+1:]...)

	if r.DefaultProject == name {
		r.DefaultProject = ""
		if len(r.Projects) > 0 {
			r.DefaultProject = r.Projects[0].Name
		}
	}
	return nil
}

// SetDefault marks an existing project as the default.
func (r *ProjectsRegistry) SetDefault(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if r.index(name) < 0 {
		return ErrProjectNotFound
	}
	r.DefaultProject = name
	return nil
}

// Get looks a project up by name.
func (r *ProjectsRegistry) Get(name string) (*Project, error) {
	if i := r.index(name); i >= 0 {
		return &r.Projects[i], nil
	}
	return nil, ErrProjectNotFound
}

// GetDefault returns the default project, or nil when none is set.
func (r *ProjectsRegistry) GetDefault() *Project {
	if r.DefaultProject == "" {
		return nil
	}
	if i := r.index(r.DefaultProject); i >= 0 {
		return &r.Projects[i]
	}
	return nil
}

// DetectProjectFromCwd attempts to detect a project from the current directory
// It walks up the directory tree looking for a .git directory
func DetectProjectFromCwd() (*Project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	// Walk up directory tree looking for .git
	path := cwd
	for {
		if isGitRepo(path) {
			// Use the directory name as the project name
			name := filepath.Base(path)
			return &Project{
				Name: name,
				Path: path,
			}, nil
		}

		// Move up one directory
		parent := filepath.Dir(path)
		if parent == path {
			// Reached root without finding .git
			return nil, ErrNotGitRepo
		}
		path = parent
	}
}

// registryPath is a variable holding the function that returns the path to the projects registry file
// This allows it to be overridden in tests
var registryPath = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "azedarach", "projects.json"), nil
}

// isGitRepo checks if a path is a git repository
func isGitRepo(path string) bool {
	gitPath := filepath.Join(path, ".git")
	info, err := os.Stat(gitPath)
	if err != nil {
		return false
	}
	// .git can be either a directory or a file (for worktrees)
	return info.IsDir() || !info.IsDir()
}

// FindByPath finds a project by its path
func (r *ProjectsRegistry) FindByPath(path string) *Project {
	// Normalize path by cleaning it
	cleanPath := filepath.Clean(path)

	for _, p := range r.Projects {
		cleanProjectPath := filepath.Clean(p.Path)
		if cleanProjectPath == cleanPath || strings.HasPrefix(cleanPath, cleanProjectPath+string(filepath.Separator)) {
			return &p
		}
	}
	return nil
}
