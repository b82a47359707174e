package sequencer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go-stepseq/debug"
)

const saveTimeLayout = "2006-01-02_15-04-05"

// SaveInfo represents a saved project file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// Projects keeps timestamped JSON saves in one folder per project.
type Projects struct {
	Dir string

	now func() time.Time
}

// NewProjects manages projects under dir.
func NewProjects(dir string) *Projects {
	return &Projects{Dir: dir, now: time.Now}
}

func (p *Projects) projectDir(name string) string {
	return filepath.Join(p.Dir, sanitizeFilename(name))
}

// List returns all project folder names
func (p *Projects) List() ([]string, error) {
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	sort.Strings(projects)
	return projects, nil
}

// Saves returns a project's saves, newest first
func (p *Projects) Saves(project string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(p.projectDir(project))
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if info, ok := parseSaveName(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	sort.Slice(saves, func(i, j int) bool {
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})
	return saves, nil
}

// parseSaveName splits 2024-01-15_14-30-00[_name].json
func parseSaveName(filename string) (SaveInfo, bool) {
	base := strings.TrimSuffix(filename, ".json")
	if len(base) < len(saveTimeLayout) {
		return SaveInfo{}, false
	}
	ts, err := time.Parse(saveTimeLayout, base[:len(saveTimeLayout)])
	if err != nil {
		return SaveInfo{}, false
	}
	info := SaveInfo{Filename: filename, Timestamp: ts}
	if rest := base[len(saveTimeLayout):]; len(rest) > 1 && rest[0] == '_' {
		info.Name = rest[1:]
	}
	return info, true
}

// Save writes the store's state as a new timestamped save and returns its
// filename.
func (p *Projects) Save(store *Store, project, label string) (string, error) {
	if project == "" {
		project = "untitled"
	}
	dir := p.projectDir(project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating project %s: %w", project, err)
	}

	filename := p.now().Format(saveTimeLayout)
	if label != "" {
		filename += "_" + sanitizeFilename(label)
	}
	filename += ".json"

	if err := store.SaveFile(filepath.Join(dir, filename)); err != nil {
		return "", err
	}
	debug.Log("project", "saved %s/%s", project, filename)
	return filename, nil
}

// Load restores a specific save, or the newest one if filename is empty.
func (p *Projects) Load(store *Store, project, filename string) error {
	if filename == "" {
		saves, err := p.Saves(project)
		if err != nil {
			return err
		}
		if len(saves) == 0 {
			return fmt.Errorf("no saves found in project %s", project)
		}
		filename = saves[0].Filename
	}
	if err := store.LoadFile(filepath.Join(p.projectDir(project), filename)); err != nil {
		return err
	}
	debug.Log("project", "loaded %s/%s", project, filename)
	return nil
}

// Create makes an empty project folder
func (p *Projects) Create(name string) error {
	return os.MkdirAll(p.projectDir(name), 0755)
}

// DeleteSave deletes a specific save file
func (p *Projects) DeleteSave(project, filename string) error {
	return os.Remove(filepath.Join(p.projectDir(project), filepath.Base(filename)))
}

// RenameSave changes the name part of a save, keeping its timestamp
func (p *Projects) RenameSave(project, oldFilename, newName string) (string, error) {
	info, ok := parseSaveName(oldFilename)
	if !ok {
		return "", fmt.Errorf("invalid save filename %q", oldFilename)
	}

	newFilename := info.Timestamp.Format(saveTimeLayout)
	if newName != "" {
		newFilename += "_" + sanitizeFilename(newName)
	}
	newFilename += ".json"

	dir := p.projectDir(project)
	if err := os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename)); err != nil {
		return "", err
	}
	return newFilename, nil
}

// Delete removes an entire project folder
func (p *Projects) Delete(name string) error {
	return os.RemoveAll(p.projectDir(name))
}

// Rename renames a project folder
func (p *Projects) Rename(oldName, newName string) error {
	return os.Rename(p.projectDir(oldName), p.projectDir(newName))
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	return strings.NewReplacer(
		" ", "-", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	).Replace(name)
}
