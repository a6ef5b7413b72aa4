package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"crewtime/internal/model"
)

// Memory is a simple in-memory store used when no database is configured.
// It is seeded by fixtures or tests.
type Memory struct {
	mu    sync.Mutex
	crews map[string]model.Crew         // id -> crew
	byDay map[string][]model.Assignment // crew|date -> assignments
}

func NewMemory() *Memory {
	return &Memory{
		crews: map[string]model.Crew{},
		byDay: map[string][]model.Assignment{},
	}
}

func dayKey(crewID, date string) string { return crewID + "|" + date }

// PutCrew inserts or replaces a crew.
func (m *Memory) PutCrew(c model.Crew) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.crews[c.ID] = c
}

// PutAssignments appends assignments, replacing any with the same id on the
// same crew/day.
func (m *Memory) PutAssignments(as ...model.Assignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range as {
		k := dayKey(a.CrewID, a.Date)
		list := m.byDay[k]
		replaced := false
		for i := range list {
			if list[i].ID == a.ID {
				list[i] = a
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, a)
		}
		m.byDay[k] = list
	}
}

func (m *Memory) ListAssignments(ctx context.Context, crewID, date string) ([]model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.byDay[dayKey(crewID, date)]
	out := make([]model.Assignment, len(list))
	copy(out, list)
	return out, nil
}

func (m *Memory) GetCrew(ctx context.Context, crewID string) (model.Crew, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.crews[crewID]
	if !ok {
		return model.Crew{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

// Fixtures is the YAML seed format for Memory.
type Fixtures struct {
	Crews       []model.Crew       `yaml:"crews"`
	Assignments []model.Assignment `yaml:"assignments"`
}

// LoadFixtures decodes YAML fixtures from r into m.
func (m *Memory) LoadFixtures(r io.Reader) error {
	var fx Fixtures
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode fixtures: %w", err)
	}
	for _, a := range fx.Assignments {
		if a.ID == "" || a.CrewID == "" || a.Date == "" {
			return fmt.Errorf("fixture assignment %q: id, crewId and date are required", a.ID)
		}
		if a.EndMinutes < a.StartMinutes {
			return fmt.Errorf("fixture assignment %q: ends before it starts", a.ID)
		}
	}
	for _, c := range fx.Crews {
		m.PutCrew(c)
	}
	m.PutAssignments(fx.Assignments...)
	return nil
}

// LoadFixturesFile loads fixtures from a YAML file.
func (m *Memory) LoadFixturesFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return m.LoadFixtures(f)
}
