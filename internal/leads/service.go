// Package leads manages the two persisted collections behind the screens:
// consultation submissions and portfolio projects. Records are stored
// verbatim as JSON arrays in the record store, newest first.
package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ucraft/internal/recordstore"
)

var (
	ErrMissingFields = errors.New("leads: required fields missing")
	ErrNotFound      = errors.New("leads: record not found")
)

// Consultation is one intake-form submission.
type Consultation struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Name      string   `json:"name"`
	Contact   string   `json:"contact"`
	SpaceType string   `json:"spaceType"`
	Scopes    []string `json:"scopes"`
	Region    string   `json:"region"`
	Size      string   `json:"size"`
	Schedule  string   `json:"schedule"`
	FileName  string   `json:"fileName,omitempty"`
	Details   string   `json:"details"`
	IsRead    bool     `json:"isRead"`
}

// Project is one portfolio entry shown on the project list.
type Project struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Type        string   `json:"type"` // RESIDENTIAL or COMMERCIAL
	Image       string   `json:"image"`
	Scope       string   `json:"scope"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	IconType    string   `json:"iconType"`
}

type Service struct {
	store recordstore.Store
}

func NewService(store recordstore.Store) *Service {
	return &Service{store: store}
}

// SubmitConsultation assigns id and timestamp and prepends the record.
// Only field presence is enforced; the form layer owns everything else.
func (s *Service) SubmitConsultation(ctx context.Context, c Consultation) (Consultation, error) {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Contact) == "" {
		return Consultation{}, ErrMissingFields
	}
	c.ID = uuid.NewString()
	c.Timestamp = time.Now().Format(time.RFC3339)
	c.IsRead = false

	list, err := s.listConsultations(ctx)
	if err != nil {
		return Consultation{}, err
	}
	list = append([]Consultation{c}, list...)
	if err := s.saveConsultations(ctx, list); err != nil {
		return Consultation{}, err
	}
	return c, nil
}

func (s *Service) Consultations(ctx context.Context) ([]Consultation, error) {
	return s.listConsultations(ctx)
}

// MarkConsultationRead flips the isRead flag the dashboard uses to track
// unhandled leads.
func (s *Service) MarkConsultationRead(ctx context.Context, id string) error {
	list, err := s.listConsultations(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == id {
			list[i].IsRead = true
			return s.saveConsultations(ctx, list)
		}
	}
	return ErrNotFound
}

func (s *Service) Projects(ctx context.Context) ([]Project, error) {
	return s.listProjects(ctx)
}

func (s *Service) AddProject(ctx context.Context, p Project) (Project, error) {
	if strings.TrimSpace(p.Title) == "" {
		return Project{}, ErrMissingFields
	}
	p.ID = uuid.NewString()
	list, err := s.listProjects(ctx)
	if err != nil {
		return Project{}, err
	}
	list = append([]Project{p}, list...)
	if err := s.saveProjects(ctx, list); err != nil {
		return Project{}, err
	}
	return p, nil
}

func (s *Service) UpdateProject(ctx context.Context, p Project) error {
	list, err := s.listProjects(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == p.ID {
			list[i] = p
			return s.saveProjects(ctx, list)
		}
	}
	return ErrNotFound
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	list, err := s.listProjects(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == id {
			list = append(list[:i], list[i+1:]...)
			return s.saveProjects(ctx, list)
		}
	}
	return ErrNotFound
}

func (s *Service) listConsultations(ctx context.Context) ([]Consultation, error) {
	var list []Consultation
	if err := s.load(ctx, recordstore.KeyConsultations, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Service) saveConsultations(ctx context.Context, list []Consultation) error {
	return s.save(ctx, recordstore.KeyConsultations, list)
}

func (s *Service) listProjects(ctx context.Context) ([]Project, error) {
	var list []Project
	if err := s.load(ctx, recordstore.KeyProjects, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Service) saveProjects(ctx context.Context, list []Project) error {
	return s.save(ctx, recordstore.KeyProjects, list)
}

func (s *Service) load(ctx context.Context, key string, out any) error {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("leads: load %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("leads: decode %s: %w", key, err)
	}
	return nil
}

func (s *Service) save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("leads: encode %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("leads: save %s: %w", key, err)
	}
	return nil
}
