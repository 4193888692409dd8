package content

import (
	"context"
	"crypto/rand"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/GoCodeAlone/folio"
	"github.com/GoCodeAlone/folio/modules/auth"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Sections []seedSection `yaml:"sections"`
}

type seedSection struct {
	Name     string `yaml:"name"`
	IsPublic *bool  `yaml:"isPublic"`
	Content  any    `yaml:"content"`
}

// DefaultSections returns the built-in sections.
func DefaultSections() ([]SectionInsert, error) {
	return parseSeed(defaultSeed)
}

func parseSeed(data []byte) ([]SectionInsert, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	out := make([]SectionInsert, 0, len(f.Sections))
	for _, s := range f.Sections {
		if s.Name == "" || s.Content == nil {
			return nil, fmt.Errorf("%w: section needs name and content", ErrInvalidSeed)
		}
		raw, err := json.Marshal(s.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: section %s: %w", ErrInvalidSeed, s.Name, err)
		}
		out = append(out, SectionInsert{Name: s.Name, Content: raw, IsPublic: s.IsPublic})
	}
	return out, nil
}

// Seeder creates the admin account and default sections. Both steps are
// skipped when their data already exists.
type Seeder struct {
	Store    Storage
	Admin    AdminConfig
	Sections []SectionInsert
	Logger   folio.Logger
}

// Seed returns the number of sections created.
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	if err := s.seedAdmin(ctx); err != nil {
		return 0, err
	}

	existing, err := s.Store.GetSections(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, in := range s.Sections {
		if _, err := s.Store.CreateSection(ctx, in); err != nil {
			return 0, fmt.Errorf("seeding section %s: %w", in.Name, err)
		}
	}
	s.Logger.Info("Seeded default sections", "count", len(s.Sections))
	return len(s.Sections), nil
}

func (s *Seeder) seedAdmin(ctx context.Context) error {
	if s.Admin.Username == "" {
		return nil
	}
	_, err := s.Store.GetUserByUsername(ctx, s.Admin.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, auth.ErrUserNotFound) {
		return err
	}

	hash := s.Admin.PasswordHash
	if hash == "" {
		password := s.Admin.Password
		if password == "" {
			if password, err = randomPassword(); err != nil {
				return err
			}
			s.Logger.Warn("Generated admin password; set content.admin.password to choose one",
				"username", s.Admin.Username, "generated", password)
		}
		if hash, err = auth.HashPassword(password); err != nil {
			return fmt.Errorf("hashing admin password: %w", err)
		}
	}

	if _, err := s.Store.CreateUser(ctx, auth.User{Username: s.Admin.Username, Password: hash}); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}
	s.Logger.Info("Created admin user", "username", s.Admin.Username)
	return nil
}

func randomPassword() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
