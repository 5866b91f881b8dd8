package scraper

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/live-events/internal/event"
)

// Kind selects the extraction strategy for a source
type Kind string

const (
	KindGrid    Kind = "grid"
	KindCards   Kind = "cards"
	KindParking Kind = "parking"
)

// ErrUnknownKind is returned for a source whose kind has no extraction strategy.
var ErrUnknownKind = errors.New("unknown source kind")

// Selectors holds the CSS selectors used by the HTML strategies
type Selectors struct {
	Container string `yaml:"container" json:"container,omitempty"`
	Name      string `yaml:"name" json:"name,omitempty"`
	Date      string `yaml:"date" json:"date,omitempty"`   // grid: full date label
	Day       string `yaml:"day" json:"day,omitempty"`     // cards: day of month
	Month     string `yaml:"month" json:"month,omitempty"` // cards: month name
}

// Source describes one place listings are scraped from
type Source struct {
	ID        string         `yaml:"id" json:"id"`
	Kind      Kind           `yaml:"kind" json:"kind"`
	URL       string         `yaml:"url" json:"url"`
	Venue     string         `yaml:"venue" json:"venue,omitempty"` // empty when the feed names the location
	Identity  event.Identity `yaml:"identity" json:"identity"`
	Selectors Selectors      `yaml:"selectors" json:"selectors,omitempty"`
}

const (
	VenueSanSiro          = "Stadio San Siro"
	VenueLaMaura          = "Ippodromo La Maura"
	VenueIppodromoSanSiro = "Ippodromo San Siro"
)

var ticketCardSelectors = Selectors{
	Container: ".ticket-card",
	Name:      ".ticket-card__title",
	Day:       ".ticket-card__date .day",
	Month:     ".ticket-card__date .month",
}

// DefaultSources returns the built-in source table
func DefaultSources() []Source {
	return []Source{
		{
			ID:       "sansiro-stadium",
			Kind:     KindGrid,
			URL:      "https://www.sansirostadium.com/live/I-grandi-concerti-di-San-Siro",
			Venue:    VenueSanSiro,
			Identity: event.IdentityNameDay,
			Selectors: Selectors{
				Container: ".container .row.row0.row-eq-height",
				Name:      ".boxNota .titolo.alignTextCenter div",
				Date:      ".boxNota .titolo span.uppercase",
			},
		},
		{
			ID:        "la-maura",
			Kind:      KindCards,
			URL:       "https://www.ticketone.it/venue/ippodromo-snai-la-maura-milano/",
			Venue:     VenueLaMaura,
			Identity:  event.IdentityNameDay,
			Selectors: ticketCardSelectors,
		},
		{
			ID:        "ippodromo-sansiro",
			Kind:      KindCards,
			URL:       "https://www.ticketone.it/venue/ippodromo-snai-san-siro-milano/",
			Venue:     VenueIppodromoSanSiro,
			Identity:  event.IdentityNameDay,
			Selectors: ticketCardSelectors,
		},
		{
			ID:       "sansiro-parking",
			Kind:     KindParking,
			URL:      "https://www.sansiroparking.it/api/events",
			Identity: event.IdentityLocationTime,
		},
	}
}

// Validate checks that a source has everything its strategy needs
func (s Source) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("source id is required")
	}
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("source %s: url is required", s.ID)
	}
	if _, err := event.ParseIdentity(string(s.Identity)); err != nil {
		return fmt.Errorf("source %s: %w", s.ID, err)
	}

	switch s.Kind {
	case KindGrid:
		if s.Selectors.Container == "" || s.Selectors.Name == "" || s.Selectors.Date == "" {
			return fmt.Errorf("source %s: grid sources need container, name and date selectors", s.ID)
		}
	case KindCards:
		if s.Selectors.Container == "" || s.Selectors.Name == "" || s.Selectors.Day == "" || s.Selectors.Month == "" {
			return fmt.Errorf("source %s: card sources need container, name, day and month selectors", s.ID)
		}
	case KindParking:
	default:
		return fmt.Errorf("source %s: %w: %q", s.ID, ErrUnknownKind, s.Kind)
	}

	if s.Kind != KindParking && strings.TrimSpace(s.Venue) == "" {
		return fmt.Errorf("source %s: venue is required for %s sources", s.ID, s.Kind)
	}
	return nil
}

// LoadSources reads a source table from a YAML file of the form
//
//	sources:
//	  - id: sansiro-stadium
//	    kind: grid
//	    ...
//
// An empty path returns DefaultSources.
func LoadSources(path string) ([]Source, error) {
	if path == "" {
		return DefaultSources(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	var file struct {
		Sources []Source `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing sources file: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}

	seen := make(map[string]bool)
	for i := range file.Sources {
		src := &file.Sources[i]
		identity, err := event.ParseIdentity(string(src.Identity))
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.ID, err)
		}
		src.Identity = identity
		if err := src.Validate(); err != nil {
			return nil, err
		}
		if seen[src.ID] {
			return nil, fmt.Errorf("duplicate source id: %s", src.ID)
		}
		seen[src.ID] = true
	}

	return file.Sources, nil
}
