package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned (wrapped) when catalog content fails validation.
var ErrInvalid = errors.New("invalid catalog")

//go:embed data/catalog.yaml
var seedYAML []byte

// Catalog is the read-only content set: chapters, creatures and projects.
// Accessors return copies or pointers into immutable data; callers must not
// modify returned values.
type Catalog struct {
	chapters  []Chapter
	creatures []Creature
	projects  []Project

	chapterByID  map[int]*Chapter
	creatureByID map[int]*Creature
	projectByID  map[int]*Project
	byRarity     map[Rarity][]*Creature
}

// document is the on-disk YAML shape.
type document struct {
	Chapters  []Chapter  `yaml:"chapters"`
	Creatures []Creature `yaml:"creatures"`
	Projects  []Project  `yaml:"projects"`
}

// New validates the content and builds the lookup indices.
func New(chapters []Chapter, creatures []Creature, projects []Project) (*Catalog, error) {
	if err := validateContent(chapters, creatures, projects); err != nil {
		return nil, err
	}

	c := &Catalog{
		chapters:     chapters,
		creatures:    creatures,
		projects:     projects,
		chapterByID:  make(map[int]*Chapter, len(chapters)),
		creatureByID: make(map[int]*Creature, len(creatures)),
		projectByID:  make(map[int]*Project, len(projects)),
		byRarity:     make(map[Rarity][]*Creature),
	}
	for i := range c.chapters {
		c.chapterByID[c.chapters[i].ID] = &c.chapters[i]
	}
	for i := range c.creatures {
		cr := &c.creatures[i]
		c.creatureByID[cr.ID] = cr
		c.byRarity[cr.Rarity] = append(c.byRarity[cr.Rarity], cr)
	}
	for i := range c.projects {
		c.projectByID[c.projects[i].ID] = &c.projects[i]
	}
	return c, nil
}

// Load parses a catalog YAML document.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.Chapters, doc.Creatures, doc.Projects)
}

// LoadFile parses the catalog YAML at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. It panics if the embedded data is
// invalid, which the package tests guard against.
func Default() *Catalog {
	defaultOnce.Do(func() {
		var doc document
		if err := yaml.Unmarshal(seedYAML, &doc); err != nil {
			panic(fmt.Sprintf("catalog: decode embedded data: %v", err))
		}
		c, err := New(doc.Chapters, doc.Creatures, doc.Projects)
		if err != nil {
			panic(fmt.Sprintf("catalog: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

// Marshal renders the content as a catalog YAML document.
func Marshal(chapters []Chapter, creatures []Creature, projects []Project) ([]byte, error) {
	return yaml.Marshal(document{Chapters: chapters, Creatures: creatures, Projects: projects})
}

// Chapters returns all chapters in order.
func (c *Catalog) Chapters() []Chapter { return c.chapters }

// ChapterCount returns the number of chapters.
func (c *Catalog) ChapterCount() int { return len(c.chapters) }

// Chapter returns the chapter with the given ID, or nil.
func (c *Catalog) Chapter(id int) *Chapter { return c.chapterByID[id] }

// Creatures returns all creatures in catalog order.
func (c *Catalog) Creatures() []Creature { return c.creatures }

// Creature returns the creature with the given ID, or nil.
func (c *Catalog) Creature(id int) *Creature { return c.creatureByID[id] }

// CreaturesByRarity returns the creatures of one tier in catalog order.
func (c *Catalog) CreaturesByRarity(r Rarity) []*Creature { return c.byRarity[r] }

// Projects returns all projects in order.
func (c *Catalog) Projects() []Project { return c.projects }

// Project returns the project with the given ID, or nil.
func (c *Catalog) Project(id int) *Project { return c.projectByID[id] }
