package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/fyrsmithlabs/debrief/internal/condition"
	"github.com/fyrsmithlabs/debrief/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	guidecardsDir = "guidecards"
	protocolsDir  = "protocols"

	conditionsFile   = "conditions.json"
	questionsFile    = "questions.json"
	instructionsFile = "instructions.json"
)

// Guidecard holds the catalogs for one incident type.
type Guidecard struct {
	IncidentType string
	Conditions   []condition.Definition
	Questions    Catalog
	Instructions Catalog
}

// Protocol holds the catalogs for one time/life-critical branch.
type Protocol struct {
	Code         string
	Conditions   []condition.Definition
	Instructions Catalog
}

// Store provides catalogs by incident type and branch code.
type Store interface {
	Guidecard(ctx context.Context, incidentType string) (*Guidecard, error)
	Protocol(ctx context.Context, code string) (*Protocol, error)
}

// FSStore loads catalogs from a filesystem and caches them until Invalidate.
type FSStore struct {
	fsys   fs.FS
	logger *logging.Logger

	mu         sync.RWMutex
	guidecards map[string]*Guidecard
	protocols  map[string]*Protocol
	// generation counts invalidations; a load started under an older
	// generation is returned but not cached.
	generation uint64
	group      singleflight.Group
}

// NewFSStore returns a store reading from fsys.
func NewFSStore(fsys fs.FS, logger *logging.Logger) *FSStore {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FSStore{
		fsys:       fsys,
		logger:     logger,
		guidecards: make(map[string]*Guidecard),
		protocols:  make(map[string]*Protocol),
	}
}

// OpenDir returns a store rooted at dir on the local filesystem.
func OpenDir(dir string, logger *logging.Logger) (*FSStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, configError(dir, fmt.Errorf("%w: %v", ErrNotFound, err))
	}
	if !info.IsDir() {
		return nil, configError(dir, fmt.Errorf("%w: not a directory", ErrInvalid))
	}
	return NewFSStore(os.DirFS(dir), logger), nil
}

// Invalidate drops every cached catalog.
func (s *FSStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guidecards = make(map[string]*Guidecard)
	s.protocols = make(map[string]*Protocol)
	s.generation++
}

// Guidecard returns the catalogs for incidentType.
func (s *FSStore) Guidecard(ctx context.Context, incidentType string) (*Guidecard, error) {
	s.mu.RLock()
	g, ok := s.guidecards[incidentType]
	s.mu.RUnlock()
	if ok {
		return g, nil
	}

	v, err, _ := s.group.Do("g/"+incidentType, func() (interface{}, error) {
		s.mu.RLock()
		cached, ok := s.guidecards[incidentType]
		gen := s.generation
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}
		g, err := s.loadGuidecard(ctx, incidentType)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.generation == gen {
			s.guidecards[incidentType] = g
		}
		s.mu.Unlock()
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Guidecard), nil
}

// Protocol returns the catalogs for the branch code.
func (s *FSStore) Protocol(ctx context.Context, code string) (*Protocol, error) {
	s.mu.RLock()
	p, ok := s.protocols[code]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}

	v, err, _ := s.group.Do("p/"+code, func() (interface{}, error) {
		s.mu.RLock()
		cached, ok := s.protocols[code]
		gen := s.generation
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}
		p, err := s.loadProtocol(ctx, code)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.generation == gen {
			s.protocols[code] = p
		}
		s.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Protocol), nil
}

func (s *FSStore) loadGuidecard(ctx context.Context, incidentType string) (*Guidecard, error) {
	dir, err := s.dir(guidecardsDir, incidentType)
	if err != nil {
		return nil, err
	}

	g := &Guidecard{IncidentType: incidentType}
	if g.Conditions, err = s.readConditions(dir); err != nil {
		return nil, err
	}
	if g.Questions, err = s.readItems(dir, questionsFile, g.Conditions); err != nil {
		return nil, err
	}
	if g.Instructions, err = s.readItems(dir, instructionsFile, g.Conditions); err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "guidecard loaded",
		zap.String("incident_type", incidentType),
		zap.Int("conditions", len(g.Conditions)),
		zap.Int("questions", len(g.Questions)),
		zap.Int("instructions", len(g.Instructions)))
	return g, nil
}

func (s *FSStore) loadProtocol(ctx context.Context, code string) (*Protocol, error) {
	dir, err := s.dir(protocolsDir, code)
	if err != nil {
		return nil, err
	}

	p := &Protocol{Code: code}
	if p.Conditions, err = s.readConditions(dir); err != nil {
		return nil, err
	}
	if p.Instructions, err = s.readItems(dir, instructionsFile, p.Conditions); err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "protocol loaded",
		zap.String("code", code),
		zap.Int("conditions", len(p.Conditions)),
		zap.Int("instructions", len(p.Instructions)))
	return p, nil
}

// dir validates name as a single path element and checks the directory exists.
func (s *FSStore) dir(kind, name string) (string, error) {
	dir := path.Join(kind, name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || !fs.ValidPath(dir) {
		return "", configError(dir, fmt.Errorf("%w: invalid name %q", ErrInvalid, name))
	}
	info, err := fs.Stat(s.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", configError(dir, fmt.Errorf("%w: no %s for %q", ErrNotFound, kind, name))
		}
		return "", configError(dir, err)
	}
	if !info.IsDir() {
		return "", configError(dir, fmt.Errorf("%w: not a directory", ErrInvalid))
	}
	return dir, nil
}

func (s *FSStore) readJSON(file string, v interface{}) error {
	data, err := fs.ReadFile(s.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return configError(file, fmt.Errorf("%w: %v", ErrNotFound, err))
		}
		return configError(file, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return configError(file, fmt.Errorf("%w: %v", ErrInvalid, err))
	}
	return nil
}

func (s *FSStore) readConditions(dir string) ([]condition.Definition, error) {
	file := path.Join(dir, conditionsFile)
	var defs []condition.Definition
	if err := s.readJSON(file, &defs); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(defs))
	for _, d := range defs {
		if seen[d.ID] {
			return nil, configError(file, fmt.Errorf("%w: duplicate condition id %d", ErrInvalid, d.ID))
		}
		if strings.TrimSpace(d.Text) == "" {
			return nil, configError(file, fmt.Errorf("%w: condition %d has no text", ErrInvalid, d.ID))
		}
		seen[d.ID] = true
	}
	return defs, nil
}

func (s *FSStore) readItems(dir, name string, defs []condition.Definition) (Catalog, error) {
	file := path.Join(dir, name)
	var items Catalog
	if err := s.readJSON(file, &items); err != nil {
		return nil, err
	}

	defined := make(map[int]bool, len(defs))
	for _, d := range defs {
		defined[d.ID] = true
	}

	for i := range items {
		it := &items[i]
		if it.Question != "" && it.Instruction != "" {
			return nil, configError(file, fmt.Errorf("%w: item %d has both a question and an instruction", ErrInvalid, i))
		}
		if err := it.compile(); err != nil {
			return nil, configError(file, fmt.Errorf("item %d: %w", i, err))
		}
		if it.expr == nil {
			continue
		}
		for _, id := range condition.IDs(it.expr) {
			if !defined[id] {
				s.logger.Warn(context.Background(), "catalog item references undefined condition",
					zap.String("file", file),
					zap.Int("item", i),
					zap.Int("condition_id", id))
			}
		}
	}
	return items, nil
}
