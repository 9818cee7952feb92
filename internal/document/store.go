package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrInvalidElement = errors.New("invalid element")
	ErrDuplicateID    = errors.New("duplicate element id")
)

// ElementHandle identifies an element added to a page
type ElementHandle struct {
	ID    string
	Page  string
	Index int
}

// Page is an ordered list of elements. Later elements paint above earlier ones.
type Page struct {
	ID       string    `json:"id"`
	Children []Element `json:"children"`

	mu  sync.Mutex
	ids map[string]struct{}
}

func newPage() *Page {
	return &Page{ID: uuid.NewString(), Children: []Element{}, ids: map[string]struct{}{}}
}

// AddElement appends e to the page. Elements without an ID get a fresh one.
func (p *Page) AddElement(e Element) (ElementHandle, error) {
	if err := validate(e); err != nil {
		return ElementHandle{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, ok := p.ids[e.ID]; ok {
		return ElementHandle{}, fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
	}
	p.ids[e.ID] = struct{}{}
	p.Children = append(p.Children, e)
	return ElementHandle{ID: e.ID, Page: p.ID, Index: len(p.Children) - 1}, nil
}

// Elements returns a copy of the page elements in paint order
func (p *Page) Elements() []Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Element(nil), p.Children...)
}

func validate(e Element) error {
	switch e.Type {
	case TypeText, TypeImage, TypeRect:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidElement, e.Type)
	}
	if e.Width <= 0 || e.Height <= 0 {
		return fmt.Errorf("%w: %q is %gx%g", ErrInvalidElement, e.Name, e.Width, e.Height)
	}
	if e.Type == TypeImage && e.Src == "" {
		return fmt.Errorf("%w: image %q has no source", ErrInvalidElement, e.Name)
	}
	return nil
}

// Store is an in-memory document: a canvas size and its pages
type Store struct {
	mu     sync.RWMutex
	width  int
	height int
	pages  []*Page
	active int
}

// NewStore creates a document with one empty page
func NewStore(width, height int) *Store {
	return &Store{width: width, height: height, pages: []*Page{newPage()}}
}

// ActivePage returns the page elements are added to
func (s *Store) ActivePage() *Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pages[s.active]
}

// AddPage appends a page and makes it active
func (s *Store) AddPage() *Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := newPage()
	s.pages = append(s.pages, p)
	s.active = len(s.pages) - 1
	return p
}

// Pages returns the pages in order
func (s *Store) Pages() []*Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Page(nil), s.pages...)
}

// AddElement adds e to the active page
func (s *Store) AddElement(e Element) (ElementHandle, error) {
	return s.ActivePage().AddElement(e)
}

// Size returns the canvas size in pixels
func (s *Store) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

// SetSize changes the canvas size without touching elements
func (s *Store) SetSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", width, height)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	return nil
}

type storeJSON struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Pages  []*Page `json:"pages"`
}

// MarshalJSON encodes the canvas size and pages
func (s *Store) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(storeJSON{Width: s.width, Height: s.height, Pages: s.pages})
}

// WriteJSON writes the document as indented JSON
func (s *Store) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
