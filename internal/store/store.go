// Package store owns the timeline's item collection. It serializes every
// mutation, runs relocations through the layout resolver before committing
// them and keeps the transient list of rejected-move errors.
package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"timelane/internal/layout"
	appLog "timelane/internal/log"
	"timelane/internal/model"
)

var (
	ErrItemNotFound = layout.ErrItemNotFound
	ErrBlankName    = errors.New("store: name must not be blank")
	ErrDuplicateID  = errors.New("store: duplicate item id")
	ErrNoBanner     = errors.New("store: no such banner entry")
)

// Options tune a Store. Zero values fall back to the layout defaults and a
// 5 second banner.
type Options struct {
	Zoom        layout.ZoomLimits
	DefaultZoom float64
	BannerTTL   time.Duration
	Now         func() time.Time
}

// BannerEntry is a rejected-move error shown until Expires.
type BannerEntry struct {
	Error   layout.CollisionError `json:"error"`
	Expires time.Time             `json:"expires"`
}

// Snapshot is a consistent layout of the collection at Version.
type Snapshot struct {
	Version    uint64
	Calendar   layout.Calendar
	Assignment layout.LaneAssignment
}

type Store struct {
	mu      sync.RWMutex
	items   []model.Item
	version uint64

	limits    layout.ZoomLimits
	zoom      float64
	bannerTTL time.Duration
	banner    []BannerEntry
	now       func() time.Time
}

// New builds a Store holding a copy of items. Items without an id get a
// generated one; invalid items and duplicate ids are rejected.
func New(items []model.Item, opts Options) (*Store, error) {
	if opts.Zoom.Step <= 1 || opts.Zoom.Min <= 0 || opts.Zoom.Max < opts.Zoom.Min {
		opts.Zoom = layout.DefaultZoomLimits
	}
	if opts.DefaultZoom <= 0 {
		opts.DefaultZoom = 1
	}
	if opts.BannerTTL <= 0 {
		opts.BannerTTL = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		limits:    opts.Zoom,
		zoom:      opts.Zoom.Clamp(opts.DefaultZoom),
		bannerTTL: opts.BannerTTL,
		now:       opts.Now,
	}
	for _, it := range items {
		if err := s.add(it); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) add(it model.Item) error {
	if strings.TrimSpace(it.ID) == "" {
		it.ID = uuid.NewString()
	}
	if err := it.Validate(); err != nil {
		return err
	}
	if s.indexOf(it.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, it.ID)
	}
	s.items = append(s.items, it)
	s.version++
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Items returns a copy of the collection in insertion order.
func (s *Store) Items() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Item(nil), s.items...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Get(id string) (model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return model.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return s.items[i], nil
}

// Version increases on every committed mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Add inserts a new item and returns it with its (possibly generated) id.
// Items are added as given; overlaps with existing items are reported by the
// layout, not prevented here.
func (s *Store) Add(it model.Item) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(it.ID) == "" {
		it.ID = uuid.NewString()
	}
	it.Name = strings.TrimSpace(it.Name)
	if err := s.add(it); err != nil {
		return model.Item{}, err
	}
	appLog.Info("item added", "id", it.ID, "start", it.Start.String(), "end", it.End.String())
	return it, nil
}

// Rename sets the trimmed name of an item. Blank names are rejected and
// leave the item unchanged.
func (s *Store) Rename(id, name string) (model.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Item{}, ErrBlankName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	s.items[i].Name = name
	s.version++
	appLog.Info("item renamed", "id", id, "name", name)
	return s.items[i], nil
}

// Move drops the item at pointerFraction of the timeline width. zoom <= 0
// uses the store's current zoom. An accepted move is committed; a rejected
// one leaves the collection untouched and its collisions go to the banner.
func (s *Store) Move(id string, pointerFraction, zoom float64) (layout.MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if zoom <= 0 {
		zoom = s.zoom
	}
	if s.indexOf(id) < 0 {
		return layout.MoveResult{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	cal, err := layout.BuildCalendar(s.items)
	if err != nil {
		return layout.MoveResult{}, err
	}
	res, err := layout.ProposeMove(s.items, id, pointerFraction, cal.TotalDays, zoom)
	if err != nil {
		return layout.MoveResult{}, err
	}

	if !res.Accepted {
		expires := s.now().Add(s.bannerTTL)
		for _, ce := range res.Errors {
			s.banner = append(s.banner, BannerEntry{Error: ce, Expires: expires})
		}
		appLog.Info("move rejected", "id", id, "start", res.Item.Start.String(), "collisions", len(res.Errors))
		return res, nil
	}

	s.items[s.indexOf(id)] = res.Item
	s.version++
	s.banner = nil
	appLog.Info("move committed", "id", id, "start", res.Item.Start.String(), "end", res.Item.End.String())
	return res, nil
}

// ReplaceSource swaps every item tagged with source for items. The new items
// are tagged with source; their ids must not clash with items from other
// sources.
func (s *Store) ReplaceSource(source string, items []model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]model.Item, 0, len(s.items)+len(items))
	seen := make(map[string]bool, len(s.items))
	for _, it := range s.items {
		if it.Source != source {
			kept = append(kept, it)
			seen[it.ID] = true
		}
	}
	for _, it := range items {
		it.Source = source
		if err := it.Validate(); err != nil {
			return err
		}
		if seen[it.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, it.ID)
		}
		seen[it.ID] = true
		kept = append(kept, it)
	}

	s.items = kept
	s.version++
	appLog.Info("source replaced", "source", source, "items", len(items), "total", len(kept))
	return nil
}

// Layout computes the calendar and lanes of the current collection. It
// returns layout.ErrEmptyInput when there is nothing to lay out.
func (s *Store) Layout() (Snapshot, error) {
	s.mu.RLock()
	items := append([]model.Item(nil), s.items...)
	version := s.version
	s.mu.RUnlock()

	cal, err := layout.BuildCalendar(items)
	if err != nil {
		return Snapshot{Version: version}, err
	}
	asg, err := layout.AssignLanes(items, cal.Segments)
	if err != nil {
		return Snapshot{Version: version}, fmt.Errorf("assign lanes: %w", err)
	}
	return Snapshot{Version: version, Calendar: cal, Assignment: asg}, nil
}

// Banner returns the unexpired rejected-move errors and drops expired ones.
func (s *Store) Banner() []BannerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneBanner()
	return append([]BannerEntry{}, s.banner...)
}

// Dismiss removes the banner entry at index (as returned by Banner).
func (s *Store) Dismiss(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneBanner()
	if index < 0 || index >= len(s.banner) {
		return fmt.Errorf("%w: %d", ErrNoBanner, index)
	}
	s.banner = append(s.banner[:index], s.banner[index+1:]...)
	return nil
}

// pruneBanner drops expired entries. s.mu must be held.
func (s *Store) pruneBanner() {
	now := s.now()
	live := s.banner[:0]
	for _, b := range s.banner {
		if now.Before(b.Expires) {
			live = append(live, b)
		}
	}
	s.banner = live
}

func (s *Store) Zoom() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zoom
}

func (s *Store) ZoomIn() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = s.limits.In(s.zoom)
	return s.zoom
}

func (s *Store) ZoomOut() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = s.limits.Out(s.zoom)
	return s.zoom
}
