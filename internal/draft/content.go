package draft

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"meetingassist/internal/meeting"
	"meetingassist/internal/services"
)

// Content is the editable text of one task's spec sheet and code template.
type Content struct {
	Spec        string `json:"spec"`
	Template    string `json:"template"`
	SpecKey     string `json:"spec_key,omitempty"`
	TemplateKey string `json:"template_key,omitempty"`
}

// Key identifies a content draft.
type Key struct {
	TaskIndex int
	Language  meeting.Language
}

// NewKey validates and normalizes a key.
func NewKey(taskIndex int, language string) (Key, error) {
	if taskIndex < 1 {
		return Key{}, services.Invalid("task_index", "must be >= 1")
	}
	lang, err := meeting.ParseContentLanguage(language)
	if err != nil {
		return Key{}, services.Invalid("language", err.Error())
	}
	return Key{TaskIndex: taskIndex, Language: lang}, nil
}

// String renders the key as "<index>::<LANGUAGE>".
func (k Key) String() string {
	return fmt.Sprintf("%d::%s", k.TaskIndex, k.Language)
}

// ParseKey is the inverse of Key.String.
func ParseKey(raw string) (Key, error) {
	idx, lang, ok := strings.Cut(raw, "::")
	if !ok {
		return Key{}, fmt.Errorf("malformed draft key %q", raw)
	}
	n, err := strconv.Atoi(idx)
	if err != nil {
		return Key{}, fmt.Errorf("malformed draft key %q: %w", raw, err)
	}
	return NewKey(n, lang)
}

// Set holds independent content drafts keyed by task index and language.
type Set struct {
	drafts map[Key]*Draft[Content]
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{drafts: make(map[Key]*Draft[Content])}
}

// Get returns the draft for key, or nil when none exists.
func (s *Set) Get(key Key) *Draft[Content] {
	return s.drafts[key]
}

// Ensure returns the draft for key, creating an unloaded one when missing.
func (s *Set) Ensure(key Key) *Draft[Content] {
	d, ok := s.drafts[key]
	if !ok {
		d = New[Content](nil)
		s.drafts[key] = d
	}
	return d
}

// Load replaces the baseline for key. A dirty draft is not overwritten and
// ErrConflict is returned.
func (s *Set) Load(key Key, content Content) error {
	return s.Ensure(key).Reconcile(content)
}

// Edit applies patch to the draft for key. The draft must already be loaded.
func (s *Set) Edit(key Key, patch func(Content) Content) error {
	d := s.drafts[key]
	if d == nil || !d.Loaded() {
		return services.Invalid("draft", fmt.Sprintf("content for %s is not loaded", key))
	}
	d.Edit(patch)
	return nil
}

// Save persists the draft for key through save.
func (s *Set) Save(ctx context.Context, key Key, save func(context.Context, Key, Content) error) error {
	d := s.drafts[key]
	if d == nil || !d.Loaded() {
		return services.Invalid("draft", fmt.Sprintf("content for %s is not loaded", key))
	}
	return d.Save(ctx, func(ctx context.Context, c Content) error {
		return save(ctx, key, c)
	})
}

// Discard resets the draft for key to its baseline.
func (s *Set) Discard(key Key) {
	if d := s.drafts[key]; d != nil {
		d.Discard()
	}
}

// AnyDirty reports whether any draft in the set holds unsaved edits.
func (s *Set) AnyDirty() bool {
	for _, d := range s.drafts {
		if d.Dirty() {
			return true
		}
	}
	return false
}

// DirtyKeys lists keys with unsaved edits in key order.
func (s *Set) DirtyKeys() []Key {
	var keys []Key
	for k, d := range s.drafts {
		if d.Dirty() {
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	return keys
}

// Keys lists every key in the set in key order.
func (s *Set) Keys() []Key {
	keys := make([]Key, 0, len(s.drafts))
	for k := range s.drafts {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// Len returns the number of tracked drafts.
func (s *Set) Len() int { return len(s.drafts) }

// Clear drops every draft. Callers confirm with the user first when AnyDirty.
func (s *Set) Clear() {
	s.drafts = make(map[Key]*Draft[Content])
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].TaskIndex != keys[j].TaskIndex {
			return keys[i].TaskIndex < keys[j].TaskIndex
		}
		return keys[i].Language < keys[j].Language
	})
}
