package draft_test

import (
	"context"
	"errors"
	"testing"

	"meetingassist/internal/draft"
	"meetingassist/internal/meeting"
	"meetingassist/internal/services"
)

func TestKeyRoundTrip(t *testing.T) {
	key, err := draft.NewKey(2, "sas")
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	if key.String() != "2::SAS" {
		t.Fatalf("String = %q", key.String())
	}
	parsed, err := draft.ParseKey("2::SAS")
	if err != nil || parsed != key {
		t.Fatalf("ParseKey = %#v, %v", parsed, err)
	}
}

func TestNewKeyValidation(t *testing.T) {
	if _, err := draft.NewKey(0, "R"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for index 0, got %v", err)
	}
	if _, err := draft.NewKey(1, "BOTH"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for BOTH, got %v", err)
	}
}

func TestSetSaveAffectsOnlyItsKey(t *testing.T) {
	set := draft.NewSet()
	sas := draft.Key{TaskIndex: 2, Language: meeting.LanguageSAS}
	r := draft.Key{TaskIndex: 1, Language: meeting.LanguageR}

	if err := set.Load(sas, draft.Content{Spec: "spec two", Template: "proc means;", SpecKey: "s2", TemplateKey: "t2"}); err != nil {
		t.Fatalf("load sas: %v", err)
	}
	if err := set.Load(r, draft.Content{Spec: "spec one", Template: "summary(x)"}); err != nil {
		t.Fatalf("load r: %v", err)
	}
	if err := set.Edit(r, func(c draft.Content) draft.Content { c.Spec = "spec one edited"; return c }); err != nil {
		t.Fatalf("edit r: %v", err)
	}
	if err := set.Edit(sas, func(c draft.Content) draft.Content { c.Template = "proc freq;"; return c }); err != nil {
		t.Fatalf("edit sas: %v", err)
	}

	var savedKey draft.Key
	var saved draft.Content
	err := set.Save(context.Background(), sas, func(_ context.Context, k draft.Key, c draft.Content) error {
		savedKey, saved = k, c
		return nil
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if savedKey != sas || saved.Spec != "spec two" || saved.Template != "proc freq;" {
		t.Fatalf("unexpected save payload: %v %#v", savedKey, saved)
	}
	if set.Get(sas).Dirty() {
		t.Fatal("saved key should be clean")
	}
	if !set.Get(r).Dirty() || set.Get(r).Value().Spec != "spec one edited" {
		t.Fatal("other key must be untouched")
	}
	if keys := set.DirtyKeys(); len(keys) != 1 || keys[0] != r {
		t.Fatalf("DirtyKeys = %v", keys)
	}
}

func TestSetLoadDoesNotClobberDirty(t *testing.T) {
	set := draft.NewSet()
	key := draft.Key{TaskIndex: 1, Language: meeting.LanguageR}
	_ = set.Load(key, draft.Content{Spec: "v1"})
	_ = set.Edit(key, func(c draft.Content) draft.Content { c.Spec = "local"; return c })

	if err := set.Load(key, draft.Content{Spec: "v2"}); !errors.Is(err, draft.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if set.Get(key).Value().Spec != "local" {
		t.Fatal("dirty draft was overwritten")
	}
}

func TestSetEditRequiresLoad(t *testing.T) {
	set := draft.NewSet()
	key := draft.Key{TaskIndex: 3, Language: meeting.LanguageR}
	if err := set.Edit(key, func(c draft.Content) draft.Content { return c }); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	set.Ensure(key)
	if set.Get(key).Loaded() {
		t.Fatal("ensured draft should not be loaded")
	}
	set.Clear()
	if set.Len() != 0 || set.AnyDirty() {
		t.Fatal("clear should drop every draft")
	}
}
