// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package reactionroles

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tomtom215/rolekeeper/internal/persistent"
)

func TestRegistryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reaction_roles.json")
	failOnWrite := persistent.WithFailureHandler(func(err error) {
		t.Errorf("unexpected write failure: %v", err)
	})
	store, err := persistent.Open[Registry](persistent.NewFileBackend(path), failOnWrite)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	store.Update(func(r *Registry) { r.Put(1234, Parse("<@&10> 🔴")) })
	store.Update(func(r *Registry) { r.Put(5678, Parse("<@&20> <:party:555>\n<@&30> 🇫🇷")) })
	store.Update(func(r *Registry) { r.Put(1234, Parse("<@&11> 🔴")) })

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"1234"`) {
		t.Errorf("document must key selectors by decimal message ID:\n%s", data)
	}

	want := Registry{Selectors: map[discord.MessageID]Selector{
		1234: Parse("<@&11> 🔴"),
		5678: Parse("<@&20> <:party:555>\n<@&30> 🇫🇷"),
	}}

	reopened, err := persistent.Open[Registry](persistent.NewFileBackend(path), failOnWrite)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	reopened.View(func(got *Registry) {
		if diff := cmp.Diff(want, *got); diff != "" {
			t.Errorf("reopened registry mismatch (-want +got):\n%s", diff)
		}
	})

	reopened.Update(func(r *Registry) { r.Remove(1234) })
	if got := persistent.Read(reopened, func(r *Registry) []discord.MessageID { return r.MessageIDs() }); !cmp.Equal([]discord.MessageID{5678}, got) {
		t.Errorf("MessageIDs() after remove = %v, want [5678]", got)
	}
}

func TestRegistryEmptyDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reaction_roles.json")
	store, err := persistent.Open[Registry](persistent.NewFileBackend(path))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	store.Update(func(r *Registry) { r.Put(1, Parse("<@&10> 🔴")) })
	store.Update(func(r *Registry) { r.Remove(1) })

	reopened, err := persistent.Open[Registry](persistent.NewFileBackend(path))
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	reopened.View(func(got *Registry) {
		if diff := cmp.Diff(Registry{}, *got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("expected empty registry (-want +got):\n%s", diff)
		}
	})
}

func TestRegistryRejectsMalformedKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reaction_roles.json")
	if err := persistent.NewFileBackend(path).Save([]byte(`{"selectors":{"not-an-id":[]}}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := persistent.Open[Registry](persistent.NewFileBackend(path)); !errors.Is(err, persistent.ErrCorrupt) {
		t.Errorf("Open() error = %v, want ErrCorrupt", err)
	}
}
