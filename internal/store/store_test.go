package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

// newTestTask creates a Task resource for testing.
func newTestTask(name, project, title string) *v1alpha1.Task {
	return &v1alpha1.Task{
		TypeMeta: v1alpha1.TypeMeta{
			APIVersion: v1alpha1.APIVersion,
			Kind:       v1alpha1.KindTask,
		},
		Metadata: v1alpha1.ObjectMeta{
			Name:    name,
			Project: project,
		},
		Spec: v1alpha1.TaskSpec{
			Title:    title,
			Priority: "medium",
		},
	}
}

// stores returns one of each Store implementation, closed via t.Cleanup.
func stores(t *testing.T) map[string]Store {
	t.Helper()

	boltStore, err := NewBoltStore(filepath.Join(t.TempDir(), "skua.db"))
	if err != nil {
		t.Fatalf("opening bolt store: %v", err)
	}

	all := map[string]Store{
		"memory": NewMemoryStore(),
		"bolt":   boltStore,
	}
	t.Cleanup(func() {
		for _, s := range all {
			s.Close()
		}
	})
	return all
}

func TestCreateAndGet(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			task := newTestTask("groceries", "default", "Buy groceries")
			key := ResourceKey(v1alpha1.KindTask, "default", "groceries")

			if err := s.Create(key, task); err != nil {
				t.Fatalf("unexpected error on Create: %v", err)
			}

			var got v1alpha1.Task
			if err := s.Get(key, &got); err != nil {
				t.Fatalf("unexpected error on Get: %v", err)
			}
			if got.Spec.Title != "Buy groceries" {
				t.Errorf("expected title %q, got %q", "Buy groceries", got.Spec.Title)
			}
			if got.Spec.Priority != "medium" {
				t.Errorf("expected priority medium, got %s", got.Spec.Priority)
			}
		})
	}
}

func TestCreateDuplicate(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			task := newTestTask("dup", "default", "Duplicate me")
			key := ResourceKey(v1alpha1.KindTask, "default", "dup")

			if err := s.Create(key, task); err != nil {
				t.Fatalf("unexpected error on first Create: %v", err)
			}
			if err := s.Create(key, task); !errors.Is(err, ErrAlreadyExists) {
				t.Fatalf("expected ErrAlreadyExists, got %v", err)
			}
		})
	}
}

func TestGetNotFound(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var got v1alpha1.Task
			err := s.Get(ResourceKey(v1alpha1.KindTask, "default", "nope"), &got)
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			task := newTestTask("upd", "default", "Before")
			key := ResourceKey(v1alpha1.KindTask, "default", "upd")

			if err := s.Create(key, task); err != nil {
				t.Fatalf("unexpected error on Create: %v", err)
			}

			task.Spec.Title = "After"
			task.Status.Completed = true
			if err := s.Update(key, task); err != nil {
				t.Fatalf("unexpected error on Update: %v", err)
			}

			var got v1alpha1.Task
			if err := s.Get(key, &got); err != nil {
				t.Fatalf("unexpected error on Get: %v", err)
			}
			if got.Spec.Title != "After" {
				t.Errorf("expected updated title, got %q", got.Spec.Title)
			}
			if !got.Status.Completed {
				t.Error("expected completed status to persist")
			}
		})
	}
}

func TestUpdateNotFound(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Update(ResourceKey(v1alpha1.KindTask, "default", "ghost"), newTestTask("ghost", "default", "x"))
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			key := ResourceKey(v1alpha1.KindTask, "default", "gone")
			if err := s.Create(key, newTestTask("gone", "default", "Delete me")); err != nil {
				t.Fatalf("unexpected error on Create: %v", err)
			}
			if err := s.Delete(key); err != nil {
				t.Fatalf("unexpected error on Delete: %v", err)
			}

			var got v1alpha1.Task
			if err := s.Get(key, &got); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if err := s.Delete(key); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound on second delete, got %v", err)
			}
		})
	}
}

func TestListByPrefix(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, spec := range []struct{ name, project string }{
				{"a", "alpha"}, {"b", "alpha"}, {"c", "beta"},
			} {
				key := ResourceKey(v1alpha1.KindTask, spec.project, spec.name)
				if err := s.Create(key, newTestTask(spec.name, spec.project, "t")); err != nil {
					t.Fatalf("unexpected error on Create: %v", err)
				}
			}
			// A thread in alpha must not show up in a Task listing.
			threadKey := ResourceKey(v1alpha1.KindThread, "alpha", "chat-1")
			if err := s.Create(threadKey, &v1alpha1.Thread{}); err != nil {
				t.Fatalf("unexpected error on Create thread: %v", err)
			}

			factory := func() interface{} { return &v1alpha1.Task{} }

			all, err := s.List(KindPrefix(v1alpha1.KindTask), factory)
			if err != nil {
				t.Fatalf("unexpected error on List: %v", err)
			}
			if len(all) != 3 {
				t.Errorf("expected 3 tasks across projects, got %d", len(all))
			}

			alpha, err := s.List(ProjectPrefix(v1alpha1.KindTask, "alpha"), factory)
			if err != nil {
				t.Fatalf("unexpected error on List: %v", err)
			}
			if len(alpha) != 2 {
				t.Errorf("expected 2 tasks in alpha, got %d", len(alpha))
			}
		})
	}
}

func TestWatch(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ch, cancel := s.Watch(KindPrefix(v1alpha1.KindTask))
			defer cancel()

			key := ResourceKey(v1alpha1.KindTask, "default", "watched")
			if err := s.Create(key, newTestTask("watched", "default", "Watch me")); err != nil {
				t.Fatalf("unexpected error on Create: %v", err)
			}

			select {
			case evt := <-ch:
				if evt.Type != v1alpha1.EventAdded {
					t.Errorf("expected ADDED event, got %s", evt.Type)
				}
				if evt.Kind != v1alpha1.KindTask {
					t.Errorf("expected kind Task, got %s", evt.Kind)
				}
				if evt.Key != key {
					t.Errorf("expected key %s, got %s", key, evt.Key)
				}
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for watch event")
			}
		})
	}
}

func TestWatchPrefixFilter(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ch, cancel := s.Watch(KindPrefix(v1alpha1.KindThread))
			defer cancel()

			taskKey := ResourceKey(v1alpha1.KindTask, "default", "noise")
			if err := s.Create(taskKey, newTestTask("noise", "default", "x")); err != nil {
				t.Fatalf("unexpected error on Create: %v", err)
			}

			select {
			case evt := <-ch:
				t.Fatalf("unexpected event for non-matching prefix: %+v", evt)
			case <-time.After(50 * time.Millisecond):
			}
		})
	}
}

func TestWatchCancel(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ch, cancel := s.Watch(KindPrefix(v1alpha1.KindTask))
			cancel()

			if _, open := <-ch; open {
				t.Error("expected channel to be closed after cancel")
			}
		})
	}
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skua.db")

	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("opening bolt store: %v", err)
	}
	key := ResourceKey(v1alpha1.KindTask, "default", "durable")
	if err := s.Create(key, newTestTask("durable", "default", "Survive restart")); err != nil {
		t.Fatalf("unexpected error on Create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error on Close: %v", err)
	}

	reopened, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopening bolt store: %v", err)
	}
	defer reopened.Close()

	var got v1alpha1.Task
	if err := reopened.Get(key, &got); err != nil {
		t.Fatalf("unexpected error on Get after reopen: %v", err)
	}
	if got.Spec.Title != "Survive restart" {
		t.Errorf("expected persisted title, got %q", got.Spec.Title)
	}
}
