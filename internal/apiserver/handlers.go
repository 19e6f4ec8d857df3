package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/runtime"
	"github.com/skua-dev/skua/internal/store"
	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

// resource describes one kind's CRUD wiring. The accessors return
// pointers into the concrete object so the generic handlers can default
// metadata without per-kind duplication.
type resource struct {
	kind     string
	path     string
	new      func() interface{}
	meta     func(obj interface{}) *v1alpha1.ObjectMeta
	typeMeta func(obj interface{}) *v1alpha1.TypeMeta
	// onCreate fills kind-specific initial status.
	onCreate func(obj interface{})
}

func resourceDescriptors() []resource {
	return []resource{
		{
			kind:     v1alpha1.KindAgent,
			path:     "agents",
			new:      func() interface{} { return &v1alpha1.Agent{} },
			meta:     func(o interface{}) *v1alpha1.ObjectMeta { return &o.(*v1alpha1.Agent).Metadata },
			typeMeta: func(o interface{}) *v1alpha1.TypeMeta { return &o.(*v1alpha1.Agent).TypeMeta },
		},
		{
			kind:     v1alpha1.KindTask,
			path:     "tasks",
			new:      func() interface{} { return &v1alpha1.Task{} },
			meta:     func(o interface{}) *v1alpha1.ObjectMeta { return &o.(*v1alpha1.Task).Metadata },
			typeMeta: func(o interface{}) *v1alpha1.TypeMeta { return &o.(*v1alpha1.Task).TypeMeta },
		},
		{
			kind:     v1alpha1.KindThread,
			path:     "threads",
			new:      func() interface{} { return &v1alpha1.Thread{} },
			meta:     func(o interface{}) *v1alpha1.ObjectMeta { return &o.(*v1alpha1.Thread).Metadata },
			typeMeta: func(o interface{}) *v1alpha1.TypeMeta { return &o.(*v1alpha1.Thread).TypeMeta },
			onCreate: func(o interface{}) {
				thread := o.(*v1alpha1.Thread)
				if thread.Status.Topic == "" {
					thread.Status.Topic = v1alpha1.DefaultTopic
				}
			},
		},
		{
			kind:     v1alpha1.KindDocument,
			path:     "documents",
			new:      func() interface{} { return &v1alpha1.Document{} },
			meta:     func(o interface{}) *v1alpha1.ObjectMeta { return &o.(*v1alpha1.Document).Metadata },
			typeMeta: func(o interface{}) *v1alpha1.TypeMeta { return &o.(*v1alpha1.Document).TypeMeta },
			onCreate: func(o interface{}) {
				o.(*v1alpha1.Document).Status = v1alpha1.DocumentStatus{Phase: v1alpha1.DocPending}
			},
		},
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func projectParam(r *http.Request) string {
	if p := r.URL.Query().Get("project"); p != "" {
		return p
	}
	return "default"
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// Generic resource CRUD
// ---------------------------------------------------------------------------

func (s *Server) handleCreate(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		obj := res.new()
		if err := json.NewDecoder(r.Body).Decode(obj); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		meta := res.meta(obj)
		if meta.Name == "" {
			s.writeError(w, http.StatusBadRequest, "metadata.name is required")
			return
		}
		if meta.Project == "" {
			meta.Project = projectParam(r)
		}
		s.defaultOnCreate(res, obj)

		key := store.ResourceKey(res.kind, meta.Project, meta.Name)
		if err := s.store.Create(key, obj); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				s.writeError(w, http.StatusConflict, res.kind+" already exists")
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, obj)
	}
}

func (s *Server) defaultOnCreate(res resource, obj interface{}) {
	tm := res.typeMeta(obj)
	tm.APIVersion = v1alpha1.APIVersion
	tm.Kind = res.kind

	meta := res.meta(obj)
	meta.UID = uuid.New().String()
	now := time.Now()
	meta.CreatedAt = now
	meta.UpdatedAt = now

	if res.onCreate != nil {
		res.onCreate(obj)
	}
}

func (s *Server) handleGet(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		key := store.ResourceKey(res.kind, projectParam(r), name)

		obj := res.new()
		if err := s.store.Get(key, obj); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.writeError(w, http.StatusNotFound, res.kind+" not found")
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, obj)
	}
}

func (s *Server) handleList(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefix := store.ProjectPrefix(res.kind, projectParam(r))
		items, err := s.store.List(prefix, res.new)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, items)
	}
}

func (s *Server) handleUpdate(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		project := projectParam(r)
		key := store.ResourceKey(res.kind, project, name)

		existing := res.new()
		if err := s.store.Get(key, existing); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.writeError(w, http.StatusNotFound, res.kind+" not found")
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		obj := res.new()
		if err := json.NewDecoder(r.Body).Decode(obj); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		// Identity and creation metadata are immutable.
		tm := res.typeMeta(obj)
		tm.APIVersion = v1alpha1.APIVersion
		tm.Kind = res.kind
		meta := res.meta(obj)
		prior := res.meta(existing)
		meta.Name = name
		meta.Project = project
		meta.UID = prior.UID
		meta.CreatedAt = prior.CreatedAt
		meta.UpdatedAt = time.Now()

		if err := s.store.Update(key, obj); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, obj)
	}
}

func (s *Server) handleDelete(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		key := store.ResourceKey(res.kind, projectParam(r), name)

		if err := s.store.Delete(key); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.writeError(w, http.StatusNotFound, res.kind+" not found")
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"deleted": name})
	}
}

// ---------------------------------------------------------------------------
// Apply
// ---------------------------------------------------------------------------

// handleApply accepts a JSON resource with a "kind" field and creates
// it, or updates it if it already exists.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var tm v1alpha1.TypeMeta
	if err := json.Unmarshal(raw, &tm); err != nil {
		s.writeError(w, http.StatusBadRequest, "cannot determine resource kind: "+err.Error())
		return
	}

	var res *resource
	for _, candidate := range resourceDescriptors() {
		if candidate.kind == tm.Kind {
			c := candidate
			res = &c
			break
		}
	}
	if res == nil {
		s.writeError(w, http.StatusBadRequest, "unsupported kind "+tm.Kind)
		return
	}

	obj := res.new()
	if err := json.Unmarshal(raw, obj); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	meta := res.meta(obj)
	if meta.Name == "" {
		s.writeError(w, http.StatusBadRequest, "metadata.name is required")
		return
	}
	if meta.Project == "" {
		meta.Project = projectParam(r)
	}
	key := store.ResourceKey(res.kind, meta.Project, meta.Name)

	existing := res.new()
	err := s.store.Get(key, existing)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.defaultOnCreate(*res, obj)
		if err := s.store.Create(key, obj); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, obj)

	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())

	default:
		tmPtr := res.typeMeta(obj)
		tmPtr.APIVersion = v1alpha1.APIVersion
		tmPtr.Kind = res.kind
		prior := res.meta(existing)
		meta.UID = prior.UID
		meta.CreatedAt = prior.CreatedAt
		meta.UpdatedAt = time.Now()
		// A re-applied spec restarts kind-specific lifecycles, e.g. a
		// Document goes back to Pending for reindexing.
		if res.onCreate != nil {
			res.onCreate(obj)
		}
		if err := s.store.Update(key, obj); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, obj)
	}
}

// ---------------------------------------------------------------------------
// Query (grounded document answering)
// ---------------------------------------------------------------------------

// QueryResponse is the /query reply shape.
type QueryResponse struct {
	Answer  string        `json:"answer"`
	Sources []QuerySource `json:"sources,omitempty"`
}

// QuerySource identifies one retrieved passage behind an answer.
type QuerySource struct {
	Document string  `json:"document"`
	Source   string  `json:"source,omitempty"`
	Score    float64 `json:"score"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	answer, results, err := s.engine.Answer(r.Context(), projectParam(r), query)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := QueryResponse{Answer: answer}
	for _, res := range results {
		resp.Sources = append(resp.Sources, QuerySource{
			Document: res.Document,
			Source:   res.Source,
			Score:    res.Score,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------------
// Chat turns
// ---------------------------------------------------------------------------

// PostMessageRequest is the body of POST /threads/{name}/messages.
type PostMessageRequest struct {
	Content string `json:"content"`
}

// PostMessageResponse carries the messages appended by one turn.
type PostMessageResponse struct {
	Messages []v1alpha1.ThreadMessage `json:"messages"`
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appended, err := s.engine.RunThreadTurn(r.Context(), projectParam(r), name, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, runtime.ErrLoopBound):
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, runtime.ErrGeneration):
			s.writeError(w, http.StatusBadGateway, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.writeJSON(w, http.StatusOK, PostMessageResponse{Messages: appended})
}
