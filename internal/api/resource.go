package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// entityService is the operation set every entity service exposes.
type entityService[T, C, P any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, in C) (*T, error)
	Update(ctx context.Context, id string, p P) (*T, error)
	Delete(ctx context.Context, id string) (*T, error)
}

// resource adapts one entity service to the uniform collection routes.
// T is the entity, C its create input and P its patch.
type resource[T, C, P any] struct {
	entity string
	svc    entityService[T, C, P]
	idOf   func(*T) string
	srv    *Server
}

// mount registers the five collection routes for res under path.
func mount[T, C, P any](r chi.Router, s *Server, path string, res *resource[T, C, P]) {
	res.srv = s
	r.Route(path, func(r chi.Router) {
		r.Get("/", res.list)
		r.Post("/", res.create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", res.get)
			r.Patch("/", res.update)
			r.Delete("/", res.remove)
		})
	})
}

func (res *resource[T, C, P]) list(w http.ResponseWriter, r *http.Request) {
	items, err := res.svc.List(r.Context())
	if err != nil {
		res.srv.writeServiceError(w, r, res.entity, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (res *resource[T, C, P]) get(w http.ResponseWriter, r *http.Request) {
	item, err := res.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		res.srv.writeServiceError(w, r, res.entity, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (res *resource[T, C, P]) create(w http.ResponseWriter, r *http.Request) {
	var in C
	if err := decodeJSON(r, &in); err != nil {
		res.srv.writeDecodeError(w, r, res.entity, err)
		return
	}

	item, err := res.svc.Create(r.Context(), in)
	if err != nil {
		res.srv.writeServiceError(w, r, res.entity, err)
		return
	}

	res.srv.PublishEvent(res.entity, ActionCreated, res.idOf(item), item)
	writeJSON(w, http.StatusCreated, item)
}

func (res *resource[T, C, P]) update(w http.ResponseWriter, r *http.Request) {
	var p P
	if err := decodeJSON(r, &p); err != nil {
		res.srv.writeDecodeError(w, r, res.entity, err)
		return
	}

	item, err := res.svc.Update(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		res.srv.writeServiceError(w, r, res.entity, err)
		return
	}

	res.srv.PublishEvent(res.entity, ActionUpdated, res.idOf(item), item)
	writeJSON(w, http.StatusOK, item)
}

func (res *resource[T, C, P]) remove(w http.ResponseWriter, r *http.Request) {
	item, err := res.svc.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		res.srv.writeServiceError(w, r, res.entity, err)
		return
	}

	res.srv.PublishEvent(res.entity, ActionDeleted, res.idOf(item), item)
	writeJSON(w, http.StatusOK, item)
}
