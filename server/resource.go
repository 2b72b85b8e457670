package server

import (
	"net/http"
	"net/url"

	"github.com/teranos/pharmadex/datasource"
	"github.com/teranos/pharmadex/errors"
)

// resource serves the CRUD and facet routes of one entity over the active
// data source.
type resource[T, F, I, X any] struct {
	// listKey names the list envelope field ("companies", ...)
	listKey string
	// what names the entity in not-found messages
	what string
	// entity names the entity in change events
	entity string
	repo   func(datasource.DataSource) datasource.Repository[T, F, I, X]
	filter func(url.Values) (F, error)
	idOf   func(*T) string
}

func (res resource[T, F, I, X]) list(s *Server) http.HandlerFunc {
	return s.withSource(func(w http.ResponseWriter, r *http.Request, ds datasource.DataSource) {
		f, err := res.filter(r.URL.Query())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		page, err := res.repo(ds).List(r.Context(), f)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		_ = writeJSON(w, http.StatusOK, listBody(res.listKey, page))
	})
}

// get looks the entity up by slug, falling back to id.
func (res resource[T, F, I, X]) get(s *Server) http.HandlerFunc {
	return s.withSource(func(w http.ResponseWriter, r *http.Request, ds datasource.DataSource) {
		slug := r.PathValue("slug")
		item, err := res.repo(ds).GetBySlug(r.Context(), slug)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if item == nil {
			s.fail(w, r, errors.NotFound("%s %q not found", res.what, slug))
			return
		}
		_ = writeJSON(w, http.StatusOK, dataBody{Data: item})
	})
}

func (res resource[T, F, I, X]) filters(s *Server) http.HandlerFunc {
	return s.withSource(func(w http.ResponseWriter, r *http.Request, ds datasource.DataSource) {
		facets, err := res.repo(ds).Filters(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		_ = writeJSON(w, http.StatusOK, dataBody{Data: facets})
	})
}

func (res resource[T, F, I, X]) create(s *Server) http.HandlerFunc {
	return s.withSource(func(w http.ResponseWriter, r *http.Request, ds datasource.DataSource) {
		var in I
		if err := readJSON(r, &in); err != nil {
			s.fail(w, r, err)
			return
		}
		item, err := res.repo(ds).Create(r.Context(), in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.emit(EventCreated, res.entity, res.idOf(item))
		_ = writeJSON(w, http.StatusCreated, dataBody{Data: item})
	})
}

func (res resource[T, F, I, X]) update(s *Server) http.HandlerFunc {
	return s.withSource(func(w http.ResponseWriter, r *http.Request, ds datasource.DataSource) {
		var in I
		if err := readJSON(r, &in); err != nil {
			s.fail(w, r, err)
			return
		}
		item, err := res.repo(ds).Update(r.Context(), r.PathValue("id"), in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.emit(EventUpdated, res.entity, res.idOf(item))
		_ = writeJSON(w, http.StatusOK, dataBody{Data: item})
	})
}

func (res resource[T, F, I, X]) remove(s *Server) http.HandlerFunc {
	return s.withSource(func(w http.ResponseWriter, r *http.Request, ds datasource.DataSource) {
		id := r.PathValue("id")
		ok, err := res.repo(ds).Delete(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if !ok {
			s.fail(w, r, errors.NotFound("%s %q not found", res.what, id))
			return
		}
		s.emit(EventDeleted, res.entity, id)
		w.WriteHeader(http.StatusNoContent)
	})
}

// mount registers the resource under /api/{base}.
func (res resource[T, F, I, X]) mount(s *Server, mux *http.ServeMux, base string) {
	prefix := "/api/" + base
	mux.HandleFunc("GET "+prefix, res.list(s))
	mux.HandleFunc("GET "+prefix+"/filters", res.filters(s))
	mux.HandleFunc("GET "+prefix+"/{slug}", res.get(s))
	mux.HandleFunc("POST "+prefix, res.create(s))
	mux.HandleFunc("PATCH "+prefix+"/{id}", res.update(s))
	mux.HandleFunc("DELETE "+prefix+"/{id}", res.remove(s))
}
