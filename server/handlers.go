package server

import (
	"net/http"
	"time"

	"github.com/teranos/pharmadex/datasource"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/logger"
	"github.com/teranos/pharmadex/version"
)

// HandleHealth serves the health check with version info. It reports the
// active data source but does not query it.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	_, active := s.app.DataSources.Active()

	status := "ok"
	if active == "" {
		status = "degraded"
	}
	body := map[string]any{
		"status":      status,
		"version":     info.Version,
		"commit":      info.CommitHash,
		"datasource":  active,
		"uptime_s":    int(time.Since(s.started).Seconds()),
		"subscribers": s.hub.count(),
	}
	if sys, err := readSystemStats(); err != nil {
		logger.FromContext(r.Context(), s.logger).Debugw("System stats unavailable", logger.FieldError, err)
	} else {
		body["system"] = sys
	}
	_ = writeJSON(w, http.StatusOK, body)
}

// companyBySlug resolves the {slug} path value to a company id.
func (s *Server) companyBySlug(r *http.Request, ds datasource.DataSource) (string, error) {
	slug := r.PathValue("slug")
	c, err := ds.Companies().GetBySlug(r.Context(), slug)
	if err != nil {
		return "", err
	}
	if c == nil {
		return "", errors.NotFound("company %q not found", slug)
	}
	return c.ID, nil
}

// HandleCompanyProducts lists the products owned by a company.
func (s *Server) HandleCompanyProducts(w http.ResponseWriter, r *http.Request) {
	s.withSource(func(w http.ResponseWriter, r *http.Request, ds datasource.DataSource) {
		id, err := s.companyBySlug(r, ds)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		p := &params{q: r.URL.Query()}
		opts := p.listOptions()
		if p.err != nil {
			s.fail(w, r, p.err)
			return
		}
		page, err := ds.Products().ListByCompany(r.Context(), id, opts)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		_ = writeJSON(w, http.StatusOK, listBody("products", page))
	})(w, r)
}

// HandleCompanyWebsites lists the websites owned by a company.
func (s *Server) HandleCompanyWebsites(w http.ResponseWriter, r *http.Request) {
	s.withSource(func(w http.ResponseWriter, r *http.Request, ds datasource.DataSource) {
		id, err := s.companyBySlug(r, ds)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		p := &params{q: r.URL.Query()}
		opts := p.listOptions()
		if p.err != nil {
			s.fail(w, r, p.err)
			return
		}
		page, err := ds.Websites().ListByCompany(r.Context(), id, opts)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		_ = writeJSON(w, http.StatusOK, listBody("websites", page))
	})(w, r)
}

// HandleTickers lists every company with a ticker, ordered by ticker.
func (s *Server) HandleTickers(w http.ResponseWriter, r *http.Request) {
	s.withSource(func(w http.ResponseWriter, r *http.Request, ds datasource.DataSource) {
		list, err := ds.Companies().ListWithTicker(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		_ = writeJSON(w, http.StatusOK, dataBody{Data: list})
	})(w, r)
}

// HandleTherapeuticAreaTree serves the area hierarchy with counts.
func (s *Server) HandleTherapeuticAreaTree(w http.ResponseWriter, r *http.Request) {
	s.withSource(func(w http.ResponseWriter, r *http.Request, ds datasource.DataSource) {
		tree, err := ds.TherapeuticAreas().Tree(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		_ = writeJSON(w, http.StatusOK, dataBody{Data: tree})
	})(w, r)
}

// HandleDataSources lists registered types and cached instances.
func (s *Server) HandleDataSources(w http.ResponseWriter, r *http.Request) {
	f := s.app.DataSources
	_, active := f.Active()
	_ = writeJSON(w, http.StatusOK, map[string]any{
		"types":     f.Types(),
		"instances": f.List(),
		"active":    active,
	})
}

type createDataSourceRequest struct {
	Type     string `json:"type"`
	Instance string `json:"instance"`
}

// HandleCreateDataSource creates a data source instance. Failures come back
// as {success:false, error} with status 400.
func (s *Server) HandleCreateDataSource(w http.ResponseWriter, r *http.Request) {
	var req createDataSourceRequest
	if err := readJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	writeResult(w, s.app.DataSources.CreateDataSource(req.Type, req.Instance), http.StatusCreated)
}

type setActiveRequest struct {
	ID string `json:"id"`
}

// HandleSetActiveDataSource switches the active data source.
func (s *Server) HandleSetActiveDataSource(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := readJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res := s.app.DataSources.SetActive(req.ID)
	if res.Success {
		s.emit(EventDataSourceActive, "", "")
	}
	writeResult(w, res, http.StatusOK)
}

func writeResult(w http.ResponseWriter, res datasource.Result, okStatus int) {
	if !res.Success {
		_ = writeJSON(w, http.StatusBadRequest, res)
		return
	}
	_ = writeJSON(w, okStatus, res)
}
