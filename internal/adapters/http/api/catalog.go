package api

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/okian/cremling/internal/domain/catalog"
)

// Query parameters for catalog listings.
const (
	paramSearch  = "search"
	paramSort    = "sort"
	filterPrefix = "filter."
	paramName    = "name"

	defaultUploadName = "upload.csv"
)

// parseCatalogQuery reads search, sort and filter.<Column>=v1,v2 parameters.
func parseCatalogQuery(r *http.Request) (catalog.Query, error) {
	values := r.URL.Query()
	sortBy, err := catalog.ParseSortOption(values.Get(paramSort))
	if err != nil {
		return catalog.Query{}, Wrap("api.catalog_query", err)
	}
	q := catalog.Query{Search: values.Get(paramSearch), Sort: sortBy}
	for key, raw := range values {
		col, ok := strings.CutPrefix(key, filterPrefix)
		if !ok {
			continue
		}
		if q.Filters == nil {
			q.Filters = make(map[string][]string)
		}
		var want []string
		for _, v := range raw {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					want = append(want, part)
				}
			}
		}
		q.Filters[col] = want
	}
	return q, nil
}

func writeCatalogQuery(w http.ResponseWriter, r *http.Request, c *catalog.Catalog) {
	q, err := parseCatalogQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	entries, err := c.Query(q)
	if err != nil {
		writeDomainError(w, Wrap("api.catalog_query", err))
		return
	}
	writeJSON(w, http.StatusOK, newCatalogView(c, entries))
}

func writeCSVHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
}

// handleQueryDefaultCatalog handles GET /catalog.
func (s *Server) handleQueryDefaultCatalog(w http.ResponseWriter, r *http.Request) {
	writeCatalogQuery(w, r, s.deps.Catalog())
}

// handleDefaultFacets handles GET /catalog/facets.
func (s *Server) handleDefaultFacets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Catalog().Facets())
}

// handleDownloadDefault handles GET /catalog/default.csv.
func (s *Server) handleDownloadDefault(w http.ResponseWriter, _ *http.Request) {
	writeCSVHeaders(w, catalog.DefaultName)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(catalog.DefaultCSV())
}

// handleQuerySessionCatalog handles GET /sessions/{sessionID}/catalog.
func (s *Server) handleQuerySessionCatalog(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeDomainError(w, Wrap("api.session_catalog", err))
		return
	}
	writeCatalogQuery(w, r, st.Catalog)
}

// handleSessionFacets handles GET /sessions/{sessionID}/catalog/facets.
func (s *Server) handleSessionFacets(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeDomainError(w, Wrap("api.session_facets", err))
		return
	}
	writeJSON(w, http.StatusOK, st.Catalog.Facets())
}

// handleDownloadSessionCatalog handles GET /sessions/{sessionID}/catalog.csv.
func (s *Server) handleDownloadSessionCatalog(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeDomainError(w, Wrap("api.session_download", err))
		return
	}
	var buf bytes.Buffer
	if err := st.Catalog.WriteCSV(&buf); err != nil {
		writeDomainError(w, Wrap("api.session_download", err))
		return
	}
	writeCSVHeaders(w, st.Catalog.Name())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleUploadCatalog handles PUT /sessions/{sessionID}/catalog?name=file.csv
// with the CSV as the request body.
func (s *Server) handleUploadCatalog(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload_catalog"
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDomainError(w, WrapKind(op, ErrTooLarge, err))
			return
		}
		writeDomainError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	name := path.Base(strings.TrimSpace(r.URL.Query().Get(paramName)))
	if name == "." || name == "/" {
		name = defaultUploadName
	}
	st, err := s.deps.UploadCatalog(r.Context(), chi.URLParam(r, "sessionID"), name, bytes.NewReader(body))
	s.writeSession(w, http.StatusOK, op, st, err)
}
