package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"renewals/internal/export"
	"renewals/internal/log"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// handleExport renders the (optionally filtered) collection as a download.
// The document is built in memory so a failure can still be reported as an
// error status.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}

	groups := s.filtered(criteriaFrom(r))
	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "csv":
		err = export.WriteCSV(&buf, groups, s.loc)
		contentType = contentTypeCSV
	case "xlsx":
		err = export.WriteXLSX(&buf, groups, s.loc)
		contentType = contentTypeXLSX
	default:
		writeError(w, r, http.StatusBadRequest, "format must be csv or xlsx", nil)
		return
	}
	if errors.Is(err, export.ErrNoData) {
		writeError(w, r, http.StatusNotFound, "no records to export", nil)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "export failed", err)
		return
	}

	name := export.Filename(s.now().In(s.loc), format)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Export generated",
		log.FieldOperation, log.OpExport,
		"format", format,
		"bytes", buf.Len())

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
