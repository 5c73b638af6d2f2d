package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/xmlup/internal/convert"
	"github.com/vrsandeep/xmlup/internal/models"
	"github.com/vrsandeep/xmlup/internal/source"
	"github.com/vrsandeep/xmlup/internal/transfer"
)

const (
	// uploadField is the repeated multipart field carrying documents.
	uploadField = "files"
	maxUpload   = 256 << 20
	memoryLimit = 32 << 20
)

type batchCreated struct {
	Generation uint64   `json:"generation"`
	Items      []string `json:"items"`
}

type itemView struct {
	Name     string            `json:"name"`
	Known    bool              `json:"known"`
	Kind     string            `json:"kind,omitempty"`
	Status   models.ItemStatus `json:"status,omitempty"`
	Progress int               `json:"progress"`
	Error    string            `json:"error"`
	// Stage is "parse" or "transfer" for failed items.
	Stage   string         `json:"stage,omitempty"`
	Content *convert.Value `json:"content,omitempty"`
}

// handleCreateBatch replaces the live batch with the uploaded documents.
// Archives are unpacked; files that are neither documents nor archives are
// ignored.
func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid multipart upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("No files in field '%s'", uploadField))
		return
	}

	var items []models.RawItem
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Could not read '%s'", fh.Filename))
			return
		}
		expanded, err := source.Expand(r.Context(), fh.Filename, data)
		if err != nil {
			log.Printf("Rejecting upload '%s': %v", fh.Filename, err)
			RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Could not unpack '%s'", fh.Filename))
			return
		}
		items = append(items, expanded...)
	}
	if len(items) == 0 {
		RespondWithError(w, http.StatusBadRequest, "Upload contains no XML or HTML documents")
		return
	}

	// The batch outlives this request.
	gen := s.app.Coordinator().StartBatch(s.app.Context(), items)

	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	RespondWithJSON(w, http.StatusAccepted, batchCreated{Generation: gen, Items: names})
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.Coordinator().Snapshot())
}

// handleGetBatchItem answers for any name; unknown items report zero
// progress and no error.
func (s *Server) handleGetBatchItem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" {
		RespondWithError(w, http.StatusBadRequest, "Missing item name")
		return
	}
	coord := s.app.Coordinator()

	view := itemView{
		Name:     name,
		Progress: coord.Progress(name),
		Error:    coord.Error(name),
	}
	view.Status, view.Known = coord.Status(name)

	var parseErr *transfer.ItemParseError
	var sendErr *transfer.TransferError
	switch err := coord.Failure(name); {
	case errors.As(err, &parseErr):
		view.Stage = "parse"
	case errors.As(err, &sendErr):
		view.Stage = "transfer"
	}

	records := coord.Snapshot().Records
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Name == name {
			view.Kind = records[i].Kind
			content := records[i].Content
			view.Content = &content
			break
		}
	}
	RespondWithJSON(w, http.StatusOK, view)
}
