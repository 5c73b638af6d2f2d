// Package collector is a reference receiver for uploads. It checks that each
// upload is a document of a known kind and answers with a summary; nothing
// is stored.
package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vrsandeep/xmlup/internal/classify"
	"github.com/vrsandeep/xmlup/internal/convert"
	"github.com/vrsandeep/xmlup/internal/markup"
)

const (
	// FileField is the multipart field holding the document.
	FileField = "file"
	maxUpload = 64 << 20
)

// Summary is the collector's answer to an accepted upload.
type Summary struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Root string `json:"root"`
	// Fields counts the direct fields below the root.
	Fields int `json:"fields"`
}

// Collector accepts documents whose kind its classifier recognises.
type Collector struct {
	classifier *classify.Classifier
	kinds      []string
}

func New(rules map[string]string) (*Collector, error) {
	c, err := classify.New(rules)
	if err != nil {
		return nil, err
	}
	kinds := make([]string, 0, len(rules))
	for k := range rules {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return &Collector{classifier: c, kinds: kinds}, nil
}

// Routes mounts POST / on a fresh router, to be mounted under /upload.
func (c *Collector) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.AllowContentType("multipart/form-data"))
	r.Post("/", c.HandleUpload)
	return r
}

// HandleUpload reads one document from FileField.
func (c *Collector) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	file, header, err := r.FormFile(FileField)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("missing form file '%s'", FileField))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	doc, err := markup.ParseFile(header.Filename, data)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "error parsing document: "+err.Error())
		return
	}
	root := doc.Root()
	if root == nil {
		respondError(w, http.StatusUnprocessableEntity, "document has no root element")
		return
	}

	kind := c.classifier.Classify(doc)
	if kind == "" {
		log.Printf("Collector rejected '%s': unknown root %s", header.Filename, root.Name)
		respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf(
			"unknown document format: %s; expected one of %s", root.Name, strings.Join(c.kinds, ", ")))
		return
	}

	summary := Summary{Name: header.Filename, Kind: kind, Root: root.Name}
	if v, ok := convert.Convert(doc); ok {
		if inner, ok := v.Get(root.Name); ok {
			summary.Fields = len(inner.Fields())
		}
	}
	log.Printf("Collector accepted '%s' (%s)", header.Filename, kind)
	respondJSON(w, http.StatusOK, summary)
}

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}
