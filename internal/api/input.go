package api

import (
	"encoding/json"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/erazemk/inventar/internal/model"
)

// maxFormMemory is how much of a multipart body is kept in memory; larger
// uploads spill to temporary files.
const maxFormMemory = 32 << 20

// photoField is the multipart field carrying the photo.
const photoField = "photo"

// readItemFields reads name, description, quantity and price from a JSON,
// urlencoded or multipart body. Fields the body does not carry stay invalid.
func readItemFields(r *http.Request) (model.ItemPatch, error) {
	var patch model.ItemPatch

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
			return patch, model.Invalid("body", "Invalid request body")
		}
		return patch, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return patch, model.Invalid("body", "Invalid multipart form")
		}
	default:
		if err := r.ParseForm(); err != nil {
			return patch, model.Invalid("body", "Invalid form body")
		}
	}

	if v, ok := formValue(r, "name"); ok {
		patch.Name = null.StringFrom(v)
	}
	if v, ok := formValue(r, "description"); ok {
		patch.Description = null.StringFrom(v)
	}
	if v, ok := formValue(r, "quantity"); ok && v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return patch, model.Invalid("quantity", "Quantity must be a whole number")
		}
		patch.Quantity = null.Int64From(n)
	}
	if v, ok := formValue(r, "price"); ok && v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return patch, model.Invalid("price", "Price must be a number")
		}
		patch.Price = null.Float64From(f)
	}

	return patch, nil
}

// formValue returns the first value of a body field and whether it was sent.
func formValue(r *http.Request, key string) (string, bool) {
	vs, ok := r.PostForm[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// photoFile returns the uploaded photo, or nil when the request has none.
func photoFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			if errors.Is(err, http.ErrNotMultipart) {
				return nil, nil, nil
			}
			return nil, nil, model.Invalid("body", "Invalid multipart form")
		}
	}

	file, header, err := r.FormFile(photoField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading photo upload")
	}
	return file, header, nil
}
