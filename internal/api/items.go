package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/erazemk/inventar/internal/files"
	"github.com/erazemk/inventar/internal/imaging"
	"github.com/erazemk/inventar/internal/model"
)

// ItemStore is the inventory repository as seen by the handlers.
type ItemStore interface {
	Create(ctx context.Context, item model.Item) (*model.Item, error)
	Get(ctx context.Context, id int64) (*model.Item, error)
	List(ctx context.Context) ([]model.Item, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error)
	SetPhoto(ctx context.Context, id int64, photo string) (*model.Item, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) (string, error)
}

// PhotoStore keeps photo files on disk.
type PhotoStore interface {
	Save(r io.Reader, originalName string) (string, error)
	Delete(publicPath string) error
	Dir() string
}

// ItemsHandler handles the inventory endpoints.
type ItemsHandler struct {
	Items  ItemStore
	Photos PhotoStore
	// Processor re-encodes uploads before they are stored; nil stores them as sent.
	Processor *imaging.Processor
}

// Register handles POST /register.
func (h *ItemsHandler) Register(w http.ResponseWriter, r *http.Request) {
	fields, err := readItemFields(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	item := model.Item{
		Name:        fields.Name.String,
		Description: fields.Description,
		Quantity:    fields.Quantity.Int64,
		Price:       fields.Price.Float64,
	}
	if err := item.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	file, header, err := photoFile(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if file != nil {
		defer file.Close()
		photo, err := h.savePhoto(file, header)
		if err != nil {
			respondError(w, r, err)
			return
		}
		item.Photo.SetValid(photo)
	}

	created, err := h.Items.Create(r.Context(), item)
	if err != nil {
		h.discardPhoto(r, item.Photo.String)
		respondError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusCreated, created)
}

// List handles GET /inventory.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Items.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /inventory/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.Items.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /inventory/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	patch, err := readItemFields(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	item, err := h.Items.Update(r.Context(), id, patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /inventory/{id}. The photo file goes first, then the row.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.Items.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.removePhoto(r, item.Photo.String); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.Items.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

// ReplacePhoto handles POST /inventory/{id}/photo.
func (h *ItemsHandler) ReplacePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	file, header, err := photoFile(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if file == nil {
		jsonError(w, http.StatusBadRequest, "No file")
		return
	}
	defer file.Close()

	photo, err := h.savePhoto(file, header)
	if err != nil {
		respondError(w, r, err)
		return
	}

	existing, err := h.Items.Get(r.Context(), id)
	if err != nil {
		h.discardPhoto(r, photo)
		respondError(w, r, err)
		return
	}

	if err := h.removePhoto(r, existing.Photo.String); err != nil {
		h.discardPhoto(r, photo)
		respondError(w, r, err)
		return
	}

	item, err := h.Items.SetPhoto(r.Context(), id, photo)
	if err != nil {
		h.discardPhoto(r, photo)
		respondError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// savePhoto stores an uploaded photo, re-encoding it first when a
// Processor is configured.
func (h *ItemsHandler) savePhoto(file multipart.File, header *multipart.FileHeader) (string, error) {
	if h.Processor == nil {
		return h.Photos.Save(file, header.Filename)
	}

	data, err := h.Processor.Process(file)
	if err != nil {
		return "", err
	}
	return h.Photos.Save(bytes.NewReader(data), imaging.JPEGName(header.Filename))
}

// removePhoto deletes the file an item points at. Paths outside the uploads
// directory are left alone.
func (h *ItemsHandler) removePhoto(r *http.Request, photo string) error {
	err := h.Photos.Delete(photo)
	if errors.Is(err, files.ErrInvalidPath) {
		requestLogger(r).WithError(err).Warn("item photo is not a stored upload, keeping it")
		return nil
	}
	return err
}

// discardPhoto removes a file written earlier in a request that then failed.
func (h *ItemsHandler) discardPhoto(r *http.Request, photo string) {
	if err := h.Photos.Delete(photo); err != nil {
		requestLogger(r).WithError(err).WithField("photo", photo).Error("failed to remove orphaned upload")
	}
}

// itemID parses the {id} path parameter. Anything that is not an id cannot
// name a stored item, so it is answered with 404.
func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		jsonError(w, http.StatusNotFound, "Not found")
		return 0, false
	}
	return id, true
}
