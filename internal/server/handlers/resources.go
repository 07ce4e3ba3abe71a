package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/notex/internal/models"
)

// MutationLog определяет операции записи над ресурсами
type MutationLog interface {
	CreateNotebook(ctx context.Context, p *models.NewNotebook) (*models.Notebook, error)
	UpdateNotebook(ctx context.Context, id int64, p *models.NotebookUpdate) (*models.Notebook, error)
	DeleteNotebook(ctx context.Context, id int64) (*models.Deletion, error)

	CreateNote(ctx context.Context, p *models.NewNote) (*models.Note, error)
	UpdateNote(ctx context.Context, id int64, p *models.NoteUpdate) (*models.Note, error)
	DeleteNote(ctx context.Context, id int64) (*models.Deletion, error)

	CreateContentBlock(ctx context.Context, p *models.NewContentBlock) (*models.ContentBlock, error)
	UpdateContentBlock(ctx context.Context, id int64, p *models.ContentBlockUpdate) (*models.ContentBlock, error)
	DeleteContentBlock(ctx context.Context, id int64) (*models.Deletion, error)
}

// ResourceReader определяет чтение текущего состояния и tombstone записей
type ResourceReader interface {
	GetNotebook(ctx context.Context, id int64) (*models.Notebook, error)
	GetNote(ctx context.Context, id int64) (*models.Note, error)
	GetContentBlock(ctx context.Context, id int64) (*models.ContentBlock, error)
	GetDeletion(ctx context.Context, kind models.Kind, resourceID int64) (*models.Deletion, error)
}

// ResourceHandler handles CRUD requests for notebooks, notes and content blocks
type ResourceHandler struct {
	logger *slog.Logger
	log    MutationLog
	reader ResourceReader
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(logger *slog.Logger, log MutationLog, reader ResourceReader) *ResourceHandler {
	return &ResourceHandler{
		logger: logger,
		log:    log,
		reader: reader,
	}
}

// Register adds the resource routes to mux
func (h *ResourceHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/notebooks", create(h, "create notebook", h.log.CreateNotebook))
	mux.HandleFunc("GET /api/v1/notebooks/{id}", get(h, "get notebook", h.reader.GetNotebook))
	mux.HandleFunc("PUT /api/v1/notebooks/{id}", update(h, "update notebook", h.log.UpdateNotebook))
	mux.HandleFunc("DELETE /api/v1/notebooks/{id}", remove(h, "delete notebook", h.log.DeleteNotebook))

	mux.HandleFunc("POST /api/v1/notes", create(h, "create note", h.log.CreateNote))
	mux.HandleFunc("GET /api/v1/notes/{id}", get(h, "get note", h.reader.GetNote))
	mux.HandleFunc("PUT /api/v1/notes/{id}", update(h, "update note", h.log.UpdateNote))
	mux.HandleFunc("DELETE /api/v1/notes/{id}", remove(h, "delete note", h.log.DeleteNote))

	mux.HandleFunc("POST /api/v1/content-blocks", create(h, "create content block", h.log.CreateContentBlock))
	mux.HandleFunc("GET /api/v1/content-blocks/{id}", get(h, "get content block", h.reader.GetContentBlock))
	mux.HandleFunc("PUT /api/v1/content-blocks/{id}", update(h, "update content block", h.log.UpdateContentBlock))
	mux.HandleFunc("DELETE /api/v1/content-blocks/{id}", remove(h, "delete content block", h.log.DeleteContentBlock))

	mux.HandleFunc("GET /api/v1/deletions/{kind}/{id}", h.GetDeletion)
}

// GetDeletion обрабатывает GET /api/v1/deletions/{kind}/{id}
func (h *ResourceHandler) GetDeletion(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(r.PathValue("kind"))
	if err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	id, ok := pathID(r)
	if !ok {
		sendError(h.logger, w, "invalid resource id", http.StatusBadRequest)
		return
	}

	del, err := h.reader.GetDeletion(r.Context(), kind, id)
	if err != nil {
		sendServiceError(h.logger, w, r, "get deletion", err)
		return
	}

	sendJSON(h.logger, w, del, http.StatusOK)
}

// create обрабатывает POST коллекции: тело запроса → New* payload → 201
func create[P, R any](h *ResourceHandler, op string, fn func(context.Context, *P) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload P
		if err := decodeBody(w, r, &payload); err != nil {
			h.logger.WarnContext(r.Context(), "failed to decode request", slog.String("op", op), slog.Any("error", err))
			sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
			return
		}

		res, err := fn(r.Context(), &payload)
		if err != nil {
			sendServiceError(h.logger, w, r, op, err)
			return
		}

		sendJSON(h.logger, w, res, http.StatusCreated)
	}
}

// get обрабатывает GET ресурса по id
func get[R any](h *ResourceHandler, op string, fn func(context.Context, int64) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			sendError(h.logger, w, "invalid resource id", http.StatusBadRequest)
			return
		}

		res, err := fn(r.Context(), id)
		if err != nil {
			sendServiceError(h.logger, w, r, op, err)
			return
		}

		sendJSON(h.logger, w, res, http.StatusOK)
	}
}

// update обрабатывает PUT ресурса: частичное обновление
func update[P, R any](h *ResourceHandler, op string, fn func(context.Context, int64, *P) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			sendError(h.logger, w, "invalid resource id", http.StatusBadRequest)
			return
		}

		var payload P
		if err := decodeBody(w, r, &payload); err != nil {
			h.logger.WarnContext(r.Context(), "failed to decode request", slog.String("op", op), slog.Any("error", err))
			sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
			return
		}

		res, err := fn(r.Context(), id, &payload)
		if err != nil {
			sendServiceError(h.logger, w, r, op, err)
			return
		}

		sendJSON(h.logger, w, res, http.StatusOK)
	}
}

// remove обрабатывает DELETE ресурса и возвращает tombstone
func remove(h *ResourceHandler, op string, fn func(context.Context, int64) (*models.Deletion, error)) http.HandlerFunc {
	return get(h, op, fn)
}
