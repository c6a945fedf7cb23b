// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ScheduleRequest is the body of PUT /admin/tasks/{name}/schedule.
type ScheduleRequest struct {
	Schedule string `json:"schedule"`
}

// SyncAuthors handles POST /api/v1/admin/authors/sync.
func (h *Handler) SyncAuthors(w http.ResponseWriter, r *http.Request) {
	res, err := h.authors.SyncFromDirectory(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, res, nil)
}

// ResetContent handles POST /api/v1/admin/reset.
func (h *Handler) ResetContent(w http.ResponseWriter, r *http.Request) {
	res, err := h.admin.DeleteEverything(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, res, nil)
}

// ListEvents handles GET /api/v1/admin/events?level=&limit=&offset=.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}

	events, err := h.admin.ListEvents(r.Context(), r.URL.Query().Get("level"), limit, offset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, events, &Meta{Limit: limit, Offset: offset})
}

// ListTasks handles GET /api/v1/admin/tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, h.scheduler.List(), nil)
}

// RunTask handles POST /api/v1/admin/tasks/{name}/run.
func (h *Handler) RunTask(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.TriggerNow(chi.URLParam(r, "name")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateTaskSchedule handles PUT /api/v1/admin/tasks/{name}/schedule.
func (h *Handler) UpdateTaskSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.scheduler.UpdateSchedule(chi.URLParam(r, "name"), req.Schedule); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, h.scheduler.List(), nil)
}

// ResetTaskSchedule handles DELETE /api/v1/admin/tasks/{name}/schedule.
func (h *Handler) ResetTaskSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.ResetSchedule(chi.URLParam(r, "name")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, h.scheduler.List(), nil)
}
