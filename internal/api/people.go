package api

import (
	"net/http"

	"catalog-service/internal/domain"
)

func (h *HTTPHandler) CreateActor(w http.ResponseWriter, r *http.Request) {
	var req domain.PersonRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	actor, err := h.people.CreateActor(r.Context(), req.Name)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, toActorResponse(actor))
}

func (h *HTTPHandler) GetActors(w http.ResponseWriter, r *http.Request) {
	actors, err := h.people.ListActors(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	out := make([]personResponse, 0, len(actors))
	for _, a := range actors {
		out = append(out, toActorResponse(a))
	}
	h.respondJSON(w, r, http.StatusOK, out)
}

func (h *HTTPHandler) GetActorByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "actorId")
	if !ok {
		return
	}
	actor, err := h.people.GetActor(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toActorResponse(actor))
}

func (h *HTTPHandler) RenameActor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "actorId")
	if !ok {
		return
	}
	var req domain.PersonRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	actor, err := h.people.RenameActor(r.Context(), id, req.Name)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toActorResponse(actor))
}

// DeleteActor удаляет актера и убирает его из всех фильмов.
func (h *HTTPHandler) DeleteActor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "actorId")
	if !ok {
		return
	}
	if err := h.people.DeleteActor(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) CreateDirector(w http.ResponseWriter, r *http.Request) {
	var req domain.PersonRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	director, err := h.people.CreateDirector(r.Context(), req.Name)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, toDirectorResponse(director))
}

func (h *HTTPHandler) GetDirectors(w http.ResponseWriter, r *http.Request) {
	directors, err := h.people.ListDirectors(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	out := make([]personResponse, 0, len(directors))
	for _, d := range directors {
		out = append(out, toDirectorResponse(d))
	}
	h.respondJSON(w, r, http.StatusOK, out)
}

func (h *HTTPHandler) GetDirectorByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "directorId")
	if !ok {
		return
	}
	director, err := h.people.GetDirector(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toDirectorResponse(director))
}

func (h *HTTPHandler) RenameDirector(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "directorId")
	if !ok {
		return
	}
	var req domain.PersonRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	director, err := h.people.RenameDirector(r.Context(), id, req.Name)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toDirectorResponse(director))
}

// DeleteDirector отвечает 409, пока у режиссера есть фильмы.
func (h *HTTPHandler) DeleteDirector(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "directorId")
	if !ok {
		return
	}
	if err := h.people.DeleteDirector(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
