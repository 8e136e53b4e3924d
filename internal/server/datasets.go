package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwbudde/curvefit/internal/session"
	"github.com/cwbudde/curvefit/internal/store"
)

var errNoStore = errors.New("dataset store is not configured")

// handleSaveDataset handles POST /api/v1/sessions/{id}/save?name=
func (s *Server) handleSaveDataset(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errNoStore)
		return
	}
	name := r.URL.Query().Get("name")
	if err := store.ValidateName(name); err != nil {
		writeError(w, err)
		return
	}

	var (
		d     *store.Dataset
		entry store.HistoryEntry
	)
	err := s.sessions.Inspect(r.PathValue("id"), func(sess *session.Session) error {
		d = store.NewDataset(name, sess.Points(), sess.Config())
		report, fitErr := sess.Report()
		entry = store.NewHistoryEntry(d, report, fitErr)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.Save(d); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.AppendHistory(name, entry); err != nil {
		slog.Warn("Failed to record dataset history", "name", name, "error", err)
	}

	slog.Info("Dataset saved", "name", name, "session_id", r.PathValue("id"), "points", len(d.Points))
	writeJSON(w, http.StatusCreated, d.ToInfo())
}

// handleLoadDataset handles POST /api/v1/datasets/{name}/load?session=
// Without a session ID a new session is created for the dataset.
func (s *Server) handleLoadDataset(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errNoStore)
		return
	}
	d, err := s.store.Load(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	id := r.URL.Query().Get("session")
	if id == "" {
		view, err := s.sessions.Create(&d.Config)
		if err != nil {
			writeError(w, err)
			return
		}
		id, status = view.ID, http.StatusCreated
	}

	view, err := s.sessions.Do(id, func(sess *session.Session) error {
		if err := sess.SetMethod(d.Config); err != nil {
			return err
		}
		return sess.Apply(session.Replace{Points: d.Points})
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, view)
}

// handleListDatasets handles GET /api/v1/datasets
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errNoStore)
		return
	}
	infos, err := s.store.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleDeleteDataset handles DELETE /api/v1/datasets/{name}
func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errNoStore)
		return
	}
	if err := s.store.Delete(r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDatasetHistory handles GET /api/v1/datasets/{name}/history
func (s *Server) handleDatasetHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errNoStore)
		return
	}
	entries, err := s.store.History(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
