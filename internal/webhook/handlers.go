package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// TeamsMessage is the body of POST /teams/webhook.
type TeamsMessage struct {
	Text  string `json:"text"`
	Token string `json:"token,omitempty"`
}

// CreateTaskRequest is the body of POST /taiga/create-task.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MockTeamRequest is the body of POST /teams/mock.
type MockTeamRequest struct {
	TeamName    string `json:"team_name"`
	Description string `json:"description"`
	TaigaTaskID *int64 `json:"taiga_task_id"`
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleTeamsWebhook(w http.ResponseWriter, r *http.Request) {
	var msg TeamsMessage
	if !s.decode(w, r, &msg) {
		return
	}
	if !s.authorized(msg.Token) {
		s.logger.Warn("rejected webhook with bad token", zap.String("remote", r.RemoteAddr))
		writeJSON(w, http.StatusForbidden, errorResponse{Message: "Invalid token"})
		return
	}
	s.writeOutcome(w, s.classifier.Classify(r.Context(), msg.Text))
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.logger.Info("received task creation request", zap.String("title", req.Title))
	s.writeOutcome(w, s.classifier.FileStory(r.Context(), req.Title, req.Description))
}

func (s *Server) handleCreateMockTeam(w http.ResponseWriter, r *http.Request) {
	var req MockTeamRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.TeamName == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "team_name is required"})
		return
	}
	team := s.teams.Create(req.TeamName, req.Description, req.TaigaTaskID)
	fields := []zap.Field{zap.String("team", team.Name), zap.String("team_id", team.ID)}
	if team.TaigaTaskID != nil {
		fields = append(fields, zap.Int64("task", *team.TaigaTaskID))
	}
	s.logger.Info("mock team created", fields...)
	writeJSON(w, http.StatusCreated, team)
}

func (s *Server) handleGetMockTeam(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(r.PathValue("taskID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "task id must be an integer"})
		return
	}
	team, ok := s.teams.FindByTaskID(taskID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: fmt.Sprintf("No team linked to task %d", taskID)})
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into dst, replying 400/413 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Message: "request body too large"})
			return false
		}
		s.logger.Debug("bad request body", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid JSON body"})
		return false
	}
	return true
}

const msgUnknownOutcome = "Internal error processing task"

// writeOutcome renders out. Internal errors become a generic 500; the
// detail has already been logged by the pipeline. An unknown kind is
// treated as an internal error.
func (s *Server) writeOutcome(w http.ResponseWriter, out types.ClassificationOutcome) {
	if !out.Kind.IsValid() {
		s.logger.Error("classifier returned unknown outcome kind",
			zap.String("kind", string(out.Kind)),
			zap.String("request_id", out.RequestID))
		out.Kind = types.OutcomeInternalError
		out.Message = msgUnknownOutcome
	}
	if out.Kind == types.OutcomeInternalError {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Message:   out.Message,
			RequestID: out.RequestID,
		})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
