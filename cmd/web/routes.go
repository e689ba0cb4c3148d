package main

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
	"github.com/AdamBeresnev/quiz-bracket/internal/bracket"
	"github.com/AdamBeresnev/quiz-bracket/internal/httputil"
	"github.com/AdamBeresnev/quiz-bracket/internal/quiz"
	"github.com/AdamBeresnev/quiz-bracket/internal/service"
	"github.com/AdamBeresnev/quiz-bracket/internal/utils"
	"github.com/AdamBeresnev/quiz-bracket/views"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxUploadSize = 10 << 20

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(app.sessionManager.LoadAndSave)

	// Serve static files
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	if app.cfg.Metrics {
		r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	}

	r.Get("/", app.dashboard)

	r.Route("/api", func(r chi.Router) {
		r.Route("/tournament", func(r chi.Router) {
			r.Get("/", app.getTournament)
			r.Post("/", app.startTournament)
			r.Delete("/", app.resetTournament)
			r.Post("/questions/{id}/activate", app.activateQuestion)
			r.Post("/answer", app.scoreAnswer)
			r.Post("/matches/{round}/{match}/winner", app.declareWinner)
			r.Post("/advance", app.advance)
			r.Post("/finalize", app.finalize)
		})

		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/", app.listLeaderboard)
			r.Delete("/", app.clearLeaderboard)
			r.Get("/export.xlsx", app.exportLeaderboard)
		})

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", app.listQuestions)
			r.Post("/", app.createQuestion)
			r.Post("/import", app.importQuestions)
			r.Get("/{id}", app.getQuestion)
			r.Put("/{id}", app.updateQuestion)
			r.Delete("/{id}", app.deleteQuestion)
		})
	})

	return r
}

func (app *application) dashboard(w http.ResponseWriter, r *http.Request) {
	t, err := app.tournaments.Current(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to get tournament", err)
		return
	}
	question, err := app.tournaments.ActiveQuestion(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to get active question", err)
		return
	}
	entries, err := app.leaderboard.List(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to get leaderboard", err)
		return
	}
	remaining, counting := app.tournaments.Remaining()

	data := views.DashboardData{
		Tournament:  t,
		Question:    question,
		Remaining:   remaining,
		Counting:    counting,
		Leaderboard: entries,
		Flashes:     app.flashes.Pop(r.Context()),
	}
	if err := views.Render(w, r, views.Dashboard(data)); err != nil {
		app.logger.Error("failed to render dashboard", "error", err)
	}
}

type tournamentResponse struct {
	Tournament       *bracket.Tournament       `json:"tournament"`
	TurnTeam         string                    `json:"turn_team,omitempty"`
	RemainingSeconds *int                      `json:"remaining_seconds,omitempty"`
	Warning          string                    `json:"warning,omitempty"`
	Outcome          *bracket.MatchOutcome     `json:"outcome,omitempty"`
	Entry            *bracket.LeaderboardEntry `json:"leaderboard_entry,omitempty"`
}

func (app *application) tournamentJSON(w http.ResponseWriter, status int, t *bracket.Tournament) {
	httputil.JSON(w, status, app.describe(t))
}

func (app *application) describe(t *bracket.Tournament) tournamentResponse {
	resp := tournamentResponse{Tournament: t, TurnTeam: t.TurnTeam()}
	if left, ok := app.tournaments.Remaining(); ok {
		secs := int(left.Round(time.Second) / time.Second)
		resp.RemainingSeconds = &secs
	}
	return resp
}

func (app *application) getTournament(w http.ResponseWriter, r *http.Request) {
	t, err := app.tournaments.Current(r.Context())
	if err != nil {
		httputil.WriteError(w, "failed to get tournament", err)
		return
	}
	app.tournamentJSON(w, http.StatusOK, t)
}

type startRequest struct {
	Name        string               `json:"name"`
	Teams       []string             `json:"teams"`
	RoundConfig *bracket.RoundConfig `json:"round_config"`
	Questions   []quiz.Question      `json:"questions"`
}

func (app *application) startTournament(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, "invalid start request", apperr.Validation("invalid request body: %v", err))
		return
	}

	in := service.StartInput{Name: req.Name, TeamNames: req.Teams, Questions: req.Questions}
	if req.RoundConfig != nil {
		in.RoundConfig = *req.RoundConfig
	}
	t, err := app.tournaments.StartTournament(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, "failed to start tournament", err)
		return
	}
	app.tournamentJSON(w, http.StatusCreated, t)
}

func (app *application) resetTournament(w http.ResponseWriter, r *http.Request) {
	t, err := app.tournaments.ResetTournament(r.Context())
	if err != nil {
		httputil.WriteError(w, "failed to reset tournament", err)
		return
	}
	app.tournamentJSON(w, http.StatusOK, t)
}

func (app *application) activateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, "invalid question id", apperr.Validation("invalid question id %q", chi.URLParam(r, "id")))
		return
	}
	t, err := app.tournaments.ActivateQuestion(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, "failed to activate question", err)
		return
	}
	app.tournamentJSON(w, http.StatusOK, t)
}

type answerRequest struct {
	Correct *bool `json:"correct"`
}

func (app *application) scoreAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || req.Correct == nil {
		httputil.WriteError(w, "invalid answer request", apperr.Validation(`body must be {"correct": true|false}`))
		return
	}
	t, err := app.tournaments.ScoreAnswer(r.Context(), *req.Correct)
	if err != nil {
		httputil.WriteError(w, "failed to score answer", err)
		return
	}
	app.tournamentJSON(w, http.StatusOK, t)
}

type winnerRequest struct {
	Winner string `json:"winner"`
}

func (app *application) declareWinner(w http.ResponseWriter, r *http.Request) {
	round, errRound := strconv.Atoi(chi.URLParam(r, "round"))
	match, errMatch := strconv.Atoi(chi.URLParam(r, "match"))
	if errRound != nil || errMatch != nil {
		httputil.WriteError(w, "invalid match", apperr.Validation("round and match must be numbers"))
		return
	}

	var req winnerRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil && err != io.EOF {
			httputil.WriteError(w, "invalid winner request", apperr.Validation("invalid request body: %v", err))
			return
		}
	}

	t, res, err := app.tournaments.DeclareMatchWinner(r.Context(), round, match, req.Winner)
	if err != nil {
		httputil.WriteError(w, "failed to declare winner", err)
		return
	}
	if res.Warning != "" {
		app.flashes.Add(r.Context(), res.Warning)
	}

	resp := app.describe(t)
	resp.Warning = res.Warning
	resp.Outcome = &res.Outcome
	resp.Entry = res.Entry
	httputil.JSON(w, http.StatusOK, resp)
}

func (app *application) advance(w http.ResponseWriter, r *http.Request) {
	t, err := app.tournaments.AdvanceToNextMatch(r.Context())
	if err != nil {
		httputil.WriteError(w, "failed to advance", err)
		return
	}
	app.tournamentJSON(w, http.StatusOK, t)
}

func (app *application) finalize(w http.ResponseWriter, r *http.Request) {
	var req winnerRequest
	err := httputil.DecodeJSON(r, &req)
	winner := utils.StringOrNil(req.Winner)
	if err != nil || winner == nil {
		httputil.WriteError(w, "invalid finalize request", apperr.Validation(`body must be {"winner": "<team>"}`))
		return
	}
	t, entry, err := app.tournaments.FinalizeNow(r.Context(), *winner)
	if err != nil {
		httputil.WriteError(w, "failed to finalize", err)
		return
	}
	resp := app.describe(t)
	resp.Entry = entry
	httputil.JSON(w, http.StatusOK, resp)
}

func (app *application) listLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := app.leaderboard.List(r.Context())
	if err != nil {
		httputil.WriteError(w, "failed to list leaderboard", err)
		return
	}
	httputil.JSON(w, http.StatusOK, entries)
}

func (app *application) clearLeaderboard(w http.ResponseWriter, r *http.Request) {
	removed, err := app.leaderboard.Clear(r.Context())
	if err != nil {
		httputil.WriteError(w, "failed to clear leaderboard", err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (app *application) exportLeaderboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.xlsx"`)
	if err := app.leaderboard.Export(r.Context(), w); err != nil {
		httputil.InternalServerError(w, "Failed to export leaderboard", err)
	}
}

func parseQuestionID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation("invalid question id %q", raw)
	}
	return id, nil
}

func (app *application) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := app.questions.List(r.Context())
	if err != nil {
		httputil.WriteError(w, "failed to list questions", err)
		return
	}
	httputil.JSON(w, http.StatusOK, questions)
}

func (app *application) getQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := parseQuestionID(r)
	if err != nil {
		httputil.WriteError(w, "invalid question id", err)
		return
	}
	q, err := app.questions.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, "failed to get question", err)
		return
	}
	httputil.JSON(w, http.StatusOK, q)
}

func (app *application) createQuestion(w http.ResponseWriter, r *http.Request) {
	var q quiz.Question
	if err := httputil.DecodeJSON(r, &q); err != nil {
		httputil.WriteError(w, "invalid question", apperr.Validation("invalid request body: %v", err))
		return
	}
	created, err := app.questions.Create(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, "failed to create question", err)
		return
	}
	httputil.JSON(w, http.StatusCreated, created)
}

func (app *application) updateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := parseQuestionID(r)
	if err != nil {
		httputil.WriteError(w, "invalid question id", err)
		return
	}
	var q quiz.Question
	if err := httputil.DecodeJSON(r, &q); err != nil {
		httputil.WriteError(w, "invalid question", apperr.Validation("invalid request body: %v", err))
		return
	}
	updated, err := app.questions.Update(r.Context(), id, q)
	if err != nil {
		httputil.WriteError(w, "failed to update question", err)
		return
	}
	httputil.JSON(w, http.StatusOK, updated)
}

func (app *application) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := parseQuestionID(r)
	if err != nil {
		httputil.WriteError(w, "invalid question id", err)
		return
	}
	if err := app.questions.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, "failed to delete question", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) importQuestions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.WriteError(w, "invalid upload", apperr.Validation("invalid upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, "invalid upload", apperr.Validation("a question file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, "invalid upload", apperr.Validation("failed to read upload: %v", err))
		return
	}
	replace, _ := strconv.ParseBool(r.FormValue("replace"))

	n, err := app.questions.Import(r.Context(), header.Filename, data, replace)
	if err != nil {
		httputil.WriteError(w, "failed to import questions", err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]int{"imported": n})
}
