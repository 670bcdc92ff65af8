package http

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"finsight/internal/chat"
	"finsight/internal/session"
)

// Tabs of the application shell, in display order.
var appTabs = []struct {
	Key   string
	Label string
}{
	{"dashboard", "Dashboard"},
	{"analysis", "Analysis"},
	{"budget", "Budget"},
	{"debt", "Debt"},
	{"invest", "Invest"},
}

func validTab(tab string) bool {
	for _, t := range appTabs {
		if t.Key == tab {
			return true
		}
	}
	return false
}

// handleLoginPage renders the login screen, or forwards straight to the
// app when a live session cookie is present.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessionFromRequest(r); err == nil {
		http.Redirect(w, r, "/app", http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", struct{ Error string }{})
}

// handleLogin checks the static demo credentials and opens a session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	userID := formField(r, "user_id")
	password := r.PostFormValue("password")

	if userID != s.demoUserID || password != s.demoPassword {
		slog.WarnContext(r.Context(), "Login rejected", "user_id", userID)
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, r, "login.html", struct{ Error string }{Error: "Invalid credentials"})
		return
	}

	profile := chat.UserProfile{
		Name:          "Demo User",
		Status:        "employed",
		Age:           30,
		RiskTolerance: "moderate",
	}
	if name := formField(r, "name"); name != "" {
		profile.Name = name
	}

	sess, err := s.advisor.StartSession(r.Context(), profile)
	if err != nil {
		slog.ErrorContext(r.Context(), "Session create failed", "error", err)
		InternalServerError("Could not start a session").Write(w)
		return
	}

	setSessionCookie(w, sess.ID)
	http.Redirect(w, r, "/app", http.StatusSeeOther)
}

// handleLogout drops the session and returns to the login screen.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if err := s.advisor.EndSession(r.Context(), c.Value); err != nil && !errors.Is(err, session.ErrNotFound) {
			slog.WarnContext(r.Context(), "Session delete failed", "error", err)
		}
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleApp renders the tab shell. Unknown tabs fall back to the dashboard.
func (s *Server) handleApp(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	tab := r.URL.Query().Get("tab")
	if !validTab(tab) {
		tab = "dashboard"
	}

	s.render(w, r, "app.html", struct {
		Tabs      []struct{ Key, Label string }
		ActiveTab string
		UserName  string
		HasData   bool
	}{
		Tabs:      appTabs,
		ActiveTab: tab,
		UserName:  sess.Profile.Name,
		HasData:   sess.Analysis != nil,
	})
}

// handleUpload proxies the statement to the analyzer and re-renders the
// dashboard against the fresh analysis.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}

	if err := r.ParseMultipartForm(16 << 20); err != nil {
		BadRequestError("Invalid upload").Write(w)
		return
	}
	file, header, err := r.FormFile("statement")
	if err != nil {
		UnprocessableEntityError("Choose a statement file to upload").Write(w)
		return
	}
	defer file.Close()

	updated, err := s.advisor.UploadStatement(r.Context(), sess.ID, header.Filename, file)
	if err != nil {
		slog.ErrorContext(r.Context(), "Statement upload failed",
			"session_id", sess.ID, "source_file", header.Filename, "error", err)
		s.renderLoadError(w, r, "Analysis failed: "+err.Error(), "/ui/dashboard-overview", "dashboard-overview")
		return
	}

	s.structured.LogStatementAnalyzed(r.Context(), sess.ID, header.Filename)
	if updated.Analysis != nil && updated.Analysis.TotalIncome == 0 {
		slog.WarnContext(r.Context(), "Analysis missing total income",
			"session_id", sess.ID, "source_file", header.Filename)
	}

	NewHTMXResponse().TriggerAnalysisReady().SetHeaders(w)
	s.writeDashboard(w, r, updated)
}

// handleReport streams the backend's combined analysis as a JSON download.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}
	if sess.Analysis == nil {
		UnprocessableEntityError("Upload a statement first").Write(w)
		return
	}

	report, err := s.advisor.ComprehensiveReport(r.Context(), sess.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Comprehensive report failed",
			"session_id", sess.ID, "error", err)
		http.Error(w, "Report unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="finsight-report.json"`)
	_, _ = w.Write(report)
}

// handleBackendStatus reports the analyzer's health and feature flags.
func (s *Server) handleBackendStatus(w http.ResponseWriter, r *http.Request) {
	healthy, features := s.advisor.BackendStatus(r.Context())

	var flags []string
	for name, on := range features.Features {
		if on {
			flags = append(flags, name)
		}
	}
	sort.Strings(flags)

	s.render(w, r, "backend_status.html", struct {
		Healthy  bool
		Features []string
		Count    string
	}{Healthy: healthy, Features: flags, Count: strconv.Itoa(len(flags))})
}
