package http

import (
	"net/http"

	applog "finsight/internal/log"
	"finsight/internal/session"
)

type chatMessageView struct {
	Sender string
	Text   string
	SentAt string
}

type chatView struct {
	Messages  []chatMessageView
	Suggested []string
}

func (s *Server) buildChatView(sess *session.Session) chatView {
	v := chatView{}
	for _, m := range sess.Chat {
		v.Messages = append(v.Messages, chatMessageView{
			Sender: m.Sender,
			Text:   m.Text,
			SentAt: m.SentAt.Format("15:04"),
		})
	}
	v.Suggested = s.advisor.SuggestedQuestions(sess)
	return v
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}
	s.render(w, r, "chat.html", s.buildChatView(sess))
}

// handleChatSend records the question and renders the refreshed message
// log. Model failures are absorbed by the service; only an empty question
// is a user-visible error.
func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	question := formField(r, "question")
	updated, err := s.advisor.AskAdvisor(r.Context(), sess.ID, question)
	if err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Chat question rejected",
			applog.FieldSessionID, sess.ID, applog.FieldError, err.Error())
		UnprocessableEntityError("Type a question first").Write(w)
		return
	}

	s.render(w, r, "chat_messages.html", s.buildChatView(updated))
}
