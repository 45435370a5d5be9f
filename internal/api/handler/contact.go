package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/request"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/response"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/email"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

type Contact struct {
	sender email.Sender
	from   string
	to     string
}

// NewContact returns the contact form handler. A nil sender disables it.
func NewContact(sender email.Sender, from, to string) *Contact {
	return &Contact{sender: sender, from: from, to: to}
}

// Submit emails a contact form submission to staff with reply-to set to the
// submitter.
func (h *Contact) Submit(w http.ResponseWriter, r *http.Request) {
	if h.sender == nil || h.to == "" {
		response.WriteError(w, http.StatusServiceUnavailable, "contact form is not configured")
		return
	}

	var msg model.ContactMessage
	if err := request.Decode(r, &msg); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	html, err := email.RenderContact(msg)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	id, err := h.sender.Send(r.Context(), email.Message{
		From:    h.from,
		To:      []string{h.to},
		ReplyTo: msg.Email,
		Subject: "Contact form: " + msg.Name,
		HTML:    html,
	})
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("contact email failed")
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusAccepted, map[string]string{"id": id})
}
