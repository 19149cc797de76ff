package handler

import (
	"net/http"

	"github.com/asaskevich/govalidator"

	"relief/internal/relief/entity"
	"relief/pkg/platform/httputil"
	"relief/pkg/requestcontext"
)

var contactFields = []entity.Field{
	{Name: "name", Type: entity.TypeText, Required: true},
	{Name: "email", Type: entity.TypeText, Required: true},
	{Name: "subject", Type: entity.TypeText, Required: true},
	{Name: "message", Type: entity.TypeText, Required: true},
}

type contactData struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
}

type contactResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    contactData `json:"data"`
}

// handleContact acknowledges a contact form submission. Nothing is stored.
func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fields, err := decodeFields(w, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	values := make(map[string]string, len(contactFields))
	for _, f := range contactFields {
		v, ok := entity.Input(fields, f)
		if !ok || entity.IsBlank(v) {
			httputil.WriteError(w, entity.MissingField(f.Name))
			return
		}
		text, err := entity.Coerce(f, v)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		values[f.Name] = text.(string)
	}
	if !govalidator.StringLength(values["email"], "3", "254") || !govalidator.IsEmail(values["email"]) {
		httputil.WriteError(w, entity.InvalidField("email"))
		return
	}

	h.logger.InfoContext(ctx, "contact message received",
		"subject", values["subject"],
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, contactResponse{
		Success: true,
		Message: "Your message has been sent. Thank you!",
		Data: contactData{
			Name:    values["name"],
			Email:   values["email"],
			Subject: values["subject"],
		},
	})
}
