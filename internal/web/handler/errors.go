package handler

import (
	"net/http"

	"github.com/mkarls/gatekeeper/internal/web/view"
)

// RenderError renders the HTML error page
func RenderError(w http.ResponseWriter, status int, message string) {
	_ = view.Render(w, status, "error.html", view.ErrorData{
		PageData: view.PageData{Title: "Error"},
		Status:   status,
		Message:  message,
	})
}
