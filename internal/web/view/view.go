// Package view renders the portal's HTML pages. Templates are embedded
// so the binary is self-contained; each page is parsed together with
// the shared layout.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/mkarls/gatekeeper/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// FlashMessage is a one-shot notice shown at the top of the next page
type FlashMessage struct {
	Type    string // "success", "error", "info"
	Message string
}

// PageData carries the fields every page needs
type PageData struct {
	Title     string
	Identity  *model.Identity
	IsAdmin   bool
	AdminName string
	Flash     *FlashMessage
}

// HomeData is the data for the home page
type HomeData struct {
	PageData
	LinkedAccount *model.GameAccount
	Verification  *model.VerificationStatus
	Whitelisted   bool
}

// LinkData is the data for the account linking page
type LinkData struct {
	PageData
	LinkedAccount *model.GameAccount
	Username      string
	Error         string
}

// ApplyData is the data for the whitelist application page
type ApplyData struct {
	PageData
	Open        *model.Application
	Serial      string
	Message     string
	FieldErrors map[string]string
}

// AdminLoginData is the data for the admin login page
type AdminLoginData struct {
	PageData
	Username string
	Error    string
}

// AdminWhitelistData is the data for the whitelist admin page
type AdminWhitelistData struct {
	PageData
	Entries []*model.WhitelistEntry
}

// AdminApplicationsData is the data for the application review page
type AdminApplicationsData struct {
	PageData
	Applications []*model.Application
}

// AdminAuditData is the data for the audit log page
type AdminAuditData struct {
	PageData
	Entries []*model.AuditEntry
}

// ErrorData is the data for the error page
type ErrorData struct {
	PageData
	Status  int
	Message string
}

var pages = map[string]*template.Template{}

var funcs = template.FuncMap{
	"datetime": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04 MST")
	},
}

func init() {
	for _, page := range []string{
		"home.html",
		"link.html",
		"apply.html",
		"admin_login.html",
		"admin_whitelist.html",
		"admin_applications.html",
		"admin_audit.html",
		"error.html",
	} {
		pages[page] = template.Must(
			template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
		)
	}
}

// Render writes the named page to the response
func Render(w http.ResponseWriter, status int, page string, data any) error {
	tmpl, ok := pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.ExecuteTemplate(w, "layout.html", data)
}
