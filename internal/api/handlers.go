package api

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"image/color"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"qrdash/internal/files"
	"qrdash/internal/qr"
	"qrdash/internal/utils"
)

const (
	pageTitle         = "📱 QR Code Generator Pro Dashboard"
	dynamicQRFilename = "dynamic_QR.png"

	noticeSuccess = "success"
	noticeWarning = "warning"
	noticeInfo    = "info"
)

// Handlers serves the dashboard, its forms and the QR images.
type Handlers struct {
	store     *files.RegistryStore
	artifacts *files.ArtifactStore
	logger    *zap.Logger
	page      *template.Template
}

func NewHandlers(store *files.RegistryStore, artifacts *files.ArtifactStore, logger *zap.Logger) *Handlers {
	return &Handlers{
		store:     store,
		artifacts: artifacts,
		logger:    logger,
		page:      pageTemplate,
	}
}

type notice struct {
	Level   string
	Message string
}

type generatorView struct {
	URL     string
	Fill    string
	Back    string
	Image   template.URL
	Warning string
}

type card struct {
	Name     string
	URL      string
	Filename string
	Image    template.URL
}

type pageData struct {
	Title     string
	Notice    *notice
	Generator generatorView
	Names     []string
	Empty     string
	Columns   int
	Rows      [][]card
}

// DashboardHandler renders the whole page. Every registry entry is encoded
// and written to the artifact directory on each call.
func (h *Handlers) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := pageData{
		Title:     pageTitle,
		Notice:    noticeFromQuery(q),
		Generator: buildGenerator(q.Get("url"), q.Get("fill"), q.Get("back")),
	}

	reg, err := h.store.Load()
	if err != nil {
		h.fail(w, r, "failed to load apps", err)
		return
	}
	arts, err := h.artifacts.WriteAll(reg.Entries())
	if err != nil {
		h.fail(w, r, "failed to render app QR codes", err)
		return
	}

	cards := make([]card, 0, len(arts))
	for _, a := range arts {
		cards = append(cards, card{
			Name:     a.Name,
			URL:      a.URL,
			Filename: a.Filename,
			Image:    pngDataURI(a.PNG),
		})
	}
	data.Names = reg.Names()
	if len(cards) == 0 {
		data.Empty = "No apps available."
	} else {
		data.Columns = Columns(len(cards))
		data.Rows = Arrange(cards)
	}

	var buf bytes.Buffer
	if err := h.page.ExecuteTemplate(&buf, "index", data); err != nil {
		h.fail(w, r, "failed to render page", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// AddAppHandler handles the "Add App" form.
func (h *Handlers) AddAppHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	name := r.PostForm.Get("name")
	_, added, err := h.store.Add(name, r.PostForm.Get("url"))
	if err != nil {
		h.fail(w, r, "failed to save apps", err)
		return
	}
	if !added {
		redirectWithNotice(w, r, noticeWarning, utils.ErrMissingFields.Message)
		return
	}
	redirectWithNotice(w, r, noticeSuccess, "Added "+name+"!")
}

// RemoveAppsHandler handles the "Remove Selected" form.
func (h *Handlers) RemoveAppsHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	_, removed, err := h.store.Remove(r.PostForm["names"], checked(r.PostForm.Get("confirm")))
	if err != nil {
		h.redirectOrFail(w, r, err)
		return
	}
	if len(removed) == 0 {
		redirectWithNotice(w, r, noticeInfo, "None of the selected apps exist.")
		return
	}
	redirectWithNotice(w, r, noticeSuccess, "Removed: "+strings.Join(removed, ", "))
}

// ClearAppsHandler handles the "Clear All Apps" form.
func (h *Handlers) ClearAppsHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if _, err := h.store.Clear(checked(r.PostForm.Get("confirm"))); err != nil {
		h.redirectOrFail(w, r, err)
		return
	}
	redirectWithNotice(w, r, noticeSuccess, "All apps cleared!")
}

// DynamicQRHandler serves a PNG for any URL with optional colors.
func (h *Handlers) DynamicQRHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := q.Get("url")
	if target == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}
	fill, err := colorOrDefault(q.Get("fill"), qr.DefaultFill)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	back, err := colorOrDefault(q.Get("back"), qr.DefaultBack)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	png, err := qr.EncodePNG(target, fill, back)
	if err != nil {
		http.Error(w, "cannot encode url", http.StatusUnprocessableEntity)
		return
	}
	writePNG(w, r, png, dynamicQRFilename, checked(q.Get("download")))
}

// AppQRHandler serves the black-on-white PNG of one registry entry.
func (h *Handlers) AppQRHandler(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(mux.Vars(r)["name"])
	if err != nil || name == "" {
		http.Error(w, "missing app name", http.StatusBadRequest)
		return
	}
	reg, err := h.store.Load()
	if err != nil {
		h.fail(w, r, "failed to load apps", err)
		return
	}
	target, ok := reg.Get(name)
	if !ok {
		http.Error(w, "app not found", http.StatusNotFound)
		return
	}
	png, err := qr.DefaultPNG(target)
	if err != nil {
		h.fail(w, r, "failed to render app QR codes", err)
		return
	}
	writePNG(w, r, png, files.ArtifactName(name), checked(r.URL.Query().Get("download")))
}

func (h *Handlers) redirectOrFail(w http.ResponseWriter, r *http.Request, err error) {
	if warn, ok := utils.AsWarning(err); ok {
		redirectWithNotice(w, r, noticeWarning, warn.Message)
		return
	}
	h.fail(w, r, "failed to save apps", err)
}

// fail logs err and answers 500 with msg.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	loggerFrom(r.Context(), h.logger).Error(msg, zap.Error(err))
	http.Error(w, msg, http.StatusInternalServerError)
}

func buildGenerator(target, fillHex, backHex string) generatorView {
	view := generatorView{URL: target, Fill: qr.DefaultFill, Back: qr.DefaultBack}

	fill, err := qr.NormalizeColor(fillHex, qr.DefaultFill)
	if err != nil {
		view.Warning = "Invalid fill color " + fillHex + "."
		return view
	}
	back, err := qr.NormalizeColor(backHex, qr.DefaultBack)
	if err != nil {
		view.Warning = "Invalid background color " + backHex + "."
		return view
	}
	view.Fill, view.Back = fill, back
	if target == "" {
		return view
	}

	fillColor, _ := qr.ParseColor(fill)
	backColor, _ := qr.ParseColor(back)
	png, err := qr.EncodePNG(target, fillColor, backColor)
	if err != nil {
		view.Warning = "Could not encode this URL as a QR code."
		return view
	}
	view.Image = pngDataURI(png)
	return view
}

func colorOrDefault(hex, fallback string) (color.Color, error) {
	if hex == "" {
		hex = fallback
	}
	return qr.ParseColor(hex)
}

func pngDataURI(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

func noticeFromQuery(q url.Values) *notice {
	msg := q.Get("notice")
	if msg == "" {
		return nil
	}
	level := q.Get("level")
	switch level {
	case noticeSuccess, noticeWarning, noticeInfo:
	default:
		level = noticeInfo
	}
	return &notice{Level: level, Message: msg}
}

func redirectWithNotice(w http.ResponseWriter, r *http.Request, level, msg string) {
	v := url.Values{}
	v.Set("notice", msg)
	v.Set("level", level)
	http.Redirect(w, r, "/?"+v.Encode(), http.StatusSeeOther)
}

func checked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "1", "true", "yes":
		return true
	}
	return false
}
