package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"meetingassist/internal/meeting"
	"meetingassist/internal/selection"
)

// Call is one request received by the fake backend.
type Call struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// Action returns the last path segment, e.g. "generate-tasks".
func (c Call) Action() string {
	return c.Path[strings.LastIndex(c.Path, "/")+1:]
}

type failure struct {
	status int
	body   string
}

// Backend is an in-memory stand-in for the meetings and clients REST API.
// Task generation completes immediately. Deliverables generation walks
// DeliverablesScript one step per deliverables fetch.
type Backend struct {
	t      testing.TB
	server *httptest.Server

	mu       sync.Mutex
	clients  []meeting.Client
	meetings map[string][]*meeting.Meeting
	content  map[string]map[string]contentDoc
	script   map[string][]meeting.DeliverablesStatus
	failures map[string]failure
	calls    []Call
	uploads  map[string][]byte

	// GeneratedTasks is what generate-tasks produces.
	GeneratedTasks []meeting.Task
	// DeliverablesScript is the status sequence after generate or revise. The
	// last entry repeats once reached.
	DeliverablesScript []meeting.DeliverablesStatus
}

type contentDoc struct {
	Spec     string
	Template string
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		t:        t,
		meetings: make(map[string][]*meeting.Meeting),
		content:  make(map[string]map[string]contentDoc),
		script:   make(map[string][]meeting.DeliverablesStatus),
		failures: make(map[string]failure),
		uploads:  make(map[string][]byte),
		GeneratedTasks: []meeting.Task{
			{Title: "Load survey data", Description: "Import the raw survey extract"},
			{Title: "Regional summary", Description: "Tabulate responses by region"},
		},
		DeliverablesScript: []meeting.DeliverablesStatus{
			meeting.DeliverablesQueued,
			meeting.DeliverablesRunning,
			meeting.DeliverablesGenerated,
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /clients", b.listClients)
	mux.HandleFunc("POST /clients", b.createClient)
	mux.HandleFunc("GET /clients/{cid}/meetings", b.listMeetings)
	mux.HandleFunc("GET /clients/{cid}/meetings/{mid}/{action}", b.meetingGet)
	mux.HandleFunc("POST /clients/{cid}/meetings/{mid}/{action}", b.meetingAction)
	mux.HandleFunc("PUT /clients/{cid}/meetings/{mid}/{action}", b.meetingPut)
	mux.HandleFunc("POST /upload-url", b.uploadURL)
	mux.HandleFunc("PUT /upload/{key...}", b.upload)
	b.server = httptest.NewServer(b.record(mux))
	t.Cleanup(b.server.Close)
	return b
}

// URL is the base URL of the fake backend.
func (b *Backend) URL() string { return b.server.URL }

// AddClient registers a client.
func (b *Backend) AddClient(id, displayName string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients = append(b.clients, meeting.Client{ClientID: id, DisplayName: displayName})
}

// AddMeeting stores m under its client. Missing statuses are normalized.
func (b *Backend) AddMeeting(m meeting.Meeting) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m.Normalize()
	b.meetings[m.ClientID] = append(b.meetings[m.ClientID], &m)
}

// SetContent stores the spec and template text for one task and language.
func (b *Backend) SetContent(meetingID string, taskIndex int, lang, spec, template string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.content[meetingID] == nil {
		b.content[meetingID] = make(map[string]contentDoc)
	}
	b.content[meetingID][contentKey(taskIndex, lang)] = contentDoc{Spec: spec, Template: template}
}

// Content returns the stored spec and template text.
func (b *Backend) Content(meetingID string, taskIndex int, lang string) (string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc := b.content[meetingID][contentKey(taskIndex, lang)]
	return doc.Spec, doc.Template
}

// Meeting returns a copy of the stored meeting.
func (b *Backend) Meeting(clientID, meetingID string) meeting.Meeting {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m := b.findLocked(clientID, meetingID); m != nil {
		return m.Clone()
	}
	b.t.Fatalf("fake backend: no meeting %s/%s", clientID, meetingID)
	return meeting.Meeting{}
}

// Update mutates the stored meeting under the backend lock.
func (b *Backend) Update(clientID, meetingID string, fn func(*meeting.Meeting)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m := b.findLocked(clientID, meetingID); m != nil {
		fn(m)
	}
}

// FailNext makes the next request whose last path segment is action fail
// with status and body.
func (b *Backend) FailNext(action string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[action] = failure{status: status, body: body}
}

// Calls returns every request received so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallsTo returns the requests whose last path segment is action.
func (b *Backend) CallsTo(action string) []Call {
	var out []Call
	for _, c := range b.Calls() {
		if c.Action() == action {
			out = append(out, c)
		}
	}
	return out
}

// Uploaded returns the bytes received for an upload key.
func (b *Backend) Uploaded(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.uploads[key]
	return data, ok
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		call := Call{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: body}

		b.mu.Lock()
		b.calls = append(b.calls, call)
		fail, failing := b.failures[call.Action()]
		if failing {
			delete(b.failures, call.Action())
		}
		b.mu.Unlock()

		if failing {
			w.WriteHeader(fail.status)
			_, _ = io.WriteString(w, fail.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) listClients(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"clients": b.clients})
}

func (b *Backend) createClient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.DisplayName) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "display_name is required"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := selection.SlugPreview(req.DisplayName)
	for _, c := range b.clients {
		if c.ClientID == id {
			id = fmt.Sprintf("%s-%d", id, len(b.clients)+1)
			break
		}
	}
	client := meeting.Client{ClientID: id, DisplayName: strings.TrimSpace(req.DisplayName)}
	b.clients = append(b.clients, client)
	writeJSON(w, http.StatusCreated, map[string]any{"client": client})
}

func (b *Backend) listMeetings(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := make([]meeting.Meeting, 0, len(b.meetings[r.PathValue("cid")]))
	for _, m := range b.meetings[r.PathValue("cid")] {
		list = append(list, m.Clone())
	}
	writeJSON(w, http.StatusOK, map[string]any{"meetings": list})
}

func (b *Backend) meetingGet(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.findLocked(r.PathValue("cid"), r.PathValue("mid"))
	if m == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "meeting not found"})
		return
	}
	switch r.PathValue("action") {
	case "deliverables":
		b.advanceLocked(m)
		writeJSON(w, http.StatusOK, meeting.Deliverables{
			DeliverablesStatus:           m.DeliverablesStatus,
			DeliverablesRevision:         m.DeliverablesRevision,
			DeliverablesLanguage:         m.DeliverablesLanguage,
			SpecSheets:                   m.SpecSheets,
			CodeTemplates:                m.CodeTemplates,
			LastDeliverablesInstructions: m.LastDeliverablesInstructions,
		})
	case "deliverables-content":
		index, _ := strconv.Atoi(r.URL.Query().Get("task_index"))
		key := contentKey(index, r.URL.Query().Get("language"))
		doc, ok := b.content[m.MeetingID][key]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no content for " + key})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"spec":     map[string]string{"content": doc.Spec, "s3_key": "specs/" + key + ".md"},
			"template": map[string]string{"content": doc.Template, "s3_key": "templates/" + key},
		})
	default:
		http.NotFound(w, r)
	}
}

func (b *Backend) meetingAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instructions string `json:"instructions"`
		Language     string `json:"language"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.findLocked(r.PathValue("cid"), r.PathValue("mid"))
	if m == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "meeting not found"})
		return
	}
	switch r.PathValue("action") {
	case "generate-tasks":
		if m.TranscriptStatus != meeting.TranscriptReady {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "transcript not ready", "transcript_status": string(m.TranscriptStatus)})
			return
		}
		m.Tasks = append([]meeting.Task(nil), b.GeneratedTasks...)
		m.TasksStatus = meeting.TasksGenerated
	case "revise-tasks":
		for i := range m.Tasks {
			m.Tasks[i].Description += " (revised)"
		}
		m.LastInstructions = req.Instructions
		m.TasksStatus = meeting.TasksRevised
	case "approve-tasks":
		m.TasksStatus = meeting.TasksApproved
	case "clear-tasks":
		m.Tasks = []meeting.Task{}
		m.ResearchQuestions = nil
		m.TasksStatus = meeting.TasksNone
	case "generate-deliverables":
		m.DeliverablesLanguage = req.Language
		m.DeliverablesStatus = meeting.DeliverablesQueued
		b.script[m.MeetingID] = append([]meeting.DeliverablesStatus(nil), b.DeliverablesScript...)
	case "revise-deliverables":
		m.LastDeliverablesInstructions = req.Instructions
		m.DeliverablesStatus = meeting.DeliverablesQueued
		script := append([]meeting.DeliverablesStatus(nil), b.DeliverablesScript...)
		if n := len(script); n > 0 && script[n-1] == meeting.DeliverablesGenerated {
			script[n-1] = meeting.DeliverablesRevised
		}
		b.script[m.MeetingID] = script
	case "approve-deliverables":
		m.DeliverablesStatus = meeting.DeliverablesApproved
	case "clear-deliverables":
		m.DeliverablesStatus = meeting.DeliverablesNone
		m.SpecSheets = nil
		m.CodeTemplates = nil
		delete(b.content, m.MeetingID)
	default:
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (b *Backend) meetingPut(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.findLocked(r.PathValue("cid"), r.PathValue("mid"))
	if m == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "meeting not found"})
		return
	}
	switch r.PathValue("action") {
	case "tasks":
		var req struct {
			Tasks             []meeting.Task `json:"tasks"`
			ResearchQuestions []string       `json:"research_questions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		m.Tasks = req.Tasks
		m.ResearchQuestions = req.ResearchQuestions
		m.TasksStatus = meeting.TasksEdited
	case "deliverables-content":
		var req struct {
			TaskIndex       int    `json:"task_index"`
			Language        string `json:"language"`
			SpecContent     string `json:"spec_content"`
			TemplateContent string `json:"template_content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if b.content[m.MeetingID] == nil {
			b.content[m.MeetingID] = make(map[string]contentDoc)
		}
		b.content[m.MeetingID][contentKey(req.TaskIndex, req.Language)] = contentDoc{Spec: req.SpecContent, Template: req.TemplateContent}
		m.DeliverablesStatus = meeting.DeliverablesEdited
	default:
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (b *Backend) uploadURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID    string `json:"client_id"`
		ContentType string `json:"content_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClientID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "client_id is required"})
		return
	}
	b.mu.Lock()
	key := fmt.Sprintf("recordings/%s/%d", req.ClientID, len(b.uploads)+1)
	b.uploads[key] = nil
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"upload_url": b.server.URL + "/upload/" + key,
		"key":        key,
		"headers":    map[string]string{"Content-Type": req.ContentType},
	})
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := r.PathValue("key")
	if _, ok := b.uploads[key]; !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	b.uploads[key] = data
	w.WriteHeader(http.StatusOK)
}

// advanceLocked moves a scripted deliverables run one step. Reaching a content
// status creates one spec sheet and template per task.
func (b *Backend) advanceLocked(m *meeting.Meeting) {
	script := b.script[m.MeetingID]
	if len(script) == 0 {
		return
	}
	m.DeliverablesStatus = script[0]
	if len(script) > 1 {
		b.script[m.MeetingID] = script[1:]
	}
	if !m.DeliverablesStatus.HasContent() || len(script) > 1 {
		return
	}
	delete(b.script, m.MeetingID)
	m.DeliverablesRevision++
	m.SpecSheets = nil
	m.CodeTemplates = nil
	langs := []string{m.DeliverablesLanguage}
	if m.DeliverablesLanguage == string(meeting.LanguageBoth) {
		langs = []string{string(meeting.LanguageR), string(meeting.LanguageSAS)}
	}
	if b.content[m.MeetingID] == nil {
		b.content[m.MeetingID] = make(map[string]contentDoc)
	}
	for i, task := range m.Tasks {
		index := meeting.TaskIndex(i + 1)
		m.SpecSheets = append(m.SpecSheets, meeting.ArtifactRef{TaskIndex: index, S3Key: fmt.Sprintf("specs/%d.md", i+1), TaskTitle: task.Title})
		for _, lang := range langs {
			m.CodeTemplates = append(m.CodeTemplates, meeting.ArtifactRef{TaskIndex: index, Language: lang, S3Key: fmt.Sprintf("templates/%d::%s", i+1, lang)})
			b.content[m.MeetingID][contentKey(i+1, lang)] = contentDoc{
				Spec:     fmt.Sprintf("# %s\n\nrevision %d", task.Title, m.DeliverablesRevision),
				Template: fmt.Sprintf("* %s (%s)", task.Title, lang),
			}
		}
	}
}

func (b *Backend) findLocked(clientID, meetingID string) *meeting.Meeting {
	for _, m := range b.meetings[clientID] {
		if m.MeetingID == meetingID {
			return m
		}
	}
	return nil
}

func contentKey(taskIndex int, lang string) string {
	return fmt.Sprintf("%d::%s", taskIndex, strings.ToUpper(lang))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
