package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mkarpis/jobtrail/internal/upload"
	"github.com/mkarpis/jobtrail/pkg/models"
	"github.com/mkarpis/jobtrail/pkg/repository"
)

// NotificationQueue is the outbox the handlers enqueue owner emails into.
// Delivery is fire-and-forget: enqueue failures are logged and never fail
// the request.
type NotificationQueue interface {
	Enqueue(ctx context.Context, recipient, subject, body string) (int64, error)
}

type JobsHandler struct {
	jobRepo  repository.JobRepo
	userRepo repository.UserRepo
	files    *upload.Store
	queue    NotificationQueue
}

func NewJobsHandler(jr repository.JobRepo, ur repository.UserRepo, files *upload.Store, queue NotificationQueue) *JobsHandler {
	return &JobsHandler{jobRepo: jr, userRepo: ur, files: files, queue: queue}
}

func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	jobs, err := h.jobRepo.ListJobsByOwner(r.Context(), ident.UserID)
	if err != nil {
		logger.Error("list jobs", "err", err)
		writeError(w, http.StatusInternalServerError, "Server error while fetching jobs")
		return
	}
	if jobs == nil {
		jobs = []models.JobRecord{}
	}

	writeSuccess(w, http.StatusOK, map[string]any{"count": len(jobs), "jobs": jobs})
}

func (h *JobsHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	status := models.Status(mux.Vars(r)["status"])
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status value")
		return
	}

	jobs, err := h.jobRepo.ListJobsByOwnerAndStatus(r.Context(), ident.UserID, status)
	if err != nil {
		logger.Error("filter jobs", "err", err)
		writeError(w, http.StatusInternalServerError, "Server error while filtering jobs")
		return
	}
	if jobs == nil {
		jobs = []models.JobRecord{}
	}

	writeSuccess(w, http.StatusOK, map[string]any{"count": len(jobs), "jobs": jobs})
}

func (h *JobsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	stats, err := h.jobRepo.CountJobsByStatus(r.Context(), ident.UserID)
	if err != nil {
		logger.Error("job stats", "err", err)
		writeError(w, http.StatusInternalServerError, "Server error while getting job stats")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"stats": stats})
}

func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	form, errMsg := parseJobForm(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	// The attachment gates record creation: a rejected file means no record.
	resumeRef, ok := h.saveAttachment(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	job := &models.JobRecord{
		ID:            uuid.NewString(),
		OwnerID:       ident.UserID,
		Company:       form.company,
		Role:          form.role,
		Status:        form.status,
		AppliedDate:   now,
		InterviewDate: form.interviewDate,
		Notes:         form.notes,
		Contact:       form.contact,
		Source:        form.source,
		Resume:        resumeRef,
		LastUpdated:   now,
	}

	if err := h.jobRepo.CreateJob(r.Context(), job); err != nil {
		logger.Error("create job", "err", err)
		writeError(w, http.StatusInternalServerError, "Server error while adding job")
		return
	}

	h.notifyOwner(r, ident.UserID, "New Job Application Added",
		fmt.Sprintf("You added a job application for %s - %s with status %s.", job.Company, job.Role, job.Status))

	writeSuccess(w, http.StatusCreated, map[string]any{"job": job})
}

func (h *JobsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	job, ok := h.ownedJob(w, r, ident.UserID, "Not authorized to update this job")
	if !ok {
		return
	}

	form, errMsg := parseJobForm(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	oldStatus := job.Status
	oldResume := job.Resume

	resumeRef, ok := h.saveAttachment(w, r)
	if !ok {
		return
	}

	// Full-record overwrite: every field comes from this request; an omitted
	// optional field clears the stored value. Only the resume reference
	// survives when no new file is supplied.
	job.Company = form.company
	job.Role = form.role
	job.Status = form.status
	job.InterviewDate = form.interviewDate
	job.Notes = form.notes
	job.Contact = form.contact
	job.Source = form.source
	if resumeRef != "" {
		job.Resume = resumeRef
	}
	job.LastUpdated = time.Now().UTC()

	if err := h.jobRepo.UpdateJob(r.Context(), job); err != nil {
		logger.Error("update job", "err", err)
		writeError(w, http.StatusInternalServerError, "Server error while updating job")
		return
	}

	// A replaced resume leaves the old file orphaned; clean it up after the
	// record write commits. Best-effort, same as record deletion.
	if resumeRef != "" && oldResume != "" && oldResume != resumeRef {
		if err := h.files.Delete(oldResume); err != nil {
			logger.Error("delete replaced resume file", "ref", oldResume, "err", err)
		}
	}

	if oldStatus != job.Status {
		h.notifyOwner(r, ident.UserID, "Job Status Updated",
			fmt.Sprintf("The status of your job application for %s - %s has changed from %s to %s.", job.Company, job.Role, oldStatus, job.Status))
	}

	writeSuccess(w, http.StatusOK, map[string]any{"job": job})
}

func (h *JobsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	job, ok := h.ownedJob(w, r, ident.UserID, "Not authorized to delete this job")
	if !ok {
		return
	}

	// Attachment removal is attempted first but never blocks the record
	// deletion; a leaked file beats a dangling record.
	if job.Resume != "" {
		if err := h.files.Delete(job.Resume); err != nil {
			logger.Error("delete resume file", "ref", job.Resume, "err", err)
		}
	}

	if err := h.jobRepo.DeleteJob(r.Context(), job.ID); err != nil {
		logger.Error("delete job", "err", err)
		writeError(w, http.StatusInternalServerError, "Server error while deleting job")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"msg": "Job removed successfully"})
}

func (h *JobsHandler) DownloadResume(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	job, ok := h.ownedJob(w, r, ident.UserID, "Not authorized to download this resume")
	if !ok {
		return
	}
	if job.Resume == "" {
		writeError(w, http.StatusNotFound, "Resume not found for this job")
		return
	}

	f, err := h.files.Open(job.Resume)
	if err != nil {
		if err == upload.ErrNotFound {
			writeError(w, http.StatusNotFound, "Resume file not found on server.")
			return
		}
		logger.Error("open resume file", "ref", job.Resume, "err", err)
		writeError(w, http.StatusInternalServerError, "Server error while downloading resume")
		return
	}
	defer f.Close()

	filename := h.files.DownloadName(job.Resume, job.Company, job.ID)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := io.Copy(w, f); err != nil {
		logger.Error("stream resume file", "ref", job.Resume, "err", err)
	}
}

// ownedJob loads the record addressed by the path id and enforces ownership.
// A missing record is 404; an existing record owned by someone else is 401,
// so a caller can tell "not yours" from "gone".
func (h *JobsHandler) ownedJob(w http.ResponseWriter, r *http.Request, callerID int64, forbiddenMsg string) (*models.JobRecord, bool) {
	id := mux.Vars(r)["id"]

	job, err := h.jobRepo.GetJobByID(r.Context(), id)
	if err != nil {
		logger.Error("get job", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return nil, false
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return nil, false
	}
	if job.OwnerID != callerID {
		writeError(w, http.StatusUnauthorized, forbiddenMsg)
		return nil, false
	}
	return job, true
}

// saveAttachment stores the optional multipart resume file. It returns
// ok=false after writing the error response when the file is rejected.
func (h *JobsHandler) saveAttachment(w http.ResponseWriter, r *http.Request) (string, bool) {
	file, header, err := r.FormFile("resume")
	if err == http.ErrMissingFile {
		return "", true
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid resume upload")
		return "", false
	}
	defer file.Close()

	ref, err := h.files.Save(file, header.Filename, contentTypeOf(header), header.Size)
	if err != nil {
		switch err {
		case upload.ErrUnsupportedType:
			writeError(w, http.StatusBadRequest, "Only PDF files are allowed!")
		case upload.ErrTooLarge:
			writeError(w, http.StatusBadRequest, "Resume file exceeds the 5MB limit")
		default:
			logger.Error("save resume file", "err", err)
			writeError(w, http.StatusInternalServerError, "Server error while saving resume")
		}
		return "", false
	}
	return ref, true
}

func (h *JobsHandler) notifyOwner(r *http.Request, userID int64, subject, body string) {
	user, err := h.userRepo.GetUserByID(r.Context(), userID)
	if err != nil || user == nil || user.Email == "" {
		if err != nil {
			logger.Error("lookup notification recipient", "err", err)
		}
		return
	}
	if _, err := h.queue.Enqueue(r.Context(), user.Email, subject, body); err != nil {
		logger.Error("enqueue notification", "recipient", user.Email, "err", err)
	}
}

type jobForm struct {
	company       string
	role          string
	status        models.Status
	notes         string
	contact       string
	source        string
	interviewDate *time.Time
}

// parseJobForm reads and validates the multipart fields shared by create and
// update. The returned message is empty on success.
func parseJobForm(r *http.Request) (*jobForm, string) {
	if err := r.ParseMultipartForm(upload.MaxFileSize + 1<<20); err != nil {
		return nil, "Invalid request"
	}

	form := &jobForm{
		company: strings.TrimSpace(r.FormValue("company")),
		role:    strings.TrimSpace(r.FormValue("role")),
		notes:   r.FormValue("notes"),
		contact: r.FormValue("contact"),
		source:  r.FormValue("source"),
	}
	if form.company == "" || form.role == "" {
		return nil, "Company and role are required"
	}

	form.status = models.Status(r.FormValue("status"))
	if form.status == "" {
		form.status = models.StatusApplied
	}
	if !form.status.Valid() {
		return nil, "Invalid status value"
	}

	// interviewDate is only meaningful while the record is in the interview
	// stage; any other status clears it no matter what the client sent.
	if form.status == models.StatusInterview {
		raw := r.FormValue("interviewDate")
		t, err := parseDate(raw)
		if err != nil {
			return nil, "Invalid interview date"
		}
		form.interviewDate = &t
	}

	return form, ""
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func contentTypeOf(header *multipart.FileHeader) string {
	return header.Header.Get("Content-Type")
}
