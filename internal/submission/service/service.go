package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"aieni/internal/apiclient"
	"aieni/internal/blob"
	"aieni/internal/export"
	"aieni/internal/listing"
	"aieni/internal/notify"
	"aieni/internal/records"
	"aieni/internal/sentinel"
	"aieni/internal/submission"
	"aieni/internal/submission/metrics"
	dErrors "aieni/pkg/domain-errors"
	strs "aieni/pkg/string"
)

// Store persists the abstract collection. *records.Store[submission.Abstract]
// satisfies it.
type Store interface {
	Load(ctx context.Context) ([]submission.Abstract, error)
	Find(ctx context.Context, id string) (submission.Abstract, error)
	AppendFunc(ctx context.Context, build func(taken func(id string) bool) (submission.Abstract, error)) (submission.Abstract, error)
	Update(ctx context.Context, id string, mutate func(*submission.Abstract) bool) (records.Outcome, error)
	Remove(ctx context.Context, id string) (submission.Abstract, error)
	Replace(ctx context.Context, recs []submission.Abstract) error
}

// BlobStore keeps the uploaded documents.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) (blob.Object, error)
	Delete(ctx context.Context, key string) error
}

// Forwarder sends submissions to a remote backend instead of the local store.
type Forwarder interface {
	SubmitForm(ctx context.Context, endpoint string, data any, file *apiclient.File) (apiclient.SubmitResult, error)
}

// ExportObserver counts finished exports.
type ExportObserver interface {
	IncExport(kind string, rows int)
}

const (
	uploadField = "word_file"
	presignTTL  = 15 * time.Minute

	msgContact = "Please try again or contact Research.Center@Icp.gov.ae"
)

type Service struct {
	store     Store
	blobs     BlobStore
	notifier  notify.Notifier
	forwarder Forwarder
	metrics   *metrics.Metrics
	exports   ExportObserver
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithForwarder sends new submissions to a remote backend.
func WithForwarder(f Forwarder) Option {
	return func(s *Service) { s.forwarder = f }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithExportObserver(o ExportObserver) Option {
	return func(s *Service) { s.exports = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store Store, blobs BlobStore, notifier notify.Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		blobs:    blobs,
		notifier: notifier,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates the form and the document, then stores both. With a
// forwarder configured the submission goes to the remote backend instead.
func (s *Service) Submit(ctx context.Context, req *submission.SubmitRequest, upload *submission.Upload) (submission.Abstract, error) {
	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveSubmitLatency(time.Since(start).Seconds())
		}
	}()

	req.Normalize()
	if err := req.Validate(); err != nil {
		s.rejected(ctx, "Validation Error", "Please fill in all required fields correctly.", notify.KindError)
		return submission.Abstract{}, err
	}
	if err := upload.Validate(); err != nil {
		kind, title := notify.KindError, "Invalid File Type"
		switch {
		case upload == nil || upload.Name == "":
			title = "Validation Error"
		case len(upload.Data) > submission.MaxFileBytes:
			kind, title = notify.KindWarning, "File Too Large"
		}
		s.rejected(ctx, title, err.Error(), kind)
		return submission.Abstract{}, err
	}
	if s.metrics != nil {
		s.metrics.ObserveUpload(len(upload.Data))
	}
	contentType := submission.ContentTypeOf(upload.Name, upload.ContentType)

	if s.forwarder != nil {
		return s.forward(ctx, req, upload, contentType)
	}

	key := blob.NewAbstractKey(upload.Name)
	if err := s.blobs.Put(ctx, key, contentType, upload.Data); err != nil {
		err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to store document")
		s.failed(ctx, err)
		return submission.Abstract{}, err
	}
	rec, err := s.store.AppendFunc(ctx, func(taken func(string) bool) (submission.Abstract, error) {
		now := s.now().UTC()
		return newAbstract(records.NextID("ABS", now, taken), req, upload, key, now), nil
	})
	if err != nil {
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned document", "key", key, "error", derr)
		}
		s.failed(ctx, err)
		return submission.Abstract{}, err
	}

	s.submitted(ctx, rec.ID, "stored")
	return rec, nil
}

func newAbstract(id string, req *submission.SubmitRequest, upload *submission.Upload, key string, now time.Time) submission.Abstract {
	first, last := strs.SplitName(req.FullName)
	text := req.Abstract
	if text == "" {
		text = "Abstract uploaded as file: " + upload.Name
	}
	return submission.Abstract{
		ID:          id,
		FullName:    req.FullName,
		FirstName:   first,
		LastName:    last,
		JobTitle:    req.JobTitle,
		Email:       req.Email,
		Phone:       req.Phone,
		Institution: req.Institution,
		Country:     req.Country,
		CoAuthors:   req.CoAuthors,
		Title:       upload.Title(),
		Abstract:    text,
		FileName:    upload.Name,
		FileSize:    upload.SizeLabel(),
		FileKey:     key,
		Status:      submission.StatusPending,
		SubmittedAt: now,
	}
}

func (s *Service) forward(ctx context.Context, req *submission.SubmitRequest, upload *submission.Upload, contentType string) (submission.Abstract, error) {
	res, err := s.forwarder.SubmitForm(ctx, apiclient.EndpointSubmitAbstract, req, &apiclient.File{
		Field:       uploadField,
		Name:        upload.Name,
		ContentType: contentType,
		Data:        upload.Data,
	})
	if err != nil {
		s.failed(ctx, err)
		return submission.Abstract{}, err
	}
	id := res.ID
	if id == "" {
		id = "N/A"
	}
	s.submitted(ctx, id, "forwarded")
	return newAbstract(id, req, upload, "", s.now().UTC()), nil
}

func (s *Service) submitted(ctx context.Context, id, outcome string) {
	if s.metrics != nil {
		s.metrics.IncSubmission(outcome)
	}
	s.notifier.Notify(ctx, notify.Success("Abstract Submitted!",
		fmt.Sprintf("Submission ID: %s. You will receive the review decision by February 15, 2026.", id)))
}

func (s *Service) rejected(ctx context.Context, title, message string, kind notify.Kind) {
	if s.metrics != nil {
		s.metrics.IncSubmission("rejected")
	}
	s.notifier.Notify(ctx, notify.Notification{Kind: kind, Title: title, Message: message})
}

func (s *Service) failed(ctx context.Context, err error) {
	if s.metrics != nil {
		s.metrics.IncSubmission("failed")
	}
	s.logger.ErrorContext(ctx, "abstract submission failed", "error", err)
	s.notifier.Notify(ctx, notify.Error("Submission Failed", msgContact))
}

func (s *Service) Get(ctx context.Context, id string) (submission.Abstract, error) {
	a, err := s.store.Find(ctx, id)
	if err != nil && dErrors.HasCode(err, dErrors.CodeNotFound) {
		s.notifier.Notify(ctx, notify.Error("Not Found", "Submission not found."))
	}
	return a, err
}

// List is one rendered page of the abstracts view.
type List struct {
	listing.Page[submission.Row]
	View      listing.ViewState `json:"view"`
	NoResults bool              `json:"no_results"`
	Message   string            `json:"message,omitempty"`
}

func (s *Service) List(ctx context.Context, view listing.ViewState) (List, error) {
	all, err := s.store.Load(ctx)
	if err != nil {
		return List{}, err
	}
	page, criteria := listing.Run(all, submission.Kind, view)
	out := List{
		Page: listing.Page[submission.Row]{
			Items:      submission.RenderRows(page.Items),
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalPages: page.TotalPages,
			Total:      page.Total,
			StartIndex: page.StartIndex,
			EndIndex:   page.EndIndex,
			HasPrev:    page.HasPrev,
			HasNext:    page.HasNext,
			Buttons:    page.Buttons,
		},
		View: view.WithPage(page.Page),
	}
	switch {
	case criteria.NoResults(page.Total):
		out.NoResults = true
		out.Message = fmt.Sprintf("No submissions found matching %q.", criteria.Search)
		s.notifier.Notify(ctx, notify.Warning("No Results", out.Message))
	case page.Total == 0:
		out.Message = "No submissions found"
	}
	return out, nil
}

// UpdateStatus sets the review status. Asking for the current status is
// reported as records.OutcomeUnchanged and writes nothing.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (records.Outcome, error) {
	if err := submission.ValidateStatus(status); err != nil {
		return "", err
	}
	next := submission.Status(status)

	var name string
	outcome, err := s.store.Update(ctx, id, func(a *submission.Abstract) bool {
		name = a.FullName
		if a.Status == next {
			return false
		}
		a.Status = next
		return true
	})
	if err != nil {
		msg := "Failed to update submission status. Please try again."
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			msg = "Submission not found."
		}
		s.notifier.Notify(ctx, notify.Error("Update Failed", msg))
		return "", err
	}

	if outcome == records.OutcomeUnchanged {
		s.notifier.Notify(ctx, notify.Info("No Change", fmt.Sprintf("Submission is already marked as %s.", next)))
		return outcome, nil
	}
	if s.metrics != nil {
		s.metrics.IncStatusChange(string(next))
	}
	s.notifier.Notify(ctx, statusNotification(next, name))
	return outcome, nil
}

func statusNotification(st submission.Status, name string) notify.Notification {
	switch st {
	case submission.StatusAccepted:
		return notify.Success("Submission Accepted", fmt.Sprintf("Submission by %s has been accepted.", name))
	case submission.StatusRejected:
		return notify.Warning("Submission Rejected", fmt.Sprintf("Submission by %s has been rejected.", name))
	case submission.StatusPending:
		return notify.Info("Status Updated", "Submission moved to Pending Review.")
	}
	return notify.Success("Status Updated", fmt.Sprintf("Submission status changed to %s.", st))
}

// Remove deletes the abstract and, best effort, its document.
func (s *Service) Remove(ctx context.Context, id string) error {
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		return err
	}
	if removed.FileKey != "" {
		if err := s.blobs.Delete(ctx, removed.FileKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete document", "key", removed.FileKey, "error", err)
		}
	}
	s.notifier.Notify(ctx, notify.Success("Submission Deleted", fmt.Sprintf("Submission %s has been deleted.", id)))
	return nil
}

// Export writes every stored abstract, ignoring any list view, and returns
// the number of data rows. An empty store still yields a header-only file.
func (s *Service) Export(ctx context.Context, d export.Downloader) (int, error) {
	all, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		s.notifier.Notify(ctx, notify.Warning("No Data to Export",
			"There are no submissions to export. Please wait for submissions to be added."))
	}

	filename := export.SubmissionsFilename(s.now())
	content := export.ToDelimitedText(all, submission.Columns)
	if err := d.Download(ctx, filename, export.MimeCSV, content); err != nil {
		s.notifier.Notify(ctx, notify.Error("Export Failed", "Failed to export submissions. Please try again."))
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to deliver export")
	}

	if s.exports != nil {
		s.exports.IncExport("submissions", len(all))
	}
	if len(all) > 0 {
		s.notifier.Notify(ctx, notify.Notification{
			Kind:     notify.KindSuccess,
			Title:    "Export Successful",
			Message:  fmt.Sprintf("%d %s exported to %s", len(all), plural(len(all), "submission"), filename),
			Duration: 5 * time.Second,
		})
	}
	return len(all), nil
}

// Document locates the uploaded file of an abstract. URL is set when the
// blob store can presign; otherwise Object holds the content.
type Document struct {
	Name   string
	URL    string
	Object blob.Object
}

func (s *Service) Document(ctx context.Context, id string) (Document, error) {
	a, err := s.store.Find(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if a.FileKey == "" {
		return Document{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no document uploaded for submission %s", id))
	}

	if p, ok := s.blobs.(blob.Presigner); ok {
		url, err := p.PresignURL(ctx, a.FileKey, presignTTL)
		if err != nil {
			return Document{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign document url")
		}
		return Document{Name: a.FileName, URL: url}, nil
	}

	obj, err := s.blobs.Get(ctx, a.FileKey)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Document{}, dErrors.Wrap(err, dErrors.CodeNotFound, "document not found")
	}
	if err != nil {
		return Document{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read document")
	}
	return Document{Name: a.FileName, Object: obj}, nil
}

type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.store.Load(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(all)}
	for _, a := range all {
		switch a.Status {
		case submission.StatusPending:
			st.Pending++
		case submission.StatusAccepted:
			st.Accepted++
		case submission.StatusRejected:
			st.Rejected++
		}
	}
	return st, nil
}

// Seed overwrites the whole collection.
// Seed overwrites the collection with recs, then deletes the documents of
// replaced abstracts that recs no longer reference.
func (s *Service) Seed(ctx context.Context, recs []submission.Abstract) error {
	prev, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Replace(ctx, recs); err != nil {
		return err
	}

	kept := make(map[string]bool, len(recs))
	for _, a := range recs {
		kept[a.FileKey] = true
	}
	for _, a := range prev {
		if a.FileKey == "" || kept[a.FileKey] {
			continue
		}
		if err := s.blobs.Delete(ctx, a.FileKey); err != nil {
			s.logger.WarnContext(ctx, "failed to remove replaced document", "key", a.FileKey, "error", err)
		}
	}
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
